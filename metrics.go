package main

import (
	"fmt"
	"io"

	"github.com/cs-au-dk/regflow/analysis/cfg"
	"github.com/cs-au-dk/regflow/analysis/ir"
)

// printMetrics summarizes the shape of the programs to analyze.
func printMetrics(w io.Writer, progs []*ir.Program) {
	msg := "================ Programs =====================\n\n"

	for _, p := range progs {
		instrs := 0
		for _, b := range p.Blocks {
			instrs += len(b.Instrs)
		}

		unreachable := 0
		for _, r := range cfg.Reachable(p) {
			if !r {
				unreachable++
			}
		}

		msg += "Function: " + p.Name + "\n"
		msg += fmt.Sprintf("Blocks: %d (%d unreachable)\n", len(p.Blocks), unreachable)
		msg += fmt.Sprintf("Instructions: %d\n", instrs)
		msg += fmt.Sprintf("Registers: %d\n", p.Registers())
		if loops := cfg.Loops(p); len(loops) > 0 {
			msg += fmt.Sprintf("Loops: %v\n", loops)
		}
		msg += "\n"
	}

	msg += "================ Programs ====================="
	fmt.Fprintln(w, msg)
}
