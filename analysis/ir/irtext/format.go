package irtext

import (
	"strconv"
	"strings"

	"github.com/cs-au-dk/regflow/analysis/ir"
)

// Format prints a program in the syntax accepted by Parse.
func Format(p *ir.Program) string {
	var sb strings.Builder
	if p.Name != "" {
		sb.WriteString("func " + p.Name + "\n")
	}

	succs := p.Successors()
	for _, b := range p.Blocks {
		sb.WriteString(b.String() + ":\n")
		for _, instr := range b.Instrs {
			sb.WriteString("    " + instr.String() + "\n")
		}
		for _, s := range succs[b.Index] {
			if s.Kind == ir.FallThrough && s.Block != b.Index+1 {
				sb.WriteString("    " + fallThroughDirective + " bb" + strconv.Itoa(s.Block) + "\n")
			}
		}
	}
	return sb.String()
}
