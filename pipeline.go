package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cs-au-dk/regflow/analysis"
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/utils/dot"
)

// pipeline runs the selected analyses on every program and writes the
// results in the requested format.
type pipeline struct {
	analyses []analysis.Analysis
	out      io.Writer
	// multi is set when more than one result is produced. Text results are
	// then preceded by a header, and rendered graphs go to separate files.
	multi bool
}

func (p pipeline) run(progs []*ir.Program) error {
	for _, prog := range progs {
		for _, a := range p.analyses {
			var err error
			switch {
			case opts.Format().IsText():
				err = p.text(a, prog)
			case opts.Format().IsDot():
				err = p.dot(a, prog)
			default:
				err = p.render(a, prog)
			}
			if err != nil {
				return fmt.Errorf("%s: %s: %w", a.Name(), prog.Name, err)
			}
		}
	}
	return nil
}

func (p pipeline) text(a analysis.Analysis, prog *ir.Program) error {
	if p.multi {
		fmt.Fprintf(p.out, "# %s %s\n", a.Name(), prog.Name)
	}
	return a.Run(prog, p.out)
}

func (p pipeline) dot(a analysis.Analysis, prog *ir.Program) error {
	g, err := a.Graph(prog)
	if err != nil {
		return err
	}
	return g.WriteDot(p.out)
}

func (p pipeline) render(a analysis.Analysis, prog *ir.Program) error {
	g, err := a.Graph(prog)
	if err != nil {
		return err
	}

	path := opts.Output()
	if p.multi {
		path = outputPath(path, a.Name(), prog.Name)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return dot.Render(f, opts.OutputFormat(), g)
}

// outputPath inserts the analysis and program names before the extension
// of path, e.g. cfg.svg becomes cfg.WCDA.main.svg.
func outputPath(path, name, prog string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	prog = strings.NewReplacer("/", "_", "$", "_").Replace(prog)
	return base + "." + name + "." + prog + ext
}
