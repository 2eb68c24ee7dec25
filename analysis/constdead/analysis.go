// Package constdead implements the constant and dead code analysis: every
// register is mapped to the constant it is known to hold, and conditional
// branches over known constants mark the edges that can never be taken.
// Blocks that are only entered through such edges are dead, and do not
// contribute to the state of their successors.
package constdead

import (
	"io"

	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/dataflow"
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/analysis/report"
	"github.com/cs-au-dk/regflow/utils/dot"
)

// Name identifies the analysis on the command line and in config files.
const Name = "WCDA"

type Analysis struct {
	cfg    *config.Config
	log    *config.LogGroup
	engine *dataflow.Engine[State]
}

// New creates the analysis. A nil log discards all messages.
func New(cfg *config.Config, log *config.LogGroup) *Analysis {
	if log == nil {
		log = config.Discard()
	}
	a := &Analysis{cfg: cfg, log: log}
	a.engine = dataflow.NewEngine(dataflow.Problem[State]{
		Empty:    emptyState,
		Transfer: a.transfer,
		Join:     join,
		Flows:    flows,
		Root:     root,
		Eq:       State.Eq,
	}, dataflow.OptionsFrom(cfg), log)
	return a
}

func (a *Analysis) Name() string {
	return Name
}

func (a *Analysis) Description() string {
	return "constant propagation with dead code detection"
}

// Analyze computes the fixpoint for a program.
func (a *Analysis) Analyze(p *ir.Program) (*dataflow.Result[State], error) {
	return a.engine.Analyze(p)
}

// Run analyzes the program and dumps the state of every block to w.
func (a *Analysis) Run(p *ir.Program, w io.Writer) error {
	res, err := a.Analyze(p)
	if err != nil {
		return err
	}
	if dead := DeadBlocks(res); len(dead) > 0 {
		a.log.Infof("%s: %s: dead blocks %v", a.Name(), p.Name, dead)
	}
	return report.Dump(w, res, a.cfg.DumpEntry)
}

// Graph analyzes the program and renders its control-flow graph, greying
// out the edges that are never taken.
func (a *Analysis) Graph(p *ir.Program) (*dot.DotGraph, error) {
	res, err := a.Analyze(p)
	if err != nil {
		return nil, err
	}
	return report.Graph(res, a.Name()+": "+p.Name, flows), nil
}

// DeadBlocks lists the blocks that can never execute.
func DeadBlocks(res *dataflow.Result[State]) []int {
	var dead []int
	for i, in := range res.In {
		if !in.Live() {
			dead = append(dead, i)
		}
	}
	return dead
}
