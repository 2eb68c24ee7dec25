// Package valuerange implements the value range analysis, which bounds the
// integer value of every register by an interval.
package valuerange

import (
	"io"

	"github.com/cs-au-dk/regflow/analysis/cfg"
	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/dataflow"
	"github.com/cs-au-dk/regflow/analysis/ir"
	L "github.com/cs-au-dk/regflow/analysis/lattice"
	"github.com/cs-au-dk/regflow/analysis/report"
	"github.com/cs-au-dk/regflow/utils/dot"
)

// Name identifies the analysis on the command line and in config files.
const Name = "WVRA"

// State maps registers to the interval of values they may hold.
type State = L.RegisterMap[L.Range]

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
		Empty:    L.NewRegisterMap[L.Range],
		Transfer: a.transfer,
		Join:     join,
		Eq:       State.Eq,
		Widen:    widen,
	}, dataflow.OptionsFrom(cfg), log)
	return a
}

func (a *Analysis) Name() string {
	return Name
}

func (a *Analysis) Description() string {
	return "interval analysis of register values"
}

// Analyze computes the fixpoint for a program.
func (a *Analysis) Analyze(p *ir.Program) (*dataflow.Result[State], error) {
	if loops := cfg.Loops(p); len(loops) > 0 {
		a.log.Debugf("%s: %s: widening %d loops %v", a.Name(), p.Name, len(loops), loops)
	}
	return a.engine.Analyze(p)
}

// Run analyzes the program and dumps the state of every block to w.
func (a *Analysis) Run(p *ir.Program, w io.Writer) error {
	res, err := a.Analyze(p)
	if err != nil {
		return err
	}
	return report.Dump(w, res, a.cfg.DumpEntry)
}

// Graph analyzes the program and renders its control-flow graph.
func (a *Analysis) Graph(p *ir.Program) (*dot.DotGraph, error) {
	res, err := a.Analyze(p)
	if err != nil {
		return nil, err
	}
	return report.Graph[State](res, a.Name()+": "+p.Name, nil), nil
}
