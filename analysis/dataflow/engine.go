package dataflow

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/regflow/analysis/cfg"
	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/utils/worklist"
)

// Options tune the fixpoint iteration.
type Options struct {
	// Strategy is config.StrategyPasses (also used when empty) or
	// config.StrategyWorklist.
	Strategy string
	// WideningDelay is the number of entry changes of a loop head before
	// Problem.Widen is applied to it.
	WideningDelay int
}

// OptionsFrom extracts the engine options from a config.
func OptionsFrom(c *config.Config) Options {
	return Options{
		Strategy:      c.Strategy,
		WideningDelay: c.WideningDelay,
	}
}

// Stats summarizes the work performed to reach the fixpoint.
type Stats struct {
	// Passes is the number of full passes over the blocks. Only counted by
	// the passes strategy.
	Passes int
	// Visits is the number of times a block was (re)analyzed.
	Visits int
	// Transfers is the number of transfer function applications.
	Transfers int
	// Widenings is the number of times an entry state was widened.
	Widenings int
	// EntryChanges counts, per block, how often the entry state changed.
	EntryChanges []int
}

// Result holds the entry and exit state of every block at the fixpoint.
type Result[S any] struct {
	Program *ir.Program
	In, Out []S
	Stats   Stats
}

// Engine computes fixpoints of a Problem. An engine may be reused for
// several programs, but not concurrently.
type Engine[S any] struct {
	problem Problem[S]
	opts    Options
	log     *config.LogGroup
}

// NewEngine creates an engine for the given problem.
func NewEngine[S any](problem Problem[S], opts Options, log *config.LogGroup) *Engine[S] {
	if log == nil {
		log = config.Discard()
	}
	return &Engine[S]{problem: problem, opts: opts, log: log}
}

// run is the state of a single fixpoint computation.
type run[S any] struct {
	*Engine[S]
	prog  *ir.Program
	in    []S
	out   []S
	succs [][]ir.Pred
	heads []bool
	stats Stats
	// Position of the instruction being transferred.
	at ir.Position
}

// Analyze computes the fixpoint for a program.
//
// Malformed programs are rejected with a *ContractViolation before any
// state is computed. An error returned by a transfer function aborts the
// analysis and is reported as a *TransferError wrapping it.
func (e *Engine[S]) Analyze(prog *ir.Program) (res *Result[S], err error) {
	if err := e.problem.validate(); err != nil {
		return nil, err
	}
	if err := prog.Validate(); err != nil {
		var merr *ir.MalformedError
		if errors.As(err, &merr) {
			return nil, fromMalformed(merr)
		}
		return nil, err
	}

	r := e.newRun(prog)

	defer func() {
		if x := recover(); x != nil {
			cv, ok := x.(*ContractViolation)
			if !ok {
				panic(x)
			}
			cv.Pos = r.at
			if instrs := prog.Blocks[r.at.Block].Instrs; r.at.Instr < len(instrs) {
				cv.Instr = &instrs[r.at.Instr]
			}
			res, err = nil, cv
		}
	}()

	switch e.opts.Strategy {
	case config.StrategyPasses, "":
		err = r.iteratePasses()
	case config.StrategyWorklist:
		err = r.iterateWorklist()
	default:
		err = fmt.Errorf("unknown fixpoint strategy %q", e.opts.Strategy)
	}
	if err != nil {
		return nil, err
	}

	e.log.Debugf("%s: fixpoint reached after %d passes, %d visits, %d transfers, %d widenings",
		prog.Name, r.stats.Passes, r.stats.Visits, r.stats.Transfers, r.stats.Widenings)

	return &Result[S]{
		Program: prog,
		In:      r.in,
		Out:     r.out,
		Stats:   r.stats,
	}, nil
}

func (e *Engine[S]) newRun(prog *ir.Program) *run[S] {
	n := len(prog.Blocks)
	r := &run[S]{
		Engine: e,
		prog:   prog,
		in:     make([]S, n),
		out:    make([]S, n),
		succs:  prog.Successors(),
		stats:  Stats{EntryChanges: make([]int, n)},
	}
	for i := 0; i < n; i++ {
		r.in[i] = e.problem.Empty()
		r.out[i] = e.problem.Empty()
	}
	if e.problem.Widen != nil {
		r.heads = cfg.LoopHeads(prog)
	}
	return r
}

// iteratePasses visits every block in order until a pass changes nothing.
func (r *run[S]) iteratePasses() error {
	for {
		r.stats.Passes++
		changed := false
		for _, b := range r.prog.Blocks {
			c, err := r.visit(b)
			if err != nil {
				return err
			}
			changed = changed || c
		}
		if !changed {
			return nil
		}
	}
}

// iterateWorklist starts from every block in order and revisits the
// successors of blocks whose exit state changed.
func (r *run[S]) iterateWorklist() (err error) {
	start := make([]int, len(r.prog.Blocks))
	for i := range start {
		start[i] = i
	}

	worklist.StartUnique(start, func(b int, add func(int)) {
		if err != nil {
			return
		}
		var changed bool
		if changed, err = r.visit(r.prog.Blocks[b]); err != nil || !changed {
			return
		}
		for _, s := range r.succs[b] {
			add(s.Block)
		}
	})
	return err
}

// visit recomputes the entry and exit state of a block and reports whether
// the exit state changed.
func (r *run[S]) visit(b *ir.Block) (bool, error) {
	r.stats.Visits++

	in := r.joinOverPredecessors(b)
	if r.heads != nil && r.heads[b.Index] && r.stats.EntryChanges[b.Index] >= r.opts.WideningDelay {
		widened := r.problem.Widen(r.in[b.Index], in)
		if !r.problem.Eq(widened, in) {
			r.stats.Widenings++
		}
		in = widened
	}
	if !r.problem.Eq(in, r.in[b.Index]) {
		r.in[b.Index] = in
		r.stats.EntryChanges[b.Index]++
	}

	out := in
	for i := range b.Instrs {
		r.at = ir.Position{Block: b.Index, Instr: i}
		next, err := r.problem.Transfer(b, &b.Instrs[i], out)
		r.stats.Transfers++
		if err != nil {
			return false, &TransferError{Pos: r.at, Instr: b.Instrs[i], Err: err}
		}
		out = next
	}

	if r.problem.Eq(out, r.out[b.Index]) {
		return false, nil
	}
	r.out[b.Index] = out
	r.log.Tracef("%s: %s: %v", r.prog.Name, b, out)
	return true, nil
}

// joinOverPredecessors joins the exit states of the predecessors whose edge
// lets state flow into b. The entry block is adjusted with Problem.Root.
func (r *run[S]) joinOverPredecessors(b *ir.Block) S {
	var states []S
	for _, pred := range b.Preds {
		out := r.out[pred.Block]
		if r.problem.Flows == nil || r.problem.Flows(out, pred.Kind) {
			states = append(states, out)
		}
	}

	in := r.problem.Join(states)
	if b.Index == 0 && r.problem.Root != nil {
		in = r.problem.Root(in)
	}
	return in
}
