// Package dataflow implements a generic monotone fixpoint engine over the
// blocks of an ir.Program. Analyses describe themselves with a Problem and
// the engine computes the entry and exit state of every block.
package dataflow

import (
	"fmt"
	"strings"

	"github.com/cs-au-dk/regflow/analysis/ir"
)

// Problem is the set of capabilities an analysis hands to the engine.
// Empty, Transfer, Join and Eq are mandatory.
type Problem[S any] struct {
	// Empty is the state of every block before the first pass. It is also
	// the entry state of blocks without contributing predecessors.
	Empty func() S
	// Transfer computes the state after instr from the state before it.
	Transfer func(block *ir.Block, instr *ir.Instruction, in S) (S, error)
	// Join merges the exit states of the contributing predecessors.
	Join func(states []S) S
	// Flows decides whether the exit state of a predecessor contributes to
	// its successor along an edge of the given kind. Optional: when nil,
	// every predecessor contributes.
	Flows func(out S, kind ir.EdgeKind) bool
	// Root adjusts the joined entry state of the entry block. Optional.
	Root func(in S) S
	// Eq decides when a state has stopped changing.
	Eq func(a, b S) bool
	// Widen extrapolates the entry state of a loop head from its previous
	// value. Optional: analyses over finite-height lattices leave it nil.
	Widen func(prev, next S) S
}

func (p *Problem[S]) validate() error {
	var missing []string
	if p.Empty == nil {
		missing = append(missing, "Empty")
	}
	if p.Transfer == nil {
		missing = append(missing, "Transfer")
	}
	if p.Join == nil {
		missing = append(missing, "Join")
	}
	if p.Eq == nil {
		missing = append(missing, "Eq")
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete dataflow problem: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
