package constdead

import (
	L "github.com/cs-au-dk/regflow/analysis/lattice"
)

// State is the abstract state at a program point: the constant value of
// every register and whether the outgoing edges of the block may be taken.
type State struct {
	Regs  L.RegisterMap[L.Constant]
	Reach L.Reachability
}

func emptyState() State {
	return State{
		Regs:  L.NewRegisterMap[L.Constant](),
		Reach: L.Unreachable(),
	}
}

// Eq checks that both states bind the same constants and flags.
func (s State) Eq(o State) bool {
	return s.Reach == o.Reach && s.Regs.Eq(o.Regs)
}

// Live holds when the block containing the program point may execute.
func (s State) Live() bool {
	return !s.Reach.IsDead()
}

func (s State) String() string {
	return s.Regs.String() + "  Reachability:  " + s.Reach.String()
}
