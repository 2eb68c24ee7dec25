package valuerange

import (
	"errors"

	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/dataflow"
	"github.com/cs-au-dk/regflow/analysis/ir"
	L "github.com/cs-au-dk/regflow/analysis/lattice"
)

func read(regs State, op ir.Operand) L.Range {
	return dataflow.Read(regs, op, L.Point, L.RangeBot())
}

var relations = map[ir.Opcode]L.Relation{
	ir.Equal:     L.RelEq,
	ir.NotEqual:  L.RelNe,
	ir.Less:      L.RelLt,
	ir.LessEqual: L.RelLe,
}

// transfer interprets a single instruction. Control flow and stores leave
// the registers untouched.
func (a *Analysis) transfer(b *ir.Block, instr *ir.Instruction, in State) (State, error) {
	switch instr.Op {
	case ir.Branch, ir.BranchZ, ir.Return, ir.Store:
		return in, nil
	case ir.Load:
		return dataflow.Write(in, instr.Ops[0], L.RangeBot()), nil
	case ir.Call:
		return dataflow.Write(in, instr.Ops[1], L.RangeBot()), nil
	}

	x := read(in, instr.Ops[1])
	y := read(in, instr.Ops[2])

	var res L.Range
	switch instr.Op {
	case ir.Add:
		res = L.AddRange(x, y)
	case ir.Sub:
		res = L.SubRange(x, y)
	case ir.Mul:
		res = L.MulRange(x, y)
	case ir.Div:
		var err error
		res, err = L.DivRange(x, y)
		if errors.Is(err, L.ErrDivisionByZero) && a.cfg.DivisionByZero == config.DivZeroBottom {
			a.log.Warnf("%s: %s: %s: division by zero, result is ⊥", a.Name(), b, instr)
			res, err = L.RangeBot(), nil
		}
		if err != nil {
			return in, err
		}
	default:
		rel, ok := relations[instr.Op]
		if !ok {
			dataflow.Violate("unsupported opcode %s", instr.Op)
		}
		res = L.CompareRange(rel, x, y)
	}

	return dataflow.Write(in, instr.Ops[0], res), nil
}

// join merges the exit states of all predecessors.
func join(states []State) State {
	res := L.NewRegisterMap[L.Range]()
	for _, s := range states {
		res = res.Join(s)
	}
	return res
}

// widen applies interval widening register-wise. Registers missing from
// either state are ⊤ there.
func widen(prev, next State) State {
	res := prev
	next.ForEach(func(reg int, r L.Range) {
		old, found := prev.Get(reg)
		if !found {
			old = L.RangeTop()
		}
		if w := old.Widen(r); !found || w != old {
			res = res.Set(reg, w)
		}
	})
	return res
}
