package constdead

import (
	"errors"

	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/dataflow"
	"github.com/cs-au-dk/regflow/analysis/ir"
	L "github.com/cs-au-dk/regflow/analysis/lattice"
)

func read(regs L.RegisterMap[L.Constant], op ir.Operand) L.Constant {
	return dataflow.Read(regs, op, L.Const, L.ConstBot())
}

// transfer interprets a single instruction.
//
// Once both reachability flags are DEAD they stay DEAD for the rest of the
// block: a terminator in dead code cannot make its targets reachable.
// Registers are folded regardless.
func (a *Analysis) transfer(b *ir.Block, instr *ir.Instruction, in State) (State, error) {
	out := in
	live := in.Live()

	switch instr.Op {
	case ir.Branch:
		if live {
			out.Reach = L.Reachability{FallThrough: L.Dead, Taken: L.Reachable}
		}
	case ir.BranchZ:
		if !live {
			break
		}
		if v, ok := read(in.Regs, instr.Ops[0]).Value(); ok {
			out.Reach = L.Reachability{
				FallThrough: L.Liveness(v != 0),
				Taken:       L.Liveness(v == 0),
			}
		} else {
			out.Reach = L.Reachability{FallThrough: L.Reachable, Taken: L.Reachable}
		}
	case ir.Return:
		out.Reach = L.Unreachable()
	case ir.Store:
	case ir.Load:
		out.Regs = dataflow.Write(in.Regs, instr.Ops[0], L.ConstBot())
	case ir.Call:
		out.Regs = dataflow.Write(in.Regs, instr.Ops[1], L.ConstBot())
	default:
		if !instr.Op.IsBinary() {
			dataflow.Violate("unsupported opcode %s", instr.Op)
		}

		x := read(in.Regs, instr.Ops[1])
		y := read(in.Regs, instr.Ops[2])
		res, err := fold(instr.Op, x, y)
		if errors.Is(err, L.ErrDivisionByZero) && (!live || a.cfg.DivisionByZero == config.DivZeroBottom) {
			if live {
				a.log.Warnf("%s: %s: %s: division by zero, result is ⊥", a.Name(), b, instr)
			}
			res, err = L.ConstBot(), nil
		}
		if err != nil {
			return in, err
		}
		out.Regs = dataflow.Write(in.Regs, instr.Ops[0], res)
	}

	return out, nil
}

// fold evaluates a binary operation over constants. The result is ⊥ unless
// both operands are known. Division truncates towards zero and comparisons
// yield 0 or 1.
func fold(op ir.Opcode, a, b L.Constant) (L.Constant, error) {
	x, xok := a.Value()
	y, yok := b.Value()
	if !xok || !yok {
		return L.ConstBot(), nil
	}

	switch op {
	case ir.Add:
		return L.Const(x + y), nil
	case ir.Sub:
		return L.Const(x - y), nil
	case ir.Mul:
		return L.Const(x * y), nil
	case ir.Div:
		if y == 0 {
			return L.ConstBot(), L.ErrDivisionByZero
		}
		return L.Const(x / y), nil
	case ir.Equal:
		return L.Bool(x == y), nil
	case ir.NotEqual:
		return L.Bool(x != y), nil
	case ir.Less:
		return L.Bool(x < y), nil
	case ir.LessEqual:
		return L.Bool(x <= y), nil
	}

	dataflow.Violate("%s is not a binary operation", op)
	return L.ConstBot(), nil
}

// join merges predecessor exit states. Only the predecessors that reach the
// block contribute, so the block is live iff there is at least one state.
func join(states []State) State {
	res := emptyState()
	for _, s := range states {
		res.Regs = res.Regs.Join(s.Regs)
	}
	if len(states) > 0 {
		res.Reach.FallThrough = L.Reachable
	}
	return res
}

// flows lets an exit state through an edge whose flag is REACHABLE.
func flows(out State, kind ir.EdgeKind) bool {
	if kind == ir.BranchTaken {
		return bool(out.Reach.Taken)
	}
	return bool(out.Reach.FallThrough)
}

// root makes the entry block live.
func root(in State) State {
	in.Reach.FallThrough = L.Reachable
	return in
}
