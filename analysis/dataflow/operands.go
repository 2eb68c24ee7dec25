package dataflow

import (
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/analysis/lattice"
)

// Read evaluates a data operand against a register map. Registers that
// have not been written and the frame pointer read as bot; immediates are
// abstracted with imm.
func Read[E lattice.Element[E]](regs lattice.RegisterMap[E], op ir.Operand, imm func(int) E, bot E) E {
	switch op.Kind {
	case ir.Register:
		if e, found := regs.Get(op.Value); found {
			return e
		}
		return bot
	case ir.Immediate:
		return imm(op.Value)
	case ir.FramePointer:
		return bot
	}
	Violate("operand %s (%s) is not a data value", op, op.Kind)
	return bot
}

// Write binds the register denoted by op to e.
func Write[E lattice.Element[E]](regs lattice.RegisterMap[E], op ir.Operand, e E) lattice.RegisterMap[E] {
	if op.Kind != ir.Register {
		Violate("operand %s (%s) is not a register", op, op.Kind)
	}
	return regs.Set(op.Value, e)
}

// Dest returns the destination operand of instructions that write a
// register, i.e. load, call and the binary operations.
func Dest(instr *ir.Instruction) (ir.Operand, bool) {
	switch {
	case instr.Op == ir.Load, instr.Op.IsBinary():
		return instr.Ops[0], true
	case instr.Op == ir.Call:
		return instr.Ops[1], true
	}
	return ir.Operand{}, false
}
