package ir

import "fmt"

// MalformedError describes an instruction or block that violates the
// structural contract of the IR.
type MalformedError struct {
	Pos    Position
	Instr  *Instruction
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Instr == nil {
		return fmt.Sprintf("bb%d: %s", e.Pos.Block, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Instr, e.Reason)
}

// operandRole describes what an instruction expects at an operand position.
type operandRole int

const (
	roleData operandRole = iota
	roleDest
	roleBlock
	roleFunction
)

// shape is the fixed operand layout of an opcode. Variadic shapes repeat
// their last role at least min-len(roles)+1 times.
type shape struct {
	roles    []operandRole
	min, max int
}

var (
	binaryShape = shape{roles: []operandRole{roleDest, roleData, roleData}, min: 3, max: 3}

	shapes = map[Opcode]shape{
		Branch:    {roles: []operandRole{roleBlock}, min: 1, max: 1},
		BranchZ:   {roles: []operandRole{roleData, roleBlock}, min: 2, max: 2},
		Return:    {roles: []operandRole{roleData}, min: 0, max: 1},
		Store:     {roles: []operandRole{roleData, roleData, roleData}, min: 3, max: 3},
		Load:      {roles: []operandRole{roleDest, roleData, roleData}, min: 3, max: 3},
		Call:      {roles: []operandRole{roleFunction, roleDest, roleData}, min: 3, max: -1},
		Add:       binaryShape,
		Sub:       binaryShape,
		Mul:       binaryShape,
		Div:       binaryShape,
		Equal:     binaryShape,
		NotEqual:  binaryShape,
		Less:      binaryShape,
		LessEqual: binaryShape,
	}
)

// Validate checks block numbering, predecessor references, instruction
// arities and operand kinds. It returns the first violation found as a
// *MalformedError.
func (p *Program) Validate() error {
	for i, b := range p.Blocks {
		if b == nil || b.Index != i {
			return &MalformedError{Pos: Position{Block: i}, Reason: "block index does not match its position"}
		}
		for _, pred := range b.Preds {
			if pred.Block < 0 || pred.Block >= len(p.Blocks) {
				return &MalformedError{
					Pos:    Position{Block: i},
					Reason: fmt.Sprintf("predecessor bb%d does not exist", pred.Block),
				}
			}
		}
		for j := range b.Instrs {
			if err := p.validateInstr(Position{Block: i, Instr: j}, &b.Instrs[j]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Program) validateInstr(pos Position, instr *Instruction) error {
	fail := func(format string, args ...interface{}) error {
		return &MalformedError{Pos: pos, Instr: instr, Reason: fmt.Sprintf(format, args...)}
	}

	sh, ok := shapes[instr.Op]
	if !ok {
		return fail("unknown opcode")
	}
	n := len(instr.Ops)
	if n < sh.min || (sh.max >= 0 && n > sh.max) {
		if sh.max < 0 {
			return fail("%s expects at least %d operands, got %d", instr.Op, sh.min, n)
		}
		if sh.min == sh.max {
			return fail("%s expects %d operands, got %d", instr.Op, sh.min, n)
		}
		return fail("%s expects %d to %d operands, got %d", instr.Op, sh.min, sh.max, n)
	}

	for k, op := range instr.Ops {
		role := sh.roles[len(sh.roles)-1]
		if k < len(sh.roles) {
			role = sh.roles[k]
		}

		switch role {
		case roleData:
			if !op.IsData() {
				return fail("operand %d (%s) is not a data value", k, op.Kind)
			}
			if op.Kind == Register && op.Value < 0 {
				return fail("negative register index %d", op.Value)
			}
		case roleDest:
			if op.Kind != Register {
				return fail("operand %d (%s) is not a register", k, op.Kind)
			}
			if op.Value < 0 {
				return fail("negative register index %d", op.Value)
			}
		case roleBlock:
			if op.Kind != BlockRef {
				return fail("operand %d (%s) is not a block", k, op.Kind)
			}
			if op.Value < 0 || op.Value >= len(p.Blocks) {
				return fail("branch target bb%d does not exist", op.Value)
			}
		case roleFunction:
			if op.Kind != FunctionRef {
				return fail("operand %d (%s) is not a function", k, op.Kind)
			}
		}
	}
	return nil
}
