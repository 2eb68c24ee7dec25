// Package ir models the register-based intermediate representation consumed
// by the dataflow analyses: programs are sequences of basic blocks holding
// instructions over symbolic registers, immediates and references.
package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies the operation performed by an instruction.
type Opcode int

const (
	Branch Opcode = iota
	BranchZ
	Return
	Store
	Load
	Call
	Add
	Sub
	Mul
	Div
	Equal
	NotEqual
	Less
	LessEqual
)

var mnemonics = [...]string{
	Branch:    "br",
	BranchZ:   "brz",
	Return:    "ret",
	Store:     "store",
	Load:      "load",
	Call:      "call",
	Add:       "add",
	Sub:       "sub",
	Mul:       "mul",
	Div:       "div",
	Equal:     "eq",
	NotEqual:  "ne",
	Less:      "lt",
	LessEqual: "le",
}

func (o Opcode) String() string {
	if o < 0 || int(o) >= len(mnemonics) {
		return "op(" + strconv.Itoa(int(o)) + ")"
	}
	return mnemonics[o]
}

// OpcodeOf returns the opcode with the given mnemonic.
func OpcodeOf(mnemonic string) (Opcode, bool) {
	for op, m := range mnemonics {
		if m == mnemonic {
			return Opcode(op), true
		}
	}
	return 0, false
}

// IsBinary holds for the arithmetic and relational opcodes.
func (o Opcode) IsBinary() bool {
	return o >= Add && o <= LessEqual
}

// IsComparison holds for the relational opcodes, which produce 0 or 1.
func (o Opcode) IsComparison() bool {
	return o >= Equal && o <= LessEqual
}

// OperandKind tags the payload of an operand.
type OperandKind int

const (
	Register OperandKind = iota
	Immediate
	FramePointer
	BlockRef
	FunctionRef
	Unknown
)

func (k OperandKind) String() string {
	switch k {
	case Register:
		return "register"
	case Immediate:
		return "immediate"
	case FramePointer:
		return "frame pointer"
	case BlockRef:
		return "block"
	case FunctionRef:
		return "function"
	}
	return "unknown"
}

// Operand is a tagged instruction argument. Value holds the register index,
// the immediate value or the referenced block index, depending on Kind.
// Name is only set for function references.
type Operand struct {
	Kind  OperandKind
	Value int
	Name  string
}

// Reg creates a register operand.
func Reg(idx int) Operand {
	return Operand{Kind: Register, Value: idx}
}

// Imm creates an immediate operand.
func Imm(v int) Operand {
	return Operand{Kind: Immediate, Value: v}
}

// FP creates a frame pointer operand.
func FP() Operand {
	return Operand{Kind: FramePointer}
}

// BB creates a reference to the block with the given index.
func BB(idx int) Operand {
	return Operand{Kind: BlockRef, Value: idx}
}

// Fun creates a reference to the named function.
func Fun(name string) Operand {
	return Operand{Kind: FunctionRef, Name: name}
}

// IsData holds for operands that denote a data value when read.
func (o Operand) IsData() bool {
	switch o.Kind {
	case Register, Immediate, FramePointer:
		return true
	}
	return false
}

func (o Operand) String() string {
	switch o.Kind {
	case Register:
		return "r" + strconv.Itoa(o.Value)
	case Immediate:
		return strconv.Itoa(o.Value)
	case FramePointer:
		return "fp"
	case BlockRef:
		return "bb" + strconv.Itoa(o.Value)
	case FunctionRef:
		return "@" + o.Name
	}
	return "?"
}

// Instruction is an opcode applied to an ordered operand list.
type Instruction struct {
	Op  Opcode
	Ops []Operand
}

// Instr is shorthand for building an instruction.
func Instr(op Opcode, ops ...Operand) Instruction {
	return Instruction{Op: op, Ops: ops}
}

func (i Instruction) String() string {
	if len(i.Ops) == 0 {
		return i.Op.String()
	}
	strs := make([]string, len(i.Ops))
	for j, op := range i.Ops {
		strs[j] = op.String()
	}
	return i.Op.String() + " " + strings.Join(strs, ", ")
}

// Target returns the block index a branch instruction jumps to.
func (i Instruction) Target() (int, bool) {
	switch i.Op {
	case Branch:
		if len(i.Ops) == 1 && i.Ops[0].Kind == BlockRef {
			return i.Ops[0].Value, true
		}
	case BranchZ:
		if len(i.Ops) == 2 && i.Ops[1].Kind == BlockRef {
			return i.Ops[1].Value, true
		}
	}
	return 0, false
}

// EdgeKind labels a control-flow edge.
type EdgeKind int

const (
	FallThrough EdgeKind = iota
	BranchTaken
)

func (k EdgeKind) String() string {
	if k == BranchTaken {
		return "branch-taken"
	}
	return "fall-through"
}

// Pred is a predecessor of a block, together with the kind of the edge.
type Pred struct {
	Block int
	Kind  EdgeKind
}

// Block is a basic block. The entry block of a program has index 0.
type Block struct {
	Index  int
	Instrs []Instruction
	Preds  []Pred
}

func (b *Block) String() string {
	return "bb" + strconv.Itoa(b.Index)
}

// Program is a control-flow graph of basic blocks, stored in index order.
type Program struct {
	Name   string
	Blocks []*Block
}

// Successors computes the outgoing edges of every block from the predecessor
// lists. The edges of each block are ordered by successor index.
func (p *Program) Successors() [][]Pred {
	succs := make([][]Pred, len(p.Blocks))
	for _, b := range p.Blocks {
		for _, pred := range b.Preds {
			succs[pred.Block] = append(succs[pred.Block], Pred{Block: b.Index, Kind: pred.Kind})
		}
	}
	return succs
}

// Registers returns the number of distinct registers mentioned in the program.
func (p *Program) Registers() int {
	seen := make(map[int]struct{})
	for _, b := range p.Blocks {
		for _, i := range b.Instrs {
			for _, op := range i.Ops {
				if op.Kind == Register {
					seen[op.Value] = struct{}{}
				}
			}
		}
	}
	return len(seen)
}

// Position identifies an instruction within a program.
type Position struct {
	Block, Instr int
}

func (p Position) String() string {
	return fmt.Sprintf("bb%d:%d", p.Block, p.Instr)
}
