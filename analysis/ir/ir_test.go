package ir

import (
	"errors"
	"testing"
)

func TestBuilderEdges(t *testing.T) {
	b := NewBuilder("loop")
	entry, head, body, exit := b.NewBlock(), b.NewBlock(), b.NewBlock(), b.NewBlock()
	b.Emit(entry, Instr(Add, Reg(0), Imm(0), Imm(0)))
	b.Emit(head, Instr(Less, Reg(1), Reg(0), Imm(10)), Instr(BranchZ, Reg(1), BB(exit)))
	b.Emit(body, Instr(Add, Reg(0), Reg(0), Imm(1)), Instr(Branch, BB(head)))
	b.Emit(exit, Instr(Return, Reg(0)))
	p := b.Build()

	tests := []struct {
		block int
		preds []Pred
	}{
		{entry, nil},
		{head, []Pred{{entry, FallThrough}, {body, BranchTaken}}},
		{body, []Pred{{head, FallThrough}}},
		{exit, []Pred{{head, BranchTaken}}},
	}
	for _, test := range tests {
		preds := p.Blocks[test.block].Preds
		if len(preds) != len(test.preds) {
			t.Errorf("bb%d: predecessors %v, expected %v", test.block, preds, test.preds)
			continue
		}
		for i := range preds {
			if preds[i] != test.preds[i] {
				t.Errorf("bb%d: predecessors %v, expected %v", test.block, preds, test.preds)
				break
			}
		}
	}

	succs := p.Successors()
	if len(succs[head]) != 2 || succs[head][0].Block != body || succs[head][1].Block != exit {
		t.Errorf("Unexpected successors of the loop head: %v", succs[head])
	}
	if p.Registers() != 2 {
		t.Errorf("Expected 2 registers, got %d", p.Registers())
	}
	if err := p.Validate(); err != nil {
		t.Error(err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		instr Instruction
	}{
		{"binary arity", Instr(Add, Reg(0), Imm(1))},
		{"binary destination", Instr(Mul, Imm(0), Imm(1), Imm(2))},
		{"branch target kind", Instr(Branch, Reg(0))},
		{"branch target range", Instr(Branch, BB(5))},
		{"brz condition", Instr(BranchZ, BB(0), BB(0))},
		{"call callee", Instr(Call, Reg(0), Reg(1), Imm(2))},
		{"call arguments", Instr(Call, Fun("f"), Reg(1))},
		{"store value", Instr(Store, FP(), Imm(0), Fun("g"))},
		{"ret arity", Instr(Return, Reg(0), Reg(1))},
		{"unknown operand", Instr(Sub, Reg(0), Operand{Kind: Unknown}, Imm(1))},
		{"negative register", Instr(Load, Reg(-1), FP(), Imm(0))},
	}

	for _, test := range tests {
		b := NewBuilder(test.name)
		b.Emit(b.NewBlock(), test.instr)
		err := b.Build().Validate()

		var merr *MalformedError
		if !errors.As(err, &merr) {
			t.Errorf("%s: expected %s to be rejected, got %v", test.name, test.instr, err)
		}
	}

	b := NewBuilder("ok")
	blk := b.NewBlock()
	b.Emit(blk,
		Instr(Call, Fun("f"), Reg(0), FP(), Imm(1), Reg(2)),
		Instr(Store, FP(), Imm(8), Reg(0)),
		Instr(Return),
	)
	if err := b.Build().Validate(); err != nil {
		t.Errorf("Unexpected error %v", err)
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		instr    Instruction
		expected string
	}{
		{Instr(BranchZ, Reg(3), BB(2)), "brz r3, bb2"},
		{Instr(Call, Fun("f"), Reg(0), FP(), Imm(-1)), "call @f, r0, fp, -1"},
		{Instr(Return), "ret"},
	}

	for _, test := range tests {
		if s := test.instr.String(); s != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, s)
		}
	}
}

func TestOpcodeClasses(t *testing.T) {
	for op := Branch; op <= LessEqual; op++ {
		binary := op >= Add
		comparison := op == Equal || op == NotEqual || op == Less || op == LessEqual
		if op.IsBinary() != binary {
			t.Errorf("%s: IsBinary() = %v, expected %v", op, op.IsBinary(), binary)
		}
		if op.IsComparison() != comparison {
			t.Errorf("%s: IsComparison() = %v, expected %v", op, op.IsComparison(), comparison)
		}
	}
}
