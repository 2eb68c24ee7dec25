// Package upfront lowers Go functions in SSA form to register programs, so
// that the dataflow analyses can be run on real Go code.
package upfront

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"

	"github.com/cs-au-dk/regflow/analysis/ir"

	uf "github.com/spakin/disjoint"
	"golang.org/x/tools/go/ssa"
)

var sizes = types.SizesFor("gc", "amd64")

var binops = map[token.Token]ir.Opcode{
	token.ADD: ir.Add,
	token.SUB: ir.Sub,
	token.MUL: ir.Mul,
	token.QUO: ir.Div,
	token.EQL: ir.Equal,
	token.NEQ: ir.NotEqual,
	token.LSS: ir.Less,
	token.LEQ: ir.LessEqual,
	// Operands are swapped.
	token.GTR: ir.Less,
	token.GEQ: ir.LessEqual,
}

// lowering is the state of the translation of a single function.
type lowering struct {
	fn   *ssa.Function
	bld  *ir.Builder
	sets map[ssa.Value]*uf.Element
	regs map[*uf.Element]int
	next int
	// Scratch registers for φ copies, allocated on demand after the value
	// registers.
	temps   []int
	discard int
}

// Lower translates a function to a register program. Block i of the program
// is block i of the function, followed by the blocks holding the φ copies
// of conditional edges. Integer and boolean values are assigned registers. Everything else
// is opaque and read through the frame pointer. Arithmetic on integer types
// narrower than int or unsigned is opaque as well, since it wraps at a
// different width.
func Lower(fn *ssa.Function) (*ir.Program, error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("%s has no body", fn)
	}

	l := &lowering{
		fn:      fn,
		bld:     ir.NewBuilder(fn.Name()),
		sets:    make(map[ssa.Value]*uf.Element),
		regs:    make(map[*uf.Element]int),
		discard: -1,
	}
	l.allocate()

	for range fn.Blocks {
		l.bld.NewBlock()
	}
	for _, b := range fn.Blocks {
		l.block(b)
	}

	p := l.bld.Build()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("lowering %s: %w", fn, err)
	}
	return p, nil
}

// isScalar holds for the types whose values are tracked in registers.
func isScalar(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&(types.IsInteger|types.IsBoolean) != 0
}

// exact holds for the integer types whose arithmetic cannot wrap before
// the machine integers of register programs do.
func exact(t types.Type) bool {
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsInteger != 0 && b.Info()&types.IsUnsigned == 0 &&
		sizes.Sizeof(b) >= sizes.Sizeof(types.Typ[types.Int])
}

// preserves holds when converting from one scalar type to another cannot
// change the value.
func preserves(from, to types.Type) bool {
	fb, ok1 := from.Underlying().(*types.Basic)
	tb, ok2 := to.Underlying().(*types.Basic)
	if !ok1 || !ok2 {
		return false
	}
	if fb.Info()&types.IsBoolean != 0 || tb.Info()&types.IsBoolean != 0 {
		return fb.Info()&tb.Info()&types.IsBoolean != 0
	}

	fs, ts := sizes.Sizeof(fb), sizes.Sizeof(tb)
	fu, tu := fb.Info()&types.IsUnsigned != 0, tb.Info()&types.IsUnsigned != 0
	switch {
	case fu == tu:
		return ts >= fs
	case fu:
		return ts > fs
	}
	return false
}

// converted returns the operand of a conversion.
func converted(v ssa.Value) (ssa.Value, bool) {
	switch v := v.(type) {
	case *ssa.Convert:
		return v.X, true
	case *ssa.ChangeType:
		return v.X, true
	}
	return nil, false
}

// allocate assigns registers to the scalar values of the function. Values
// related by a value-preserving conversion share a register.
func (l *lowering) allocate() {
	var order []ssa.Value
	add := func(v ssa.Value) {
		if !isScalar(v.Type()) {
			return
		}
		if _, found := l.sets[v]; !found {
			el := uf.NewElement()
			el.Data = v
			l.sets[v] = el
			order = append(order, v)
		}
	}

	for _, p := range l.fn.Params {
		add(p)
	}
	for _, fv := range l.fn.FreeVars {
		add(fv)
	}
	for _, b := range l.fn.Blocks {
		for _, instr := range b.Instrs {
			if v, ok := instr.(ssa.Value); ok {
				add(v)
			}
		}
	}

	for _, v := range order {
		x, ok := converted(v)
		if !ok {
			continue
		}
		if el, found := l.sets[x]; found && preserves(x.Type(), v.Type()) {
			uf.Union(l.sets[v], el)
		}
	}

	for _, v := range order {
		rep := l.sets[v].Find()
		if _, found := l.regs[rep]; !found {
			l.regs[rep] = l.next
			l.next++
		}
	}
}

func (l *lowering) reg(v ssa.Value) (int, bool) {
	el, found := l.sets[v]
	if !found {
		return 0, false
	}
	return l.regs[el.Find()], true
}

func (l *lowering) temp(i int) ir.Operand {
	for len(l.temps) <= i {
		l.temps = append(l.temps, l.next)
		l.next++
	}
	return ir.Reg(l.temps[i])
}

// sink is the destination of calls without a scalar result.
func (l *lowering) sink() ir.Operand {
	if l.discard < 0 {
		l.discard = l.next
		l.next++
	}
	return ir.Reg(l.discard)
}

// operand reads an SSA value. Constants that fit in an int are immediates;
// values without a register are opaque.
func (l *lowering) operand(v ssa.Value) ir.Operand {
	if c, ok := v.(*ssa.Const); ok {
		if c.Value != nil && isScalar(c.Type()) {
			switch c.Value.Kind() {
			case constant.Bool:
				if constant.BoolVal(c.Value) {
					return ir.Imm(1)
				}
				return ir.Imm(0)
			case constant.Int:
				if x, exact := constant.Int64Val(c.Value); exact {
					return ir.Imm(int(x))
				}
			}
		}
		return ir.FP()
	}
	if r, ok := l.reg(v); ok {
		return ir.Reg(r)
	}
	return ir.FP()
}

func (l *lowering) emit(b *ssa.BasicBlock, instrs ...ir.Instruction) {
	l.bld.Emit(b.Index, instrs...)
}

func (l *lowering) block(b *ssa.BasicBlock) {
	if b == l.fn.Blocks[0] {
		for _, p := range l.fn.Params {
			l.opaque(b, p)
		}
		for _, fv := range l.fn.FreeVars {
			l.opaque(b, fv)
		}
	}

	for _, instr := range b.Instrs {
		switch instr := instr.(type) {
		case *ssa.Jump:
			s := b.Succs[0]
			phis, vals := l.phiMoves(b, s, 0)
			l.phiCopies(b.Index, phis, vals)
			l.emit(b, ir.Instr(ir.Branch, ir.BB(s.Index)))
		case *ssa.If:
			then, els := b.Succs[0], b.Succs[1]
			nth := 0
			if then == els {
				nth = 1
			}
			l.emit(b, ir.Instr(ir.BranchZ, l.operand(instr.Cond), ir.BB(l.edge(b, els, nth))))
			l.bld.FallThroughTo(b.Index, l.edge(b, then, 0))
		case *ssa.Return:
			if len(instr.Results) > 0 && isScalar(instr.Results[0].Type()) {
				l.emit(b, ir.Instr(ir.Return, l.operand(instr.Results[0])))
			} else {
				l.emit(b, ir.Instr(ir.Return))
			}
		case *ssa.Panic:
			l.emit(b, ir.Instr(ir.Return))
		case *ssa.Phi:
			// Assigned at the end of the predecessors.
		case *ssa.Store:
			l.emit(b, ir.Instr(ir.Store, l.operand(instr.Val), ir.FP(), ir.Imm(0)))
		case *ssa.MapUpdate:
			l.emit(b, ir.Instr(ir.Store, l.operand(instr.Value), ir.FP(), ir.Imm(0)))
		case *ssa.Send:
			l.emit(b, ir.Instr(ir.Store, l.operand(instr.X), ir.FP(), ir.Imm(0)))
		case ssa.CallInstruction:
			l.call(b, instr)
		case ssa.Value:
			l.value(b, instr)
		}
	}
}

// opaque makes the register of v hold an unknown value.
func (l *lowering) opaque(b *ssa.BasicBlock, v ssa.Value) {
	if r, ok := l.reg(v); ok {
		l.emit(b, ir.Instr(ir.Load, ir.Reg(r), ir.FP(), ir.Imm(0)))
	}
}

func (l *lowering) call(b *ssa.BasicBlock, instr ssa.CallInstruction) {
	common := instr.Common()

	var name string
	switch {
	case common.StaticCallee() != nil:
		name = common.StaticCallee().Name()
	case common.IsInvoke():
		name = common.Method.Name()
	default:
		name = common.Value.Name()
	}

	var dst ir.Operand
	if r, ok := l.reg(instr.Value()); ok {
		dst = ir.Reg(r)
	} else {
		dst = l.sink()
	}

	ops := []ir.Operand{ir.Fun(name), dst, ir.FP()}
	for _, arg := range common.Args {
		ops = append(ops, l.operand(arg))
	}
	l.emit(b, ir.Instr(ir.Call, ops...))
}

func (l *lowering) value(b *ssa.BasicBlock, v ssa.Value) {
	r, ok := l.reg(v)
	if !ok {
		return
	}
	dst := ir.Reg(r)

	switch v := v.(type) {
	case *ssa.BinOp:
		// Comparisons are exact for every scalar type, since registers only
		// hold values representable in their type.
		if op, found := binops[v.Op]; found && (op.IsComparison() || exact(v.Type())) {
			x, y := l.operand(v.X), l.operand(v.Y)
			if v.Op == token.GTR || v.Op == token.GEQ {
				x, y = y, x
			}
			l.emit(b, ir.Instr(op, dst, x, y))
			return
		}
	case *ssa.UnOp:
		switch v.Op {
		case token.SUB:
			if !exact(v.Type()) {
				break
			}
			l.emit(b, ir.Instr(ir.Sub, dst, ir.Imm(0), l.operand(v.X)))
			return
		case token.NOT:
			l.emit(b, ir.Instr(ir.Equal, dst, l.operand(v.X), ir.Imm(0)))
			return
		}
	case *ssa.Convert, *ssa.ChangeType:
		x, _ := converted(v)
		if xr, ok := l.reg(x); ok && xr == r {
			return
		}
		if _, isConst := x.(*ssa.Const); isConst && preserves(x.Type(), v.Type()) {
			l.emit(b, ir.Instr(ir.Add, dst, l.operand(x), ir.Imm(0)))
			return
		}
	}

	l.emit(b, ir.Instr(ir.Load, dst, ir.FP(), ir.Imm(0)))
}

// predIndex finds the position of the nth edge from b among the
// predecessors of s.
func predIndex(b, s *ssa.BasicBlock, nth int) int {
	for i, pred := range s.Preds {
		if pred == b {
			if nth == 0 {
				return i
			}
			nth--
		}
	}
	return -1
}

// phiMoves lists the φ nodes of s and the values flowing into them along
// the nth edge from b.
func (l *lowering) phiMoves(b, s *ssa.BasicBlock, nth int) (phis []int, vals []ir.Operand) {
	k := predIndex(b, s, nth)
	for _, instr := range s.Instrs {
		phi, ok := instr.(*ssa.Phi)
		if !ok {
			break
		}
		if r, ok := l.reg(phi); ok {
			phis = append(phis, r)
			vals = append(vals, l.operand(phi.Edges[k]))
		}
	}
	return
}

// phiCopies assigns the φ nodes of s at the end of block idx. Several φs
// are copied through temporaries, since they are assigned simultaneously.
func (l *lowering) phiCopies(idx int, phis []int, vals []ir.Operand) {
	switch len(phis) {
	case 0:
		return
	case 1:
		l.bld.Emit(idx, ir.Instr(ir.Add, ir.Reg(phis[0]), vals[0], ir.Imm(0)))
		return
	}

	for i, val := range vals {
		l.bld.Emit(idx, ir.Instr(ir.Add, l.temp(i), val, ir.Imm(0)))
	}
	for i, phi := range phis {
		l.bld.Emit(idx, ir.Instr(ir.Add, ir.Reg(phi), l.temp(i), ir.Imm(0)))
	}
}

// edge returns the block to branch to for the nth edge from b to s. Edges
// into φ nodes get a block of their own holding the copies, so that they
// are not performed when the other successor of b is taken.
func (l *lowering) edge(b, s *ssa.BasicBlock, nth int) int {
	phis, vals := l.phiMoves(b, s, nth)
	if len(phis) == 0 {
		return s.Index
	}
	idx := l.bld.NewBlock()
	l.phiCopies(idx, phis, vals)
	l.bld.Emit(idx, ir.Instr(ir.Branch, ir.BB(s.Index)))
	return idx
}
