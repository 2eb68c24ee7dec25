package ir

import "golang.org/x/exp/slices"

// Builder assembles a program block by block and derives the predecessor
// lists from the branch instructions once all blocks are known.
//
// Edges are derived as follows: every br/brz contributes a branch-taken edge
// to its target; a block whose last instruction is neither br nor ret falls
// through to the next block, or to the block chosen with FallThroughTo.
type Builder struct {
	name        string
	blocks      []*Block
	fallThrough map[int]int
}

// NewBuilder creates a builder for a program with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:        name,
		fallThrough: make(map[int]int),
	}
}

// NewBlock appends an empty block and returns its index.
func (b *Builder) NewBlock() int {
	idx := len(b.blocks)
	b.blocks = append(b.blocks, &Block{Index: idx})
	return idx
}

// Emit appends instructions to the given block.
func (b *Builder) Emit(block int, instrs ...Instruction) {
	blk := b.blocks[block]
	blk.Instrs = append(blk.Instrs, instrs...)
}

// Len returns the number of blocks created so far.
func (b *Builder) Len() int {
	return len(b.blocks)
}

// FallThroughTo makes the fall-through edge of block lead to target instead
// of the next block in index order.
func (b *Builder) FallThroughTo(block, target int) {
	b.fallThrough[block] = target
}

// Build computes predecessor lists and returns the program. The builder
// must not be used afterwards.
func (b *Builder) Build() *Program {
	preds := make([][]Pred, len(b.blocks))
	addEdge := func(from, to int, kind EdgeKind) {
		if to < 0 || to >= len(b.blocks) {
			// Dangling targets are reported by Validate.
			return
		}
		e := Pred{Block: from, Kind: kind}
		if !slices.Contains(preds[to], e) {
			preds[to] = append(preds[to], e)
		}
	}

	for _, blk := range b.blocks {
		for _, instr := range blk.Instrs {
			if target, ok := instr.Target(); ok {
				addEdge(blk.Index, target, BranchTaken)
			}
		}

		falls := true
		if n := len(blk.Instrs); n > 0 {
			switch blk.Instrs[n-1].Op {
			case Branch, Return:
				falls = false
			}
		}
		if !falls {
			continue
		}
		if target, ok := b.fallThrough[blk.Index]; ok {
			addEdge(blk.Index, target, FallThrough)
		} else if blk.Index+1 < len(b.blocks) {
			addEdge(blk.Index, blk.Index+1, FallThrough)
		}
	}

	for i, blk := range b.blocks {
		ps := preds[i]
		slices.SortFunc(ps, func(a, b Pred) bool {
			if a.Block != b.Block {
				return a.Block < b.Block
			}
			return a.Kind < b.Kind
		})
		blk.Preds = ps
	}

	return &Program{Name: b.name, Blocks: b.blocks}
}
