// Package cfg derives structural facts about the control-flow graph of a
// program: structural reachability, loops and the widening points of loops.
package cfg

import (
	"github.com/cs-au-dk/regflow/analysis/ir"

	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// Graph converts the block edges of a program to a graph over block indices.
func Graph(p *ir.Program) *graph.Mutable {
	g := graph.New(len(p.Blocks))
	for _, b := range p.Blocks {
		for _, pred := range b.Preds {
			g.Add(pred.Block, b.Index)
		}
	}
	return g
}

// Reachable marks the blocks that are reachable from the entry block by
// following any edge, regardless of branch conditions.
func Reachable(p *ir.Program) []bool {
	reach := make([]bool, len(p.Blocks))
	if len(p.Blocks) == 0 {
		return reach
	}

	reach[0] = true
	graph.BFS(Graph(p), 0, func(_, w int, _ int64) {
		reach[w] = true
	})
	return reach
}

// Loops returns the strongly connected components of the control-flow graph
// that contain a cycle, i.e. components with more than one block or a block
// with a self-edge. Blocks in each loop are sorted and loops are ordered by
// their smallest block.
func Loops(p *ir.Program) [][]int {
	g := Graph(p)

	var loops [][]int
	for _, comp := range graph.StrongComponents(g) {
		if len(comp) == 1 && !g.Edge(comp[0], comp[0]) {
			continue
		}
		loop := slices.Clone(comp)
		slices.Sort(loop)
		loops = append(loops, loop)
	}

	slices.SortFunc(loops, func(a, b []int) bool {
		return a[0] < b[0]
	})
	return loops
}

// LoopHeads marks the blocks at which a fixpoint iteration must widen to
// guarantee termination: the targets of the back edges of a depth-first
// traversal in block order. Every cycle of the graph contains at least one
// such block.
func LoopHeads(p *ir.Program) []bool {
	heads := make([]bool, len(p.Blocks))
	if graph.Acyclic(Graph(p)) {
		return heads
	}

	succs := p.Successors()

	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(p.Blocks))

	var visit func(int)
	visit = func(b int) {
		color[b] = grey
		for _, s := range succs[b] {
			switch color[s.Block] {
			case white:
				visit(s.Block)
			case grey:
				heads[s.Block] = true
			}
		}
		color[b] = black
	}

	// Blocks that cannot be reached from the entry may still form cycles.
	for b := range p.Blocks {
		if color[b] == white {
			visit(b)
		}
	}
	return heads
}
