// Package report renders the results of the dataflow analyses, either as
// the textual per-block dump or as an annotated control-flow graph.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cs-au-dk/regflow/analysis/dataflow"
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/utils/dot"
)

// Dump writes the exit state of every block in block order:
//
//	bb<idx>:
//	    <state>
//
// With withEntry set, the entry state is printed on an "in:" line before
// the exit state on an "out:" line.
func Dump[S fmt.Stringer](w io.Writer, res *dataflow.Result[S], withEntry bool) error {
	bw := bufio.NewWriter(w)
	for _, b := range res.Program.Blocks {
		fmt.Fprintf(bw, "%s:\n", b)
		if withEntry {
			fmt.Fprintf(bw, "    in:  %s\n", res.In[b.Index])
			fmt.Fprintf(bw, "    out: %s\n", res.Out[b.Index])
		} else {
			fmt.Fprintf(bw, "    %s\n", res.Out[b.Index])
		}
	}
	return bw.Flush()
}

// EdgeFilter decides whether an edge may be taken given the exit state of
// its source block.
type EdgeFilter[S any] func(out S, kind ir.EdgeKind) bool

// Graph builds the control-flow graph of the analyzed program. Every block
// is a node listing its instructions followed by its exit state.
// Fall-through edges are solid, branch-taken edges dashed, and edges
// rejected by taken (when non-nil) are greyed out.
func Graph[S fmt.Stringer](res *dataflow.Result[S], title string, taken EdgeFilter[S]) *dot.DotGraph {
	prog := res.Program
	g := &dot.DotGraph{
		Title:   title,
		Options: map[string]string{"rankdir": "TB"},
	}

	nodes := make([]*dot.DotNode, len(prog.Blocks))
	for _, b := range prog.Blocks {
		lines := []string{b.String() + ":"}
		for _, instr := range b.Instrs {
			lines = append(lines, "  "+instr.String())
		}
		lines = append(lines, res.Out[b.Index].String())

		nodes[b.Index] = &dot.DotNode{
			ID: b.String(),
			Attrs: dot.DotAttrs{
				"label": strings.Join(lines, "\n"),
			},
		}
		g.Nodes = append(g.Nodes, nodes[b.Index])
	}

	for _, b := range prog.Blocks {
		for _, pred := range b.Preds {
			attrs := dot.DotAttrs{"style": "solid"}
			if pred.Kind == ir.BranchTaken {
				attrs["style"] = "dashed"
			}
			if taken != nil && !taken(res.Out[pred.Block], pred.Kind) {
				attrs["color"] = "gray"
				attrs["fontcolor"] = "gray"
			}
			attrs["label"] = pred.Kind.String()

			g.Edges = append(g.Edges, &dot.DotEdge{
				From:  nodes[pred.Block],
				To:    nodes[b.Index],
				Attrs: attrs,
			})
		}
	}

	return g
}
