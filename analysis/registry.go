// Package analysis collects the available dataflow analyses behind a
// common interface, so that front ends can select them by name.
package analysis

import (
	"fmt"
	"io"

	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/utils/dot"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Analysis is a dataflow analysis that can be run on a program.
type Analysis interface {
	// Name is the short identifier of the analysis, e.g. WCDA.
	Name() string
	Description() string
	// Run analyzes the program and writes the per-block dump to w.
	Run(p *ir.Program, w io.Writer) error
	// Graph analyzes the program and renders the annotated control-flow graph.
	Graph(p *ir.Program) (*dot.DotGraph, error)
}

// Registry maps analysis names to analyses.
type Registry struct {
	analyses map[string]Analysis
}

func NewRegistry() *Registry {
	return &Registry{analyses: make(map[string]Analysis)}
}

// Register adds an analysis. Names must be unique.
func (r *Registry) Register(a Analysis) error {
	if _, found := r.analyses[a.Name()]; found {
		return fmt.Errorf("analysis %s is already registered", a.Name())
	}
	r.analyses[a.Name()] = a
	return nil
}

// Lookup finds an analysis by name.
func (r *Registry) Lookup(name string) (Analysis, bool) {
	a, found := r.analyses[name]
	return a, found
}

// Names lists the registered analyses in sorted order.
func (r *Registry) Names() []string {
	names := maps.Keys(r.analyses)
	slices.Sort(names)
	return names
}

// All returns the registered analyses sorted by name.
func (r *Registry) All() []Analysis {
	names := r.Names()
	res := make([]Analysis, len(names))
	for i, name := range names {
		res[i] = r.analyses[name]
	}
	return res
}

// Select resolves a list of names. An empty list selects every analysis.
func (r *Registry) Select(names []string) ([]Analysis, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	res := make([]Analysis, 0, len(names))
	for _, name := range names {
		a, found := r.Lookup(name)
		if !found {
			return nil, fmt.Errorf("unknown analysis %q, available: %v", name, r.Names())
		}
		res = append(res, a)
	}
	return res, nil
}
