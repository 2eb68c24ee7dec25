package pkgutil

import (
	"fmt"
	"regexp"

	"golang.org/x/exp/slices"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// BuildSSA constructs the SSA form of the loaded packages and their
// dependencies. The returned packages correspond to pkgs, in order.
func BuildSSA(pkgs []*packages.Package) (*ssa.Program, []*ssa.Package) {
	prog, spkgs := ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions)
	prog.Build()
	return prog, spkgs
}

// Functions lists the functions with a body declared in the given packages
// whose name matches pattern, sorted by their qualified name. An empty pattern
// selects every function. Closures are included, wrappers synthesized by the
// SSA builder are not.
func Functions(prog *ssa.Program, pkgs []*ssa.Package, pattern string) ([]*ssa.Function, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid function pattern: %w", err)
	}

	included := make(map[*ssa.Package]bool)
	for _, pkg := range pkgs {
		if pkg != nil {
			included[pkg] = true
		}
	}

	var res []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Synthetic != "" || len(fn.Blocks) == 0 || !included[fn.Pkg] {
			continue
		}
		if re.MatchString(fn.Name()) {
			res = append(res, fn)
		}
	}

	slices.SortFunc(res, func(a, b *ssa.Function) bool {
		return a.String() < b.String()
	})
	return res, nil
}
