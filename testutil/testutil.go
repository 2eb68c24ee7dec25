// Package testutil contains helpers shared by the tests of the analyses:
// loading Go source as SSA and parsing textual register programs.
package testutil

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/analysis/ir/irtext"
	"github.com/cs-au-dk/regflow/pkgutil"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// MustParseIR parses a textual register program, failing the test on
// syntax errors.
func MustParseIR(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := irtext.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// LoadSourceAsPackages type checks a single Go source file as the package
// with the given import path.
func LoadSourceAsPackages(t *testing.T, importPath string, content string) []*packages.Package {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "main.go", content, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	// Packages without imports are type checked directly, which is a lot
	// faster than going through the go tool.
	if len(file.Imports) > 0 {
		pkgs, err := pkgutil.LoadPackagesFromSource(content)
		if err != nil {
			t.Fatal(err)
		}
		return pkgs
	}

	files := []*ast.File{file}
	pkg := types.NewPackage(importPath, file.Name.Name)
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Instances:  make(map[*ast.Ident]types.Instance),
		Scopes:     make(map[ast.Node]*types.Scope),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
	}
	if err := types.NewChecker(
		&types.Config{Importer: importer.Default()},
		fset, pkg, info).Files(files); err != nil {
		t.Fatal(err)
	}

	return []*packages.Package{{
		ID:        "pkg-loaded-from-src",
		Name:      pkg.Name(),
		PkgPath:   pkg.Path(),
		Types:     pkg,
		Fset:      fset,
		Syntax:    files,
		TypesInfo: info,
	}}
}

// Function loads a source file and returns the SSA form of the named
// package-level function.
func Function(t *testing.T, content, name string) *ssa.Function {
	t.Helper()
	_, spkgs := pkgutil.BuildSSA(LoadSourceAsPackages(t, "testpackage", content))
	for _, spkg := range spkgs {
		if spkg == nil {
			continue
		}
		if fn := spkg.Func(name); fn != nil {
			return fn
		}
	}
	t.Fatalf("Function %s not found", name)
	return nil
}
