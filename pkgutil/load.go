// Package pkgutil loads Go packages from disk or from source text, and
// selects the functions to analyze from their SSA form.
package pkgutil

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/tools/go/packages"
)

// LoadConfig configures package loading. Packages are loaded in module-aware
// mode when ModulePath points to a directory holding a go.mod file, and in
// GOPATH mode otherwise.
type LoadConfig struct {
	GoPath, ModulePath string
}

// loadMode requests syntax and type information for the packages and all
// their dependencies, as needed to build SSA.
const loadMode packages.LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
	packages.NeedImports | packages.NeedTypes | packages.NeedTypesSizes | packages.NeedSyntax |
	packages.NeedTypesInfo | packages.NeedDeps

var (
	// moduleRegex extracts the module path from a go.mod file.
	moduleRegex = regexp.MustCompile(`(?m)^module\s+(.*)$`)

	// cwd is the working directory at startup.
	cwd = func() string {
		dir, err := os.Getwd()
		if err != nil {
			panic(err)
		}
		return dir
	}()
)

// relativizingParseFile parses files under names relative to the working
// directory, so that positions printed in diagnostics do not depend on where
// the sources are checked out.
func relativizingParseFile(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
	if rel, err := filepath.Rel(cwd, filename); err == nil {
		filename = rel
	}
	const mode = parser.AllErrors | parser.ParseComments
	return parser.ParseFile(fset, filename, src, mode)
}

// LoadPackages loads and type checks the packages matching pattern.
func LoadPackages(cfg LoadConfig, pattern string) ([]*packages.Package, error) {
	gopath, err := filepath.Abs(cfg.GoPath)
	if err != nil {
		return nil, err
	}

	config := &packages.Config{
		Mode:      loadMode,
		ParseFile: relativizingParseFile,
	}

	if modulePath := cfg.ModulePath; modulePath != "" {
		pkgPath, err := filepath.Abs(modulePath)
		if err != nil {
			return nil, err
		}

		contents, err := os.ReadFile(filepath.Join(pkgPath, "go.mod"))
		if err != nil {
			return nil, fmt.Errorf("no go.mod file in %s: %w", modulePath, err)
		}

		m := moduleRegex.FindSubmatch(contents)
		if len(m) <= 1 {
			return nil, fmt.Errorf("no module directive in %s", filepath.Join(modulePath, "go.mod"))
		}

		config.Dir = pkgPath
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=on")
	} else {
		config.Env = append(os.Environ(), "GOPATH="+gopath, "GO111MODULE=off")
	}

	return loadPackagesWithConfig(config, pattern)
}

// LoadPackagesFromSource loads a single source file as a package. Unlike
// type checking the file directly, imports are resolved by the go tool.
func LoadPackagesFromSource(source string) ([]*packages.Package, error) {
	// The file only exists in the overlay.
	config := &packages.Config{
		Mode: loadMode,
		Env:  append(os.Environ(), "GO111MODULE=off", "GOPATH=/fake"),
		Overlay: map[string][]byte{
			"/fake/testpackage/main.go": []byte(source),
		},
	}

	return loadPackagesWithConfig(config, "/fake/testpackage/main.go")
}

// loadPackagesWithConfig runs the go tool and fails if any package has
// errors, reporting them on stderr.
func loadPackagesWithConfig(config *packages.Config, query string) ([]*packages.Package, error) {
	pkgs, err := packages.Load(config, query)
	if err != nil {
		return nil, err
	}
	if n := packages.PrintErrors(pkgs); n > 0 {
		return nil, fmt.Errorf("%d errors encountered while loading packages", n)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages match %s", query)
	}
	return pkgs, nil
}
