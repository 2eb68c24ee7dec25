package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/fatih/color"
)

type options struct {
	analysis     string
	input        string
	pkg          string
	function     string
	outputFormat string
	output       string
	gopath       string
	modulePath   string
	configFile   string
	strategy     string
	noColorize   bool
	verbose      bool
}

const (
	_FORMAT_TEXT = iota
	_FORMAT_DOT
	_FORMAT_SVG
	_FORMAT_PNG
)

var formats = []struct{ flag, explanation string }{{
	"text",
	"Print the exit state of every block",
}, {
	"dot",
	"Print the control-flow graph annotated with block states in DOT syntax",
}, {
	"svg",
	"Render the annotated control-flow graph as SVG (requires -o)",
}, {
	"png",
	"Render the annotated control-flow graph as PNG (requires -o)",
}}

// CanColorize wraps a color printer so that it degrades to plain printing
// when colors are disabled.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize || color.NoColor {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var opts = &options{}

type optInterface struct{}

type formatInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

// SetNoColorize forcibly disables or enables colorization.
func (optInterface) SetNoColorize(b bool) {
	opts.noColorize = b
}

// Analysis is the comma-separated list of analyses requested on the command line.
func (optInterface) Analysis() string {
	return opts.analysis
}
func (optInterface) Input() string {
	return opts.input
}
func (optInterface) Package() string {
	return opts.pkg
}
func (optInterface) Function() string {
	return opts.function
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) Output() string {
	return opts.output
}
func (optInterface) GoPath() string {
	return opts.gopath
}
func (optInterface) ModulePath() string {
	return opts.modulePath
}
func (optInterface) ConfigFile() string {
	return opts.configFile
}
func (optInterface) Strategy() string {
	return opts.strategy
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) Format() formatInterface {
	return formatInterface{}
}
func (formatInterface) IsText() bool {
	return opts.outputFormat == formats[_FORMAT_TEXT].flag
}
func (formatInterface) IsDot() bool {
	return opts.outputFormat == formats[_FORMAT_DOT].flag
}

// IsRendered holds for formats produced by Graphviz.
func (formatInterface) IsRendered() bool {
	return opts.outputFormat == formats[_FORMAT_SVG].flag ||
		opts.outputFormat == formats[_FORMAT_PNG].flag
}

func init() {
	formatFlag := "\n"
	for _, format := range formats {
		formatFlag += format.flag + " -- " + format.explanation + "\n"
	}
	formatFlag += "\n"

	flag.StringVar(&(opts.analysis), "analysis", "", "comma-separated list of analyses to run (e.g. WCDA,WVRA). Defaults to every registered analysis.")
	flag.StringVar(&(opts.input), "input", "", "read the program from a textual IR file")
	flag.StringVar(&(opts.pkg), "pkg", "", "lower the functions of a Go package to the register IR and analyze them")
	flag.StringVar(&(opts.function), "fun", ".", "target a specific function of the package given with -pkg.\n"+
		"- Use '.' to analyze every function in the package.\n")
	flag.StringVar(&(opts.outputFormat), "format", formats[_FORMAT_TEXT].flag, "output format. Options:"+formatFlag)
	flag.StringVar(&(opts.output), "o", "", "write the output to a file instead of stdout")
	flag.StringVar(&(opts.gopath), "gopath", "", "specify GOPATH to be used for packages.Load")
	flag.StringVar(&(opts.modulePath), "modulepath", "", `specify a path to a directory containing a Go module.
- If provided this will make our code loading tools (that piggyback on Go's tools) run
in "module-aware" mode (GO111MODULE=on).`)
	flag.StringVar(&(opts.configFile), "config", "", "load analysis options from a YAML or TOML file")
	flag.StringVar(&(opts.strategy), "strategy", "", "override the fixpoint strategy [passes | worklist]")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	// See https://stackoverflow.com/questions/60235896/flag-provided-but-not-defined-test-v
	flag.Parse()

	validFormat := false
	for _, format := range formats {
		if format.flag == opts.outputFormat {
			validFormat = true
			break
		}
	}

	if !validFormat {
		log.Fatalf("Value \"%s\" is not valid for -format", opts.outputFormat)
	}
	if opts.input != "" && opts.pkg != "" {
		log.Fatalln("-input and -pkg are mutually exclusive")
	}
	if Opts().Format().IsRendered() && opts.output == "" {
		log.Fatalf("-format %s requires an output file (-o)", opts.outputFormat)
	}
	if !Opts().Format().IsText() {
		opts.noColorize = true
	}
}

func (optInterface) AnalyzeAllFuncs() bool {
	return opts.function == "."
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
