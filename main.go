package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cs-au-dk/regflow/analysis"
	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/constdead"
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/analysis/ir/irtext"
	u "github.com/cs-au-dk/regflow/analysis/upfront"
	"github.com/cs-au-dk/regflow/analysis/valuerange"
	"github.com/cs-au-dk/regflow/pkgutil"
	"github.com/cs-au-dk/regflow/utils"

	"golang.org/x/term"
)

var opts = utils.Opts()

func main() {
	utils.ParseArgs()

	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.NoColorize || opts.Output() != "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		opts.SetNoColorize(true)
	}

	logger := config.NewLogGroup(cfg)

	registry := analysis.NewRegistry()
	for _, a := range []analysis.Analysis{
		constdead.New(cfg, logger),
		valuerange.New(cfg, logger),
	} {
		if err := registry.Register(a); err != nil {
			return err
		}
	}

	names := cfg.Analyses
	if opts.Analysis() != "" {
		names = strings.Split(opts.Analysis(), ",")
	}
	analyses, err := registry.Select(names)
	if err != nil {
		return err
	}

	progs, err := loadPrograms(logger)
	if err != nil {
		return err
	}
	opts.OnVerbose(func() { printMetrics(os.Stderr, progs) })

	p := pipeline{
		analyses: analyses,
		out:      os.Stdout,
		multi:    len(analyses)*len(progs) > 1,
	}
	if opts.Output() == "" || opts.Format().IsRendered() {
		return p.run(progs)
	}
	return withOutputFile(opts.Output(), func(w io.Writer) error {
		p.out = w
		return p.run(progs)
	})
}

// withOutputFile creates the file at path, hands it to write and closes it.
// The first error encountered is returned.
func withOutputFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// loadConfig reads the config file, if any, and applies the command line
// overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.NewDefault()
	if path := opts.ConfigFile(); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if s := opts.Strategy(); s != "" {
		if s != config.StrategyPasses && s != config.StrategyWorklist {
			return nil, fmt.Errorf("unknown strategy %q", s)
		}
		cfg.Strategy = s
	}
	if opts.NoColorize() {
		cfg.NoColorize = true
	}
	return cfg, nil
}

// loadPrograms reads the program given with -input, or lowers the functions
// of the package given with -pkg.
func loadPrograms(logger *config.LogGroup) ([]*ir.Program, error) {
	switch {
	case opts.Input() != "":
		p, err := irtext.ParseFile(opts.Input())
		if err != nil {
			return nil, err
		}
		return []*ir.Program{p}, nil
	case opts.Package() != "":
	default:
		return nil, fmt.Errorf("no program given, use -input or -pkg")
	}

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:     opts.GoPath(),
		ModulePath: opts.ModulePath(),
	}, opts.Package())
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", opts.Package(), err)
	}

	pattern := opts.Function()
	if opts.AnalyzeAllFuncs() {
		pattern = ""
	}

	prog, spkgs := pkgutil.BuildSSA(pkgs)
	fns, err := pkgutil.Functions(prog, spkgs, pattern)
	if err != nil {
		return nil, err
	}
	if len(fns) == 0 {
		return nil, fmt.Errorf("no function in %s matches %q", opts.Package(), opts.Function())
	}

	progs := make([]*ir.Program, 0, len(fns))
	for _, fn := range fns {
		p, err := u.Lower(fn)
		if err != nil {
			return nil, err
		}
		logger.Debugf("lowered %s to %d blocks", fn, len(p.Blocks))
		progs = append(progs, p)
	}
	return progs, nil
}
