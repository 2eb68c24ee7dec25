package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "regflow.yml", `
log-level: 4
strategy: worklist
widening-delay: 1
division-by-zero: bottom
dump-entry: true
analyses: [WVRA]
`},
		{"toml", "regflow.toml", `
log-level = 4
strategy = "worklist"
widening-delay = 1
division-by-zero = "bottom"
dump-entry = true
analyses = ["WVRA"]
`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeConfig(t, test.file, test.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatal(err)
			}

			if cfg.LogLevel != int(DebugLevel) {
				t.Errorf("Expected log level %d, found %d", DebugLevel, cfg.LogLevel)
			}
			if cfg.Strategy != StrategyWorklist {
				t.Errorf("Expected strategy %s, found %s", StrategyWorklist, cfg.Strategy)
			}
			if cfg.WideningDelay != 1 {
				t.Errorf("Expected widening delay 1, found %d", cfg.WideningDelay)
			}
			if cfg.DivisionByZero != DivZeroBottom {
				t.Errorf("Expected division-by-zero policy %s, found %s", DivZeroBottom, cfg.DivisionByZero)
			}
			if !cfg.DumpEntry {
				t.Error("Expected dump-entry to be set")
			}
			if len(cfg.Analyses) != 1 || cfg.Analyses[0] != "WVRA" {
				t.Errorf("Expected analyses [WVRA], found %v", cfg.Analyses)
			}
			if cfg.SourceFile() != path {
				t.Errorf("Expected source file %s, found %s", path, cfg.SourceFile())
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yml", "strategy: \"\"\n"))
	if err != nil {
		t.Fatal(err)
	}

	def := NewDefault()
	if cfg.LogLevel != def.LogLevel || cfg.Strategy != def.Strategy ||
		cfg.WideningDelay != def.WideningDelay || cfg.DivisionByZero != def.DivisionByZero {
		t.Errorf("Expected defaults %+v, found %+v", def, cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"level", "log-level: 9\n", "log-level"},
		{"strategy", "strategy: chaotic\n", "unknown strategy"},
		{"policy", "division-by-zero: panic\n", "division-by-zero"},
		{"delay", "widening-delay: -1\n", "widening-delay"},
		{"syntax", "strategy: [\n", "could not unmarshal yaml"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bad.yml", test.content))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("Expected error mentioning %q, found %v", test.msg, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected missing file to be rejected")
	}
}

func TestLogGroup(t *testing.T) {
	cfg := NewDefault()
	cfg.LogLevel = int(WarnLevel)

	var buf bytes.Buffer
	l := NewLogGroup(cfg)
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)

	l.Errorf("e%d", 1)
	l.Warnf("w%d", 2)
	l.Infof("i%d", 3)
	l.Debugf("d%d", 4)
	l.Tracef("t%d", 5)

	if exp := "[ERROR] e1\n[WARN] w2\n"; buf.String() != exp {
		t.Errorf("Expected\n%s\nfound\n%s", exp, buf.String())
	}
	if l.Level() != WarnLevel {
		t.Errorf("Expected level %d, found %d", WarnLevel, l.Level())
	}

	d := Discard()
	d.Errorf("dropped")
	if d.err.Writer() != io.Discard {
		t.Error("Expected the error logger to discard its output")
	}
}
