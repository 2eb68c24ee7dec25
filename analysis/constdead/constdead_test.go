package constdead

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cs-au-dk/regflow/analysis/cfg"
	"github.com/cs-au-dk/regflow/analysis/config"
	"github.com/cs-au-dk/regflow/analysis/dataflow"
	"github.com/cs-au-dk/regflow/analysis/ir"
	"github.com/cs-au-dk/regflow/analysis/ir/irtext"
	L "github.com/cs-au-dk/regflow/analysis/lattice"
	"github.com/cs-au-dk/regflow/utils"

	"github.com/sebdah/goldie/v2"
	"golang.org/x/exp/slices"
)

func TestMain(m *testing.M) {
	utils.Opts().SetNoColorize(true)
	os.Exit(m.Run())
}

func mustParse(t *testing.T, src string) *ir.Program {
	t.Helper()
	p, err := irtext.ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func analyze(t *testing.T, conf *config.Config, src string) *dataflow.Result[State] {
	t.Helper()
	res, err := New(conf, nil).Analyze(mustParse(t, src))
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.ir"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test programs found")
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".ir")
		t.Run(name, func(t *testing.T) {
			p, err := irtext.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			if err := New(config.NewDefault(), nil).Run(p, &out); err != nil {
				t.Fatal(err)
			}
			goldie.New(t).Assert(t, name, out.Bytes())
		})
	}
}

func TestExitState(t *testing.T) {
	tests := []struct {
		name string
		src  string
		exp  string
	}{
		{
			"fold",
			"func f\nbb0:\n    add r1, 5, 0\n    add r2, r1, 3\n",
			"[R1=5, R2=8]  Reachability:  [REACHABLE, w/ branch :DEAD]",
		},
		{
			"call",
			"func f\nbb0:\n    add r1, 5, 0\n    call @F, r1, fp, r1\n",
			"[R1=⊥]  Reachability:  [REACHABLE, w/ branch :DEAD]",
		},
		{
			"load",
			"func f\nbb0:\n    add r1, 5, 0\n    load r1, fp, 8\n    add r2, r1, 1\n",
			"[R1=⊥, R2=⊥]  Reachability:  [REACHABLE, w/ branch :DEAD]",
		},
		{
			"compare",
			"func f\nbb0:\n    sub r1, 3, 5\n    lt r2, r1, 0\n    eq r3, r1, 2\n    div r4, -7, 2\n",
			"[R1=-2, R2=1, R3=0, R4=-3]  Reachability:  [REACHABLE, w/ branch :DEAD]",
		},
		{
			"store keeps registers",
			"func f\nbb0:\n    add r1, 2, 0\n    store r1, fp, 0\n",
			"[R1=2]  Reachability:  [REACHABLE, w/ branch :DEAD]",
		},
		{
			"return",
			"func f\nbb0:\n    add r1, 2, 0\n    ret r1\n",
			"[R1=2]  Reachability:  [DEAD, w/ branch :DEAD]",
		},
		{
			"unknown condition",
			"func f\nbb0:\n    load r1, fp, 0\n    brz r1, bb1\nbb1:\n    ret\n",
			"[R1=⊥]  Reachability:  [DEAD, w/ branch :DEAD]",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := analyze(t, config.NewDefault(), test.src)
			last := len(res.Out) - 1
			if got := res.Out[last].String(); got != test.exp {
				t.Errorf("Expected exit state\n%s\nfound\n%s", test.exp, got)
			}
		})
	}
}

const deadBranch = `func f
bb0:
    add r1, 1, 0
    brz r1, bb2
bb1:
    add r3, r1, 1
    br bb3
bb2:
    add r2, 7, 0
bb3:
    ret r1
`

func TestDeadBranch(t *testing.T) {
	res := analyze(t, config.NewDefault(), deadBranch)

	if dead := DeadBlocks(res); !slices.Equal(dead, []int{2}) {
		t.Errorf("Expected dead blocks [2], found %v", dead)
	}
	if !res.In[2].Reach.IsDead() {
		t.Errorf("Expected bb2 to be dead on entry, found %v", res.In[2])
	}
	if _, found := res.In[3].Regs.Get(2); found {
		t.Errorf("R2 is only defined in a dead predecessor of bb3, found %v", res.In[3])
	}
	if c, _ := res.In[3].Regs.Get(3); c.String() != "2" {
		t.Errorf("Expected R3=2 on entry to bb3, found %v", res.In[3])
	}
}

// Blocks the analysis considers live must be reachable in the graph.
func TestLiveBlocksAreReachable(t *testing.T) {
	programs := []string{
		deadBranch,
		`func f
bb0:
    add r1, 0, 0
    brz r1, bb3
bb1:
    ret
bb2:
    add r2, 1, 0
bb3:
    ret
`,
		`func f
bb0:
    load r1, fp, 0
    brz r1, bb2
bb1:
    br bb3
bb2:
    add r1, 4, 0
bb3:
    ret r1
`,
	}

	for _, src := range programs {
		p := mustParse(t, src)
		res, err := New(config.NewDefault(), nil).Analyze(p)
		if err != nil {
			t.Fatal(err)
		}
		reachable := cfg.Reachable(p)
		for i, in := range res.In {
			if in.Live() && !reachable[i] {
				t.Errorf("%s: bb%d is live but unreachable", p.Name, i)
			}
		}
	}
}

const divByZero = `func f
bb0:
    add r1, 4, 0
    div r2, r1, 0
`

func TestDivisionByZero(t *testing.T) {
	t.Run("fail", func(t *testing.T) {
		_, err := New(config.NewDefault(), nil).Analyze(mustParse(t, divByZero))
		if !errors.Is(err, L.ErrDivisionByZero) {
			t.Fatalf("Expected division by zero, found %v", err)
		}
		var terr *dataflow.TransferError
		if !errors.As(err, &terr) {
			t.Fatalf("Expected a transfer error, found %T", err)
		}
		if terr.Pos != (ir.Position{Block: 0, Instr: 1}) {
			t.Errorf("Expected failure at bb0:1, found %v", terr.Pos)
		}
	})

	t.Run("bottom", func(t *testing.T) {
		conf := config.NewDefault()
		conf.DivisionByZero = config.DivZeroBottom
		res := analyze(t, conf, divByZero)
		if got := res.Out[0].Regs.String(); got != "[R1=4, R2=⊥]" {
			t.Errorf("Expected [R1=4, R2=⊥], found %s", got)
		}
	})

	t.Run("dead code", func(t *testing.T) {
		res := analyze(t, config.NewDefault(), `func f
bb0:
    ret
bb1:
    div r1, 1, 0
`)
		if got := res.Out[1].Regs.String(); got != "[R1=⊥]" {
			t.Errorf("Expected [R1=⊥], found %s", got)
		}
	})
}

func TestStrategiesAgree(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "loop.ir"))
	if err != nil {
		t.Fatal(err)
	}

	passes := analyze(t, config.NewDefault(), string(src))

	conf := config.NewDefault()
	conf.Strategy = config.StrategyWorklist
	worklist := analyze(t, conf, string(src))

	for i := range passes.Out {
		if !passes.Out[i].Eq(worklist.Out[i]) {
			t.Errorf("bb%d: passes found %v, worklist found %v", i, passes.Out[i], worklist.Out[i])
		}
	}
}

func TestGraph(t *testing.T) {
	p := mustParse(t, deadBranch)
	g, err := New(config.NewDefault(), nil).Graph(p)
	if err != nil {
		t.Fatal(err)
	}

	if len(g.Nodes) != len(p.Blocks) {
		t.Errorf("Expected %d nodes, found %d", len(p.Blocks), len(g.Nodes))
	}

	var grey []string
	for _, e := range g.Edges {
		if e.Attrs["color"] == "gray" {
			grey = append(grey, e.From.ID+"->"+e.To.ID)
		}
	}
	if exp := []string{"bb0->bb2", "bb2->bb3"}; !slices.Equal(grey, exp) {
		t.Errorf("Expected dead edges %v, found %v", exp, grey)
	}
}
