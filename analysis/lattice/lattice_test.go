package lattice

import (
	"os"
	"testing"

	"github.com/cs-au-dk/regflow/utils"
)

func TestMain(m *testing.M) {
	utils.Opts().SetNoColorize(true)
	os.Exit(m.Run())
}

// checkLaws verifies that Join is commutative, associative, idempotent, has
// ⊤ as identity, ⊥ as absorbing element, and never increases the height.
func checkLaws[E Element[E]](t *testing.T, top, bot E, elems []E) {
	t.Helper()
	all := append([]E{top, bot}, elems...)
	for _, a := range all {
		if a.Join(a) != a {
			t.Errorf("%s ⊔ %s = %s, expected idempotence", a, a, a.Join(a))
		}
		if a.Join(top) != a || top.Join(a) != a {
			t.Errorf("⊤ is not the identity of %s", a)
		}
		if a.Join(bot) != bot || bot.Join(a) != bot {
			t.Errorf("⊥ does not absorb %s", a)
		}
		for _, b := range all {
			ab := a.Join(b)
			if ab != b.Join(a) {
				t.Errorf("%s ⊔ %s = %s, but %s ⊔ %s = %s", a, b, ab, b, a, b.Join(a))
			}
			if ab.Height() > a.Height() || ab.Height() > b.Height() {
				t.Errorf("%s ⊔ %s = %s is higher than its operands", a, b, ab)
			}
			for _, c := range all {
				if l, r := ab.Join(c), a.Join(b.Join(c)); l != r {
					t.Errorf("(%s ⊔ %s) ⊔ %s = %s, but %s ⊔ (%s ⊔ %s) = %s", a, b, c, l, a, b, c, r)
				}
			}
		}
	}
}

func TestConstantLaws(t *testing.T) {
	checkLaws(t, ConstTop(), ConstBot(), []Constant{Const(-1), Const(0), Const(1), Const(42)})
}

func TestRangeLaws(t *testing.T) {
	checkLaws(t, RangeTop(), RangeBot(), []Range{
		Point(0), Point(3), Span(-2, 1), Span(1, 5), Span(-10, 10),
	})
}

func TestConstantJoin(t *testing.T) {
	tests := []struct {
		a, b, expected Constant
	}{
		{ConstTop(), Const(5), Const(5)},
		{Const(5), ConstTop(), Const(5)},
		{Const(5), Const(5), Const(5)},
		{Const(5), Const(6), ConstBot()},
		{ConstBot(), Const(5), ConstBot()},
		{ConstTop(), ConstTop(), ConstTop()},
	}

	for _, test := range tests {
		res := test.a.Join(test.b)
		if !res.Eq(test.expected) {
			t.Errorf("%s ⊔ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		}
	}
}

func TestConstantString(t *testing.T) {
	for c, expected := range map[Constant]string{
		ConstTop(): "⊤",
		ConstBot(): "⊥",
		Const(-7):  "-7",
		Bool(true): "1",
	} {
		if c.String() != expected {
			t.Errorf("Expected %q, got %q", expected, c.String())
		}
	}
}

func TestLiveness(t *testing.T) {
	if Dead.Join(Reachable) != Reachable || Dead.Join(Dead) != Dead {
		t.Error("Reachable must be the top of the liveness lattice")
	}

	r := Reachability{FallThrough: Reachable}.Join(Reachability{Taken: Reachable})
	if r.FallThrough != Reachable || r.Taken != Reachable {
		t.Errorf("Unexpected join %s", r)
	}
	if !Unreachable().IsDead() {
		t.Error("Unreachable() should be dead")
	}
	if s := (Reachability{FallThrough: Reachable}).String(); s != "[REACHABLE, w/ branch :DEAD]" {
		t.Errorf("Unexpected rendering %q", s)
	}
}
