package lattice

import (
	"errors"
	"math"
	"testing"
)

func TestRangeJoin(t *testing.T) {
	tests := []struct {
		a, b, expected Range
	}{
		{RangeTop(), RangeTop(), RangeTop()},
		{RangeTop(), RangeBot(), RangeBot()},
		{RangeBot(), RangeTop(), RangeBot()},
		{RangeTop(), Span(1, 2), Span(1, 2)},
		{Span(1, 2), RangeTop(), Span(1, 2)},
		{RangeBot(), Span(1, 2), RangeBot()},
		{Span(1, 2), RangeBot(), RangeBot()},
		{Point(0), Point(1), Span(0, 1)},
		{Span(1, 2), Span(3, 4), Span(1, 4)},
		{Span(-1, 0), Span(0, 1), Span(-1, 1)},
		{Span(-5, 5), Span(0, 1), Span(-5, 5)},
	}

	for _, test := range tests {
		res := test.a.Join(test.b)
		if !res.Eq(test.expected) {
			t.Errorf("%s ⊔ %s = %s, expected %s\n", test.a, test.b, res, test.expected)
		} else {
			t.Logf("%s ⊔ %s = %s\n", test.a, test.b, res)
		}
	}
}

func TestRangeArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func(a, b Range) Range
		a, b     Range
		expected Range
	}{
		{"+", AddRange, Span(2, 5), Point(1), Span(3, 6)},
		{"+", AddRange, Span(-3, 3), Span(1, 2), Span(-2, 5)},
		{"-", SubRange, Span(2, 5), Span(1, 3), Span(-1, 4)},
		{"-", SubRange, Point(0), Span(-1, 4), Span(-4, 1)},
		{"*", MulRange, Span(-2, 3), Point(2), Span(-4, 6)},
		{"*", MulRange, Span(-2, 3), Span(-1, 4), Span(-8, 12)},
		{"+", AddRange, RangeBot(), Point(1), RangeBot()},
		{"-", SubRange, RangeTop(), Point(1), RangeBot()},
		{"*", MulRange, Point(1), RangeTop(), RangeBot()},
	}

	for _, test := range tests {
		res := test.op(test.a, test.b)
		if !res.Eq(test.expected) {
			t.Errorf("%s %s %s = %s, expected %s", test.a, test.name, test.b, res, test.expected)
		}
	}
}

func TestRangeOverflow(t *testing.T) {
	tests := []struct {
		name string
		res  Range
		exp  Range
	}{
		{"max + 1", AddRange(Point(math.MaxInt), Point(1)), RangeBot()},
		{"[0:max] + 1", AddRange(Span(0, math.MaxInt), Point(1)), RangeBot()},
		{"min + -1", AddRange(Point(math.MinInt), Point(-1)), RangeBot()},
		{"max + -1", AddRange(Point(math.MaxInt), Point(-1)), Point(math.MaxInt - 1)},
		{"min - 1", SubRange(Point(math.MinInt), Point(1)), RangeBot()},
		{"0 - min", SubRange(Point(0), Point(math.MinInt)), RangeBot()},
		{"-1 - min", SubRange(Point(-1), Point(math.MinInt)), Point(math.MaxInt)},
		{"max/2 * 4", MulRange(Span(math.MaxInt/2, math.MaxInt/2+2), Point(4)), RangeBot()},
		{"max * -1", MulRange(Point(math.MaxInt), Point(-1)), Point(-math.MaxInt)},
		{"min * -1", MulRange(Point(math.MinInt), Point(-1)), RangeBot()},
		{"-1 * min", MulRange(Point(-1), Point(math.MinInt)), RangeBot()},
		{"max/2 * 2", MulRange(Point(math.MaxInt/2), Point(2)), Point(math.MaxInt - 1)},
	}

	for _, test := range tests {
		if !test.res.Eq(test.exp) {
			t.Errorf("%s = %s, expected %s", test.name, test.res, test.exp)
		}
	}

	if res, err := DivRange(Point(math.MinInt), Span(-1, 1)); err != nil || !res.IsBot() {
		t.Errorf("min / [-1:1] = %s (%v), expected ⊥", res, err)
	}
}

func TestDivRange(t *testing.T) {
	tests := []struct {
		a, b, expected Range
	}{
		{Span(10, 20), Span(2, 5), Span(2, 10)},
		{Span(-10, 10), Point(2), Span(-5, 5)},
		{Span(10, 20), Span(0, 5), Span(2, 20)},
		{Span(10, 20), Span(-5, 0), Span(-20, -2)},
		{Point(7), Point(-2), Point(-3)},
		{RangeBot(), Point(2), RangeBot()},
		{Point(2), RangeTop(), RangeBot()},
	}

	for _, test := range tests {
		res, err := DivRange(test.a, test.b)
		if err != nil {
			t.Errorf("%s / %s: unexpected error %v", test.a, test.b, err)
			continue
		}
		if !res.Eq(test.expected) {
			t.Errorf("%s / %s = %s, expected %s", test.a, test.b, res, test.expected)
		}
	}

	if _, err := DivRange(Span(1, 5), Point(0)); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("Expected division by [0:0] to fail, got %v", err)
	}
}

func TestCompareRange(t *testing.T) {
	tests := []struct {
		rel      Relation
		a, b     Range
		expected Range
	}{
		{RelLt, Span(0, 3), Span(5, 9), Point(1)},
		{RelLt, Span(5, 9), Span(0, 5), Point(0)},
		{RelLt, Span(0, 5), Span(3, 9), Span(0, 1)},
		{RelLe, Span(0, 5), Span(5, 9), Point(1)},
		{RelLe, Span(6, 9), Span(0, 5), Point(0)},
		{RelEq, Point(3), Point(3), Point(1)},
		{RelEq, Span(0, 2), Span(3, 4), Point(0)},
		{RelEq, Span(0, 3), Span(3, 4), Span(0, 1)},
		{RelNe, Point(3), Point(3), Point(0)},
		{RelNe, Span(0, 2), Span(3, 4), Point(1)},
		{RelLt, RangeBot(), Point(1), RangeBot()},
	}

	for _, test := range tests {
		res := CompareRange(test.rel, test.a, test.b)
		if !res.Eq(test.expected) {
			t.Errorf("%s %s %s = %s, expected %s", test.a, test.rel, test.b, res, test.expected)
		}
	}
}

func TestRangeWiden(t *testing.T) {
	tests := []struct {
		prev, next, expected Range
	}{
		{Span(0, 1), Span(0, 2), RangeBot()},
		{Span(0, 1), Span(-1, 1), RangeBot()},
		{Span(0, 2), Span(0, 2), Span(0, 2)},
		{RangeTop(), Span(0, 2), Span(0, 2)},
		{Span(0, 2), RangeBot(), RangeBot()},
	}

	for _, test := range tests {
		res := test.prev.Widen(test.next)
		if !res.Eq(test.expected) {
			t.Errorf("%s ∇ %s = %s, expected %s", test.prev, test.next, res, test.expected)
		}
	}
}

func TestRangeString(t *testing.T) {
	for r, expected := range map[Range]string{
		RangeTop():  "⊤",
		RangeBot():  "⊥",
		Span(-1, 4): "[-1:4]",
		Point(3):    "[3:3]",
	} {
		if r.String() != expected {
			t.Errorf("Expected %q, got %q", expected, r.String())
		}
	}
}
