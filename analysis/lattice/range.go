package lattice

import (
	"fmt"
	"math"
	"strconv"
)

// Range is a member of the lattice of finite integer intervals, extended
// with ⊤ (no information) and ⊥ (unknown value). A valued range [low:high]
// always satisfies low ≤ high.
type Range struct {
	kind      Kind
	low, high int
}

// RangeTop yields ⊤.
func RangeTop() Range {
	return Range{kind: TopKind}
}

// RangeBot yields ⊥.
func RangeBot() Range {
	return Range{kind: BotKind}
}

// Span creates the range [low:high]. It panics if low > high.
func Span(low, high int) Range {
	if low > high {
		panic(fmt.Sprintf("invalid range [%d:%d]", low, high))
	}
	return Range{kind: ValueKind, low: low, high: high}
}

// Point creates the singleton range [v:v].
func Point(v int) Range {
	return Span(v, v)
}

func (r Range) Kind() Kind {
	return r.kind
}

func (r Range) IsTop() bool {
	return r.kind == TopKind
}

func (r Range) IsBot() bool {
	return r.kind == BotKind
}

// IsValued holds for ranges that are neither ⊤ nor ⊥.
func (r Range) IsValued() bool {
	return r.kind == ValueKind
}

// Join computes r1 ⊔ r2:
//
//	.------------------------------------------.
//	|     r1      |     r2      |    r1 ⊔ r2    |
//	|=============|=============|===============|
//	|      ⊤      |    ∀ r2     |      r2       |
//	|-------------|-------------|---------------|
//	|    ∀ r1     |      ⊤      |      r1       |
//	|-------------|-------------|---------------|
//	|      ⊥      |    ⊥, [·]   |       ⊥       |
//	|-------------|-------------|---------------|
//	|     [·]     |      ⊥      |       ⊥       |
//	|-------------|-------------|---------------|
//	|   [l1:h1]   |   [l2:h2]   | [min l:max h] |
//	 ------------------------------------------
func (r1 Range) Join(r2 Range) Range {
	switch {
	case r1.kind == TopKind:
		return r2
	case r2.kind == TopKind:
		return r1
	case r1.kind == ValueKind && r2.kind == ValueKind:
		return Range{
			kind: ValueKind,
			low:  minInt(r1.low, r2.low),
			high: maxInt(r1.high, r2.high),
		}
	}
	return RangeBot()
}

// Widen extrapolates the range of a loop head from its previous value. The
// result is prev ⊔ next, except that a range whose bounds grew is sent
// directly to ⊥.
func (prev Range) Widen(next Range) Range {
	j := prev.Join(next)
	if prev.kind == ValueKind && j.kind == ValueKind && j != prev {
		return RangeBot()
	}
	return j
}

// Eq checks for equality with another range.
func (r1 Range) Eq(r2 Range) bool {
	return r1 == r2
}

// Height is 2 for ⊤, 1 for intervals and 0 for ⊥.
func (r Range) Height() int {
	switch r.kind {
	case TopKind:
		return 2
	case ValueKind:
		return 1
	}
	return 0
}

func (r Range) String() string {
	switch r.kind {
	case TopKind:
		return colorize.Top("⊤")
	case BotKind:
		return colorize.Bot("⊥")
	}
	return colorize.Element("[" + strconv.Itoa(r.low) + ":" + strconv.Itoa(r.high) + "]")
}

// AddRange computes [l1:h1] + [l2:h2] = [l1+l2 : h1+h2].
// The result is ⊥ unless both operands are intervals.
func AddRange(a, b Range) Range {
	if !a.IsValued() || !b.IsValued() {
		return RangeBot()
	}
	low, ok1 := addChecked(a.low, b.low)
	high, ok2 := addChecked(a.high, b.high)
	if !ok1 || !ok2 {
		return RangeBot()
	}
	return Span(low, high)
}

// SubRange computes [l1:h1] - [l2:h2] = [l1-h2 : h1-l2].
// The result is ⊥ unless both operands are intervals.
func SubRange(a, b Range) Range {
	if !a.IsValued() || !b.IsValued() {
		return RangeBot()
	}
	low, ok1 := subChecked(a.low, b.high)
	high, ok2 := subChecked(a.high, b.low)
	if !ok1 || !ok2 {
		return RangeBot()
	}
	return Span(low, high)
}

// MulRange computes the smallest interval enclosing the four corner
// products of the operands.
// The result is ⊥ unless both operands are intervals.
func MulRange(a, b Range) Range {
	if !a.IsValued() || !b.IsValued() {
		return RangeBot()
	}
	return corners(a, b.low, b.high, mulChecked)
}

// DivRange computes the smallest interval enclosing the four corner
// quotients of the operands, using truncating division.
//
// Dividing by exactly [0:0] fails with ErrDivisionByZero. A divisor bound
// equal to zero is replaced by the adjacent non-zero value of the divisor.
// When the divisor straddles zero the corners do not cover the quotients
// obtained for divisors close to zero, so the result may be unsound.
func DivRange(a, b Range) (Range, error) {
	if !a.IsValued() || !b.IsValued() {
		return RangeBot(), nil
	}
	if b.low == 0 && b.high == 0 {
		return RangeBot(), ErrDivisionByZero
	}

	low, high := b.low, b.high
	if low == 0 {
		low = 1
	}
	if high == 0 {
		high = -1
	}
	return corners(a, low, high, divChecked), nil
}

// Relation selects the comparison performed by CompareRange.
type Relation int

const (
	RelEq Relation = iota
	RelNe
	RelLt
	RelLe
)

func (r Relation) String() string {
	switch r {
	case RelEq:
		return "=="
	case RelNe:
		return "!="
	case RelLt:
		return "<"
	}
	return "<="
}

var (
	rangeTrue  = Point(1)
	rangeFalse = Point(0)
	rangeBool  = Span(0, 1)
)

// CompareRange abstracts a comparison between two intervals as the boolean
// interval [1:1] (always holds), [0:0] (never holds) or [0:1].
// The result is ⊥ unless both operands are intervals.
func CompareRange(rel Relation, a, b Range) Range {
	if !a.IsValued() || !b.IsValued() {
		return RangeBot()
	}

	var always, never bool
	switch rel {
	case RelEq, RelNe:
		always = a.low == a.high && b.low == b.high && a.low == b.low
		never = a.high < b.low || b.high < a.low
		if rel == RelNe {
			always, never = never, always
		}
	case RelLt:
		always = a.high < b.low
		never = a.low >= b.high
	case RelLe:
		always = a.high <= b.low
		never = a.low > b.high
	}

	switch {
	case always:
		return rangeTrue
	case never:
		return rangeFalse
	}
	return rangeBool
}

// corners encloses f applied to the four corners. Any overflowing corner
// makes the result ⊥.
func corners(a Range, low, high int, f func(int, int) (int, bool)) Range {
	var cs [4]int
	for i, xy := range [4][2]int{{a.low, low}, {a.low, high}, {a.high, low}, {a.high, high}} {
		c, ok := f(xy[0], xy[1])
		if !ok {
			return RangeBot()
		}
		cs[i] = c
	}
	return Span(
		minInt(minInt(cs[0], cs[1]), minInt(cs[2], cs[3])),
		maxInt(maxInt(cs[0], cs[1]), maxInt(cs[2], cs[3])),
	)
}

func addChecked(x, y int) (int, bool) {
	s := x + y
	// Overflow iff both operands share a sign that the sum lacks.
	return s, (x >= 0) != (y >= 0) || (s >= 0) == (x >= 0)
}

func subChecked(x, y int) (int, bool) {
	d := x - y
	return d, (x >= 0) == (y >= 0) || (d >= 0) == (x >= 0)
}

func mulChecked(x, y int) (int, bool) {
	p := x * y
	if x == 0 || y == 0 {
		return 0, true
	}
	if (x == -1 && y == math.MinInt) || (y == -1 && x == math.MinInt) {
		return p, false
	}
	return p, p/x == y
}

func divChecked(x, y int) (int, bool) {
	if x == math.MinInt && y == -1 {
		return x, false
	}
	return x / y, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
