package lattice

import (
	"errors"

	"github.com/cs-au-dk/regflow/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Top     func(...interface{}) string
	Bot     func(...interface{}) string
	Element func(...interface{}) string
	Dead    func(...interface{}) string
	Live    func(...interface{}) string
}{
	Top: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiBlack).SprintFunc())(is...)
	},
	Bot: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgRed).SprintFunc())(is...)
	},
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgGreen).SprintFunc())(is...)
	},
	Dead: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgRed).SprintFunc())(is...)
	},
	Live: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgGreen).SprintFunc())(is...)
	},
}

// ErrDivisionByZero is returned when a divisor is known to be exactly zero.
var ErrDivisionByZero = errors.New("division by zero")

// Kind discriminates the members of the constant and range lattices.
type Kind uint8

const (
	// TopKind is ⊤: no information has been gathered yet.
	TopKind Kind = iota
	// BotKind is ⊥: the value is unknown.
	BotKind
	// ValueKind marks elements carrying a constant or a range.
	ValueKind
)

func (k Kind) String() string {
	switch k {
	case TopKind:
		return "⊤"
	case BotKind:
		return "⊥"
	}
	return "value"
}

// Element is implemented by the per-register abstract values. Elements are
// plain values, so == is lattice equality.
//
// The order runs from ⊤ (no information) down to ⊥ (unknown): ⊤ is the
// identity of Join and ⊥ absorbs every element.
type Element[E any] interface {
	comparable

	Join(E) E
	IsTop() bool
	IsBot() bool
	String() string
	// Height is the distance from ⊥. Join never increases it.
	Height() int
}
