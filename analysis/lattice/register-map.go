package lattice

import (
	"strconv"
	"strings"

	"github.com/benbjohnson/immutable"
)

// registerComparer orders registers by index.
type registerComparer struct{}

func (registerComparer) Compare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// RegisterMap is a persistent map from register indices to lattice elements.
// Updates return a new map and leave the receiver untouched, so states can
// be shared freely between blocks.
//
// A register that is absent from the map is ⊤ for the purposes of Join.
// Readers decide how to interpret undefined registers.
// The zero value is the empty map.
type RegisterMap[E Element[E]] struct {
	mp *immutable.SortedMap[int, E]
}

// NewRegisterMap creates an empty register map.
func NewRegisterMap[E Element[E]]() RegisterMap[E] {
	return RegisterMap[E]{immutable.NewSortedMap[int, E](registerComparer{})}
}

// Len returns the number of registers bound in the map.
func (m RegisterMap[E]) Len() int {
	if m.mp == nil {
		return 0
	}
	return m.mp.Len()
}

// Get retrieves the element bound to reg.
func (m RegisterMap[E]) Get(reg int) (e E, found bool) {
	if m.mp == nil {
		return
	}
	return m.mp.Get(reg)
}

// Set binds reg to e.
func (m RegisterMap[E]) Set(reg int, e E) RegisterMap[E] {
	mp := m.mp
	if mp == nil {
		mp = immutable.NewSortedMap[int, E](registerComparer{})
	}
	return RegisterMap[E]{mp.Set(reg, e)}
}

// ForEach visits the bindings in ascending register order.
func (m RegisterMap[E]) ForEach(do func(reg int, e E)) {
	if m.mp == nil {
		return
	}
	iter := m.mp.Iterator()
	for !iter.Done() {
		reg, e, _ := iter.Next()
		do(reg, e)
	}
}

// Registers lists the bound registers in ascending order.
func (m RegisterMap[E]) Registers() []int {
	regs := make([]int, 0, m.Len())
	m.ForEach(func(reg int, _ E) {
		regs = append(regs, reg)
	})
	return regs
}

// Eq checks that both maps bind the same registers to equal elements.
func (m1 RegisterMap[E]) Eq(m2 RegisterMap[E]) bool {
	if m1.mp == m2.mp {
		return true
	}
	if m1.Len() != m2.Len() {
		return false
	}
	eq := true
	m1.ForEach(func(reg int, e1 E) {
		if !eq {
			return
		}
		e2, found := m2.Get(reg)
		eq = found && e1 == e2
	})
	return eq
}

// Join computes the point-wise join. Registers bound in only one of the maps
// keep their binding, as absent registers are ⊤.
func (m1 RegisterMap[E]) Join(m2 RegisterMap[E]) RegisterMap[E] {
	switch {
	case m1.Len() == 0:
		return m2
	case m2.Len() == 0:
		return m1
	}

	res := m1
	m2.ForEach(func(reg int, e2 E) {
		if e1, found := res.Get(reg); found {
			if j := e1.Join(e2); j != e1 {
				res = res.Set(reg, j)
			}
		} else {
			res = res.Set(reg, e2)
		}
	})
	return res
}

// String renders the map as [R<idx>=<value>, ...].
func (m RegisterMap[E]) String() string {
	strs := make([]string, 0, m.Len())
	m.ForEach(func(reg int, e E) {
		strs = append(strs, "R"+strconv.Itoa(reg)+"="+e.String())
	})
	return "[" + strings.Join(strs, ", ") + "]"
}
