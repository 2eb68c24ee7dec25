package lattice

import "strconv"

// Constant is a member of the flat lattice of integer constants:
//
//	        ⊤
//	 ... -1 0 1 ...
//	        ⊥
type Constant struct {
	kind  Kind
	value int
}

// ConstTop yields ⊤.
func ConstTop() Constant {
	return Constant{kind: TopKind}
}

// ConstBot yields ⊥.
func ConstBot() Constant {
	return Constant{kind: BotKind}
}

// Const yields the element representing the constant v.
func Const(v int) Constant {
	return Constant{kind: ValueKind, value: v}
}

// Bool encodes a truth value as the constant 0 or 1.
func Bool(b bool) Constant {
	if b {
		return Const(1)
	}
	return Const(0)
}

func (c Constant) Kind() Kind {
	return c.kind
}

func (c Constant) IsTop() bool {
	return c.kind == TopKind
}

func (c Constant) IsBot() bool {
	return c.kind == BotKind
}

// Value unpacks the constant. The second result is false for ⊤ and ⊥.
func (c Constant) Value() (int, bool) {
	return c.value, c.kind == ValueKind
}

// Join computes c1 ⊔ c2:
//
//	.--------------------------------.
//	|   c1   |   c2   |    c1 ⊔ c2   |
//	|========|========|==============|
//	|   ⊤    |  ∀ c2  |      c2      |
//	|--------|--------|--------------|
//	|  ∀ c1  |   ⊤    |      c1      |
//	|--------|--------|--------------|
//	|   n    |   n    |      n       |
//	|--------|--------|--------------|
//	|   otherwise     |      ⊥       |
//	 --------------------------------
func (c1 Constant) Join(c2 Constant) Constant {
	switch {
	case c1.kind == TopKind:
		return c2
	case c2.kind == TopKind:
		return c1
	case c1 == c2:
		return c1
	}
	return ConstBot()
}

// Eq checks for equality with another constant.
func (c1 Constant) Eq(c2 Constant) bool {
	return c1 == c2
}

// Height is 2 for ⊤, 1 for constants and 0 for ⊥.
func (c Constant) Height() int {
	switch c.kind {
	case TopKind:
		return 2
	case ValueKind:
		return 1
	}
	return 0
}

func (c Constant) String() string {
	switch c.kind {
	case TopKind:
		return colorize.Top("⊤")
	case BotKind:
		return colorize.Bot("⊥")
	}
	return colorize.Element(strconv.Itoa(c.value))
}
