package lattice

// Liveness is the two-element lattice DEAD ⊑ REACHABLE.
type Liveness bool

const (
	Dead      Liveness = false
	Reachable Liveness = true
)

// Join computes l1 ⊔ l2.
func (l1 Liveness) Join(l2 Liveness) Liveness {
	return l1 || l2
}

func (l Liveness) String() string {
	if l {
		return colorize.Live("REACHABLE")
	}
	return colorize.Dead("DEAD")
}

// Reachability tracks whether the outgoing edges of a block may be taken.
// At a block entry, FallThrough records whether the block itself is live.
type Reachability struct {
	FallThrough Liveness
	Taken       Liveness
}

// Unreachable yields the reachability where both edges are dead.
func Unreachable() Reachability {
	return Reachability{}
}

// IsDead holds when neither edge may be taken.
func (r Reachability) IsDead() bool {
	return r.FallThrough == Dead && r.Taken == Dead
}

// Join computes the edge-wise join.
func (r1 Reachability) Join(r2 Reachability) Reachability {
	return Reachability{
		FallThrough: r1.FallThrough.Join(r2.FallThrough),
		Taken:       r1.Taken.Join(r2.Taken),
	}
}

func (r Reachability) String() string {
	return "[" + r.FallThrough.String() + ", w/ branch :" + r.Taken.String() + "]"
}
