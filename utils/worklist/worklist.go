package worklist

type Worklist[T any] struct {
	list []T
}

func Empty[T any]() Worklist[T] {
	return Worklist[T]{}
}

func (w *Worklist[T]) GetNext() (ret T) {
	if len(w.list) == 0 {
		return
	}
	next := w.list[0]
	w.list = w.list[1:]
	return next
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

func (w *Worklist[T]) Process(
	do func(
		next T,
		add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}

// Unique is a FIFO worklist that ignores additions of elements that are
// already queued. An element may be queued again once it has been removed.
type Unique[T comparable] struct {
	Worklist[T]
	queued map[T]struct{}
}

// StartUnique runs a deduplicating worklist preloaded with `start`.
func StartUnique[T comparable](start []T, do func(next T, add func(el T))) {
	W := EmptyUnique[T]()
	for _, e := range start {
		W.Add(e)
	}

	W.Process(do)
}

func EmptyUnique[T comparable]() *Unique[T] {
	return &Unique[T]{queued: make(map[T]struct{})}
}

func (w *Unique[T]) Add(el T) {
	if _, found := w.queued[el]; found {
		return
	}
	w.queued[el] = struct{}{}
	w.Worklist.Add(el)
}

func (w *Unique[T]) GetNext() T {
	next := w.Worklist.GetNext()
	delete(w.queued, next)
	return next
}

func (w *Unique[T]) Process(
	do func(
		next T,
		add func(element T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}
