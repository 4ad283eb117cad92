// Package reconcile matches the elements of two successive frames by key.
//
// [Diff] splits the next frame into entering and updating elements and
// reports which elements of the previous frame exit. Renderers use the
// split to animate: entering elements grow from a start position, updating
// elements move from their previous state, exiting elements shrink away.
package reconcile

// Update pairs an element with its counterpart in the previous frame.
type Update[T any] struct {
	Prev T
	Next T
}

// Result is the outcome of [Diff].
type Result[T any] struct {
	// Entering holds next-frame elements with no previous counterpart, in
	// next-frame order.
	Entering []T

	// Updating holds elements present in both frames, in next-frame order.
	Updating []Update[T]

	// Exiting holds previous-frame elements absent from the next frame, in
	// previous-frame order.
	Exiting []T
}

// Empty reports whether the frames are identical by key and nothing moves
// in or out.
func (r Result[T]) Empty() bool {
	return len(r.Entering) == 0 && len(r.Exiting) == 0
}

// Diff matches prev and next by key. Keys should be unique within a frame;
// when they are not, only the first element with a key takes part.
func Diff[T any, K comparable](prev, next []T, key func(T) K) Result[T] {
	before := make(map[K]T, len(prev))
	for _, p := range prev {
		k := key(p)
		if _, dup := before[k]; !dup {
			before[k] = p
		}
	}

	var res Result[T]
	seen := make(map[K]bool, len(next))
	for _, n := range next {
		k := key(n)
		if seen[k] {
			continue
		}
		seen[k] = true
		if p, ok := before[k]; ok {
			res.Updating = append(res.Updating, Update[T]{Prev: p, Next: n})
		} else {
			res.Entering = append(res.Entering, n)
		}
	}

	done := make(map[K]bool, len(prev))
	for _, p := range prev {
		k := key(p)
		if seen[k] || done[k] {
			continue
		}
		done[k] = true
		res.Exiting = append(res.Exiting, p)
	}
	return res
}

// Keys returns the keys of elems in order.
func Keys[T any, K comparable](elems []T, key func(T) K) []K {
	out := make([]K, len(elems))
	for i, e := range elems {
		out[i] = key(e)
	}
	return out
}
