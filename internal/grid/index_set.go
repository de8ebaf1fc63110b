// Package grid implements the per-task progress grid: the persisted set of
// filled cells, the lookup between cells and linked subtasks, and the
// controller that keeps both in sync with the task record.
package grid

import "sort"

// IndexSet is a set of filled cell indices.
type IndexSet map[int]struct{}

// NewIndexSet builds a set from the given indices, ignoring duplicates.
func NewIndexSet(indices ...int) IndexSet {
	s := make(IndexSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

// DefaultIndexSet is the set {0 .. n-1} used for tasks that predate
// per-cell storage.
func DefaultIndexSet(n int) IndexSet {
	s := make(IndexSet, n)
	for i := 0; i < n; i++ {
		s[i] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s IndexSet) Has(i int) bool {
	_, ok := s[i]
	return ok
}

// Add inserts i.
func (s IndexSet) Add(i int) {
	s[i] = struct{}{}
}

// Remove deletes i.
func (s IndexSet) Remove(i int) {
	delete(s, i)
}

// Toggle flips membership of i and reports whether it is now filled.
func (s IndexSet) Toggle(i int) bool {
	if s.Has(i) {
		s.Remove(i)
		return false
	}
	s.Add(i)
	return true
}

// Len is the number of filled cells.
func (s IndexSet) Len() int {
	return len(s)
}

// Sorted enumerates the set in ascending order.
func (s IndexSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Clone copies the set.
func (s IndexSet) Clone() IndexSet {
	c := make(IndexSet, len(s))
	for i := range s {
		c[i] = struct{}{}
	}
	return c
}

// Clamp drops every index outside [0, size) and reports how many were dropped.
func (s IndexSet) Clamp(size int) int {
	dropped := 0
	for i := range s {
		if i < 0 || i >= size {
			delete(s, i)
			dropped++
		}
	}
	return dropped
}
