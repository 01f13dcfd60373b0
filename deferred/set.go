// Package deferred provides a set that tolerates Add and Remove calls while it
// is being iterated. Mutations issued during an iteration are buffered and
// applied once the outermost iteration ends.
package deferred

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Set is not safe for concurrent use. The buffering exists for re-entrant
// mutation from inside Each, not for multiple goroutines.
type Set[T comparable] struct {
	items mapset.Set[T]

	// lock depth, > 0 while an iteration is in progress
	depth    int
	toAdd    mapset.Set[T]
	toRemove mapset.Set[T]
}

func New[T comparable]() *Set[T] {
	return &Set[T]{
		items:    mapset.NewThreadUnsafeSet[T](),
		toAdd:    mapset.NewThreadUnsafeSet[T](),
		toRemove: mapset.NewThreadUnsafeSet[T](),
	}
}

// Add inserts v, or schedules the insertion if the set is locked. A pending
// removal of v is cancelled.
func (s *Set[T]) Add(v T) {
	if s.depth > 0 {
		s.toAdd.Add(v)
		s.toRemove.Remove(v)
		return
	}
	s.items.Add(v)
}

// Remove deletes v, or schedules the deletion if the set is locked. A pending
// insertion of v is cancelled.
func (s *Set[T]) Remove(v T) {
	if s.depth > 0 {
		s.toRemove.Add(v)
		s.toAdd.Remove(v)
		return
	}
	s.items.Remove(v)
}

// Lock starts an iteration. Locks nest; pending changes are flushed by the
// Unlock matching the outermost Lock.
func (s *Set[T]) Lock() {
	s.depth++
}

func (s *Set[T]) Unlock() {
	if s.depth == 0 {
		return
	}
	s.depth--
	if s.depth == 0 {
		s.flush()
	}
}

func (s *Set[T]) Locked() bool {
	return s.depth > 0
}

func (s *Set[T]) flush() {
	if s.toAdd.Cardinality() > 0 {
		s.toAdd.Each(func(v T) bool {
			s.items.Add(v)
			return false
		})
		s.toAdd.Clear()
	}
	if s.toRemove.Cardinality() > 0 {
		s.toRemove.Each(func(v T) bool {
			s.items.Remove(v)
			return false
		})
		s.toRemove.Clear()
	}
}

// Each calls fn for every live member until fn returns false. The set is
// locked for the duration of the walk, so fn may freely Add and Remove.
func (s *Set[T]) Each(fn func(v T) bool) {
	s.Lock()
	defer s.Unlock()

	s.items.Each(func(v T) bool {
		return !fn(v)
	})
}

// Contains reports live membership, ignoring pending changes.
func (s *Set[T]) Contains(v T) bool {
	return s.items.Contains(v)
}

// Pending reports whether v has a buffered insertion.
func (s *Set[T]) Pending(v T) bool {
	return s.toAdd.Contains(v)
}

func (s *Set[T]) Len() int {
	return s.items.Cardinality()
}

func (s *Set[T]) ToSlice() []T {
	return s.items.ToSlice()
}

// Clear empties the set. While locked the live members are scheduled for
// removal instead.
func (s *Set[T]) Clear() {
	if s.depth > 0 {
		s.toAdd.Clear()
		s.items.Each(func(v T) bool {
			s.toRemove.Add(v)
			return false
		})
		return
	}
	s.items.Clear()
}
