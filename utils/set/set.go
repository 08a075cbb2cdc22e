// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package set provides the small generic set type the CRDT layer uses for
// observed-remove tags and the federation layer uses for per-peer block
// bookkeeping.
package set

import (
	"encoding/json"

	"golang.org/x/exp/maps"
)

// Set is an unordered collection of unique comparable elements. The zero
// value is ready to use; Add allocates on first insert.
type Set[T comparable] map[T]struct{}

// Of builds a set holding elts.
func Of[T comparable](elts ...T) Set[T] {
	s := make(Set[T], len(elts))
	for _, e := range elts {
		s[e] = struct{}{}
	}
	return s
}

// NewSet returns an empty set sized for the expected element count.
func NewSet[T comparable](size int) Set[T] {
	if size < 0 {
		size = 0
	}
	return make(Set[T], size)
}

// Add inserts elts, ignoring elements already present.
func (s *Set[T]) Add(elts ...T) {
	if *s == nil {
		*s = make(Set[T], len(elts))
	}
	for _, e := range elts {
		(*s)[e] = struct{}{}
	}
}

// Remove deletes elts; absent elements are a no-op.
func (s Set[T]) Remove(elts ...T) {
	for _, e := range elts {
		delete(s, e)
	}
}

// Contains reports whether elt is in the set.
func (s Set[T]) Contains(elt T) bool {
	_, ok := s[elt]
	return ok
}

// Len returns the number of elements.
func (s Set[T]) Len() int { return len(s) }

// Union adds every element of other to s.
func (s *Set[T]) Union(other Set[T]) {
	if *s == nil && len(other) > 0 {
		*s = make(Set[T], len(other))
	}
	for e := range other {
		(*s)[e] = struct{}{}
	}
}

// Difference removes every element of other from s.
func (s Set[T]) Difference(other Set[T]) {
	for e := range other {
		delete(s, e)
	}
}

// List returns the elements in unspecified order.
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// Equals reports whether s and other hold exactly the same elements.
func (s Set[T]) Equals(other Set[T]) bool {
	if len(s) != len(other) {
		return false
	}
	for e := range s {
		if _, ok := other[e]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON renders the set as a JSON array.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON reads a JSON array into the set.
func (s *Set[T]) UnmarshalJSON(b []byte) error {
	var elts []T
	if err := json.Unmarshal(b, &elts); err != nil {
		return err
	}
	*s = Of(elts...)
	return nil
}
