// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/utils/set"
)

// ORSet is an add-wins observed-remove set: each element maps to the set of
// unique tags under which it was added. An element is present iff its
// tag-set is nonempty after merge. Add-wins falls out naturally: a
// concurrent add and remove touch distinct tags, so the add's tag survives
// the remove, which can only erase tags it actually observed.
type ORSet struct {
	mu      sync.RWMutex
	id      string
	entries map[string]set.Set[string] // element (JSON-encoded) -> tag set
	clock   *coordcore.VectorClock
}

// NewORSet returns an empty set.
func NewORSet(id string) *ORSet {
	return &ORSet{id: id, entries: make(map[string]set.Set[string]), clock: coordcore.NewVectorClock()}
}

func encodeElement(elt any) (string, error) {
	b, err := json.Marshal(elt)
	if err != nil {
		return "", coordcore.Wrap(coordcore.KindSerializationError, "ORSet: encode element", err)
	}
	return string(b), nil
}

// Add inserts elt under a freshly generated unique tag, attributed to node.
// Returns the tag so callers can later target the exact add they made (e.g.
// for an add-then-remove-my-own-add sequence).
func (s *ORSet) Add(node coordcore.NodeID, elt any) (string, error) {
	key, err := encodeElement(elt)
	if err != nil {
		return "", err
	}
	tag := string(node) + "/" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	tags, ok := s.entries[key]
	if !ok {
		tags = set.NewSet[string](1)
	}
	tags.Add(tag)
	s.entries[key] = tags
	s.clock.Increment(node)
	return tag, nil
}

// Remove erases every tag this replica currently observes for elt. Tags
// added concurrently elsewhere and not yet merged in are untouched, which is
// exactly the "remove only erases observed tags" rule.
func (s *ORSet) Remove(node coordcore.NodeID, elt any) error {
	key, err := encodeElement(elt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	s.clock.Increment(node)
	return nil
}

// Contains reports whether elt has at least one surviving tag.
func (s *ORSet) Contains(elt any) (bool, error) {
	key, err := encodeElement(elt)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags, ok := s.entries[key]
	return ok && tags.Len() > 0, nil
}

// Elements returns the JSON-encoded elements currently present.
func (s *ORSet) Elements() []json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]json.RawMessage, 0, len(s.entries))
	for key, tags := range s.entries {
		if tags.Len() > 0 {
			out = append(out, json.RawMessage(key))
		}
	}
	return out
}

// Merge unions the tag-sets of matching elements. This is commutative (set
// union is symmetric), associative, and idempotent (union with self is a
// no-op), and preserves add-wins semantics across replicas.
func (s *ORSet) Merge(other Value) error {
	o, ok := other.(*ORSet)
	if !ok {
		return coordcore.New(coordcore.KindCRDTError, "ORSet.Merge: type mismatch")
	}
	o.mu.RLock()
	snapshot := make(map[string]set.Set[string], len(o.entries))
	for k, v := range o.entries {
		cp := set.NewSet[string](v.Len())
		cp.Union(v)
		snapshot[k] = cp
	}
	oClock := o.clock
	o.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, tags := range snapshot {
		existing, ok := s.entries[key]
		if !ok {
			existing = set.NewSet[string](tags.Len())
		}
		existing.Union(tags)
		s.entries[key] = existing
	}
	s.clock.Merge(oClock)
	return nil
}

// Value renders the current elements as a JSON array.
func (s *ORSet) Value() (json.RawMessage, error) {
	elts := s.Elements()
	parts := make([]json.RawMessage, len(elts))
	copy(parts, elts)
	return json.Marshal(parts)
}

// CRDTID implements Value.
func (s *ORSet) CRDTID() string { return s.id }

// VectorClock implements Causal.
func (s *ORSet) VectorClock() *coordcore.VectorClock { return s.clock }

// AdvanceClock implements Causal.
func (s *ORSet) AdvanceClock(node coordcore.NodeID) uint64 { return s.clock.Increment(node) }

// HasSeen implements Causal.
func (s *ORSet) HasSeen(clock *coordcore.VectorClock) bool { return s.clock.Dominates(clock) }
