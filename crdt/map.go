// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/json"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// mapEntry pairs a live CRDT value with the clock of its last tombstone, if
// any. A key with a non-nil value and a tombstone clock is "revived" once a
// later Put's clock dominates the tombstone.
type mapEntry struct {
	value     Causal
	tombstone *coordcore.VectorClock // nil if never removed
}

// Map is a key/value CRDT where each key holds an arbitrary Causal value and
// carries its own causal tombstone on removal. Insertions and per-value
// merges commute; a Put with a clock dominating a tombstone revives the key.
type Map struct {
	mu      sync.RWMutex
	id      string
	entries map[string]*mapEntry
	clock   *coordcore.VectorClock
}

// NewMap returns an empty CRDT-map.
func NewMap(id string) *Map {
	return &Map{id: id, entries: make(map[string]*mapEntry), clock: coordcore.NewVectorClock()}
}

// Put installs v under key, advancing node's clock. If key already holds a
// value, v is merged into it rather than replacing it outright; if key was
// tombstoned, v revives the key only when v's clock dominates the
// tombstone's clock.
func (m *Map) Put(key string, v Causal, node coordcore.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.Increment(node)

	entry, ok := m.entries[key]
	if !ok {
		m.entries[key] = &mapEntry{value: v}
		return nil
	}
	if entry.tombstone != nil {
		if !v.VectorClock().Dominates(entry.tombstone) {
			return nil // stale put against a removal it never observed
		}
		entry.tombstone = nil
		entry.value = v
		return nil
	}
	if entry.value == nil {
		entry.value = v
		return nil
	}
	return entry.value.Merge(v)
}

// Remove installs a tombstone for key at node's current clock. A
// subsequent Put only revives the key if its clock dominates this
// tombstone.
func (m *Map) Remove(key string, node coordcore.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.Increment(node)

	entry, ok := m.entries[key]
	if !ok {
		entry = &mapEntry{}
		m.entries[key] = entry
	}
	entry.tombstone = m.clock.Clone()
	entry.value = nil
}

// Get returns the live value for key, or (nil, false) if absent/tombstoned.
func (m *Map) Get(key string) (Causal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok || entry.value == nil || entry.tombstone != nil {
		return nil, false
	}
	return entry.value, true
}

// Keys returns the keys currently holding a live (non-tombstoned) value.
func (m *Map) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.entries))
	for k, e := range m.entries {
		if e.value != nil && e.tombstone == nil {
			out = append(out, k)
		}
	}
	return out
}

// Merge combines per-key CRDTs: values merge with values, and tombstone
// clocks are compared to decide which side's removal (if any) wins. Because
// merging is pairwise-commutative and per-key merges are themselves
// commutative/associative/idempotent, the whole map inherits those
// properties.
func (m *Map) Merge(other Value) error {
	o, ok := other.(*Map)
	if !ok {
		return coordcore.New(coordcore.KindCRDTError, "Map.Merge: type mismatch")
	}
	o.mu.RLock()
	keys := make([]string, 0, len(o.entries))
	snapshot := make(map[string]*mapEntry, len(o.entries))
	for k, e := range o.entries {
		keys = append(keys, k)
		snapshot[k] = e
	}
	oClock := o.clock
	o.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		oe := snapshot[k]
		me, ok := m.entries[k]
		if !ok {
			me = &mapEntry{}
			m.entries[k] = me
		}
		mergeEntry(me, oe)
	}
	m.clock.Merge(oClock)
	return nil
}

func mergeEntry(dst, src *mapEntry) {
	// Merge values if both sides have one.
	switch {
	case dst.value != nil && src.value != nil:
		_ = dst.value.Merge(src.value)
	case dst.value == nil && src.value != nil:
		dst.value = src.value
	}

	switch {
	case dst.tombstone == nil && src.tombstone != nil:
		dst.tombstone = src.tombstone.Clone()
	case dst.tombstone != nil && src.tombstone != nil:
		if src.tombstone.Dominates(dst.tombstone) {
			dst.tombstone = src.tombstone.Clone()
		}
	}

	// A tombstone only suppresses the value if the value's own clock does
	// not dominate it (i.e. the value was not written after the removal
	// was observed).
	if dst.tombstone != nil && dst.value != nil && dst.value.VectorClock().Dominates(dst.tombstone) {
		dst.tombstone = nil
	}
}

// Value renders the live keys mapped to their current logical values.
func (m *Map) Value() (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(m.entries))
	for k, e := range m.entries {
		if e.value == nil || e.tombstone != nil {
			continue
		}
		v, err := e.value.Value()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return json.Marshal(out)
}

// CRDTID implements Value.
func (m *Map) CRDTID() string { return m.id }

// VectorClock implements Causal.
func (m *Map) VectorClock() *coordcore.VectorClock { return m.clock }

// AdvanceClock implements Causal.
func (m *Map) AdvanceClock(node coordcore.NodeID) uint64 { return m.clock.Increment(node) }

// HasSeen implements Causal.
func (m *Map) HasSeen(clock *coordcore.VectorClock) bool { return m.clock.Dominates(clock) }
