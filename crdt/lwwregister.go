// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/json"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// lwwTuple is the (timestamp, sequence, writer) ordering key. Two writes
// compare lexicographically on (Timestamp, Sequence, Writer); ties are
// impossible once Writer is included because NodeID values are distinct
// per writer, giving a deterministic total order.
type lwwTuple struct {
	Timestamp uint64
	Sequence  uint64
	Writer    coordcore.NodeID
}

// less reports whether t sorts strictly before o.
func (t lwwTuple) less(o lwwTuple) bool {
	if t.Timestamp != o.Timestamp {
		return t.Timestamp < o.Timestamp
	}
	if t.Sequence != o.Sequence {
		return t.Sequence < o.Sequence
	}
	return t.Writer < o.Writer
}

// LWWRegister stores a single JSON-encodable value with last-write-wins
// semantics. A write is accepted iff its (timestamp, sequence, writer) tuple
// strictly exceeds the currently stored tuple.
type LWWRegister struct {
	mu      sync.RWMutex
	id      string
	value   json.RawMessage
	hasVal  bool
	tuple   lwwTuple
	hasTupl bool
	clock   *coordcore.VectorClock
}

// NewLWWRegister returns an empty register; an empty register always
// accepts its first write.
func NewLWWRegister(id string) *LWWRegister {
	return &LWWRegister{id: id, clock: coordcore.NewVectorClock()}
}

// Write applies a write carrying (value, ts, node, seq). ts is expected to
// be the post-increment clock value for node (the caller typically obtains
// it from AdvanceClock before calling Write).
func (r *LWWRegister) Write(value json.RawMessage, ts uint64, node coordcore.NodeID, seq uint64) {
	incoming := lwwTuple{Timestamp: ts, Sequence: seq, Writer: node}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasTupl || r.tuple.less(incoming) {
		r.value = value
		r.hasVal = true
		r.tuple = incoming
		r.hasTupl = true
	}
	r.clock.Set(node, ts)
}

// Clear removes the current value via the same tuple-ordering rule as
// Write, so a concurrent later write still wins over a clear.
func (r *LWWRegister) Clear(ts uint64, node coordcore.NodeID, seq uint64) {
	incoming := lwwTuple{Timestamp: ts, Sequence: seq, Writer: node}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasTupl || r.tuple.less(incoming) {
		r.value = nil
		r.hasVal = false
		r.tuple = incoming
		r.hasTupl = true
	}
	r.clock.Set(node, ts)
}

// Get returns the current value and whether one is set.
func (r *LWWRegister) Get() (json.RawMessage, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.hasVal
}

// Merge keeps whichever of the two registers' tuples is greater. Merge is
// idempotent (merging with an identical copy changes nothing), commutative
// (greater-of-two is symmetric), and associative.
func (r *LWWRegister) Merge(other Value) error {
	o, ok := other.(*LWWRegister)
	if !ok {
		return coordcore.New(coordcore.KindCRDTError, "LWWRegister.Merge: type mismatch")
	}
	o.mu.RLock()
	oTuple, oHasTuple := o.tuple, o.hasTupl
	oValue, oHasVal := o.value, o.hasVal
	oClock := o.clock
	o.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if oHasTuple && (!r.hasTupl || r.tuple.less(oTuple)) {
		r.tuple = oTuple
		r.hasTupl = true
		r.value = oValue
		r.hasVal = oHasVal
	}
	r.clock.Merge(oClock)
	return nil
}

// Value implements Value.
func (r *LWWRegister) Value() (json.RawMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasVal {
		return json.Marshal(nil)
	}
	return r.value, nil
}

// CRDTID implements Value.
func (r *LWWRegister) CRDTID() string { return r.id }

// VectorClock implements Causal.
func (r *LWWRegister) VectorClock() *coordcore.VectorClock { return r.clock }

// AdvanceClock implements Causal.
func (r *LWWRegister) AdvanceClock(node coordcore.NodeID) uint64 { return r.clock.Increment(node) }

// HasSeen implements Causal.
func (r *LWWRegister) HasSeen(clock *coordcore.VectorClock) bool { return r.clock.Dominates(clock) }
