// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crdt implements the conflict-free replicated types backing all
// replicated cooperative state: a PN-counter, an LWW-register, an OR-set,
// and a CRDT-map composing arbitrary per-key values. Every type's merge is
// commutative, associative, and idempotent; callers never need a
// distinguished "primary" replica.
package crdt

import (
	"encoding/json"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Value is the common contract every CRDT in this package implements.
type Value interface {
	// Merge folds other's state into the receiver in place.
	Merge(other Value) error
	// Value renders the current logical value as JSON for inspection/export.
	Value() (json.RawMessage, error)
	// CRDTID returns this instance's stable identifier.
	CRDTID() string
}

// Causal is implemented by CRDTs that carry a vector clock.
type Causal interface {
	Value
	VectorClock() *coordcore.VectorClock
	AdvanceClock(node coordcore.NodeID) uint64
	HasSeen(clock *coordcore.VectorClock) bool
}
