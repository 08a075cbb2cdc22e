// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/json"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// OpKind tags an Operation with the mutation it carries.
type OpKind string

const (
	OpIncrement  OpKind = "increment"
	OpDecrement  OpKind = "decrement"
	OpWrite      OpKind = "write"
	OpClear      OpKind = "clear"
	OpSetAdd     OpKind = "set_add"
	OpSetRemove  OpKind = "set_remove"
	OpMapRemove  OpKind = "map_remove"
)

// Operation is a tagged replicated mutation: the unit a replica ships to
// peers instead of method names. Fields beyond Kind/Target/Node are
// populated per kind — Amount for counters, Value/Timestamp/Sequence for
// register writes, Value for set adds and removes.
type Operation struct {
	Kind      OpKind             `json:"kind"`
	Target    string             `json:"target"`
	Node      coordcore.NodeID   `json:"node"`
	Amount    uint64             `json:"amount,omitempty"`
	Value     json.RawMessage    `json:"value,omitempty"`
	Key       string             `json:"key,omitempty"`
	Timestamp uint64             `json:"timestamp,omitempty"`
	Sequence  uint64             `json:"sequence,omitempty"`
	Clock     *coordcore.VectorClock `json:"clock,omitempty"`
}

// Apply dispatches op onto v. The operation's Target must match the CRDT's
// own id, and the kind must fit the concrete type; both mismatches fail
// with InvalidOperation so a misrouted op never silently mutates the wrong
// value.
func Apply(v Value, op Operation) error {
	if op.Target != v.CRDTID() {
		return coordcore.New(coordcore.KindInvalidOperation, "crdt: operation targets "+op.Target+", not "+v.CRDTID())
	}

	switch c := v.(type) {
	case *PNCounter:
		switch op.Kind {
		case OpIncrement:
			return c.Increment(op.Node, op.Amount)
		case OpDecrement:
			return c.Decrement(op.Node, op.Amount)
		}
	case *LWWRegister:
		switch op.Kind {
		case OpWrite:
			c.Write(op.Value, op.Timestamp, op.Node, op.Sequence)
			return nil
		case OpClear:
			c.Clear(op.Timestamp, op.Node, op.Sequence)
			return nil
		}
	case *ORSet:
		switch op.Kind {
		case OpSetAdd:
			var elt any
			if err := json.Unmarshal(op.Value, &elt); err != nil {
				return coordcore.Wrap(coordcore.KindDeserializationErr, "crdt: decode set element", err)
			}
			_, err := c.Add(op.Node, elt)
			return err
		case OpSetRemove:
			var elt any
			if err := json.Unmarshal(op.Value, &elt); err != nil {
				return coordcore.Wrap(coordcore.KindDeserializationErr, "crdt: decode set element", err)
			}
			return c.Remove(op.Node, elt)
		}
	case *Map:
		if op.Kind == OpMapRemove {
			c.Remove(op.Key, op.Node)
			return nil
		}
	}
	return coordcore.New(coordcore.KindInvalidOperation, "crdt: operation "+string(op.Kind)+" does not apply to "+v.CRDTID())
}
