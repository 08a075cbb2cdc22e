// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/json"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// PNCounter is a grow/shrink counter composed of two per-node grow-only
// counters (increments and decrements). Its total is the signed difference
// of their sums; merging two replicas is a componentwise max over both
// counters, which makes the whole type commutative, associative, and
// idempotent under merge.
type PNCounter struct {
	mu    sync.RWMutex
	id    string
	inc   map[coordcore.NodeID]uint64
	dec   map[coordcore.NodeID]uint64
	clock *coordcore.VectorClock
}

// NewPNCounter returns an empty counter identified by id.
func NewPNCounter(id string) *PNCounter {
	return &PNCounter{
		id:    id,
		inc:   make(map[coordcore.NodeID]uint64),
		dec:   make(map[coordcore.NodeID]uint64),
		clock: coordcore.NewVectorClock(),
	}
}

// Increment adds amount to node's increment counter. amount == 0 is an
// InvalidOperation.
func (c *PNCounter) Increment(node coordcore.NodeID, amount uint64) error {
	if amount == 0 {
		return coordcore.New(coordcore.KindInvalidOperation, "increment amount must be > 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inc[node] += amount
	c.clock.Increment(node)
	return nil
}

// Decrement adds amount to node's decrement counter. amount == 0 is an
// InvalidOperation.
func (c *PNCounter) Decrement(node coordcore.NodeID, amount uint64) error {
	if amount == 0 {
		return coordcore.New(coordcore.KindInvalidOperation, "decrement amount must be > 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dec[node] += amount
	c.clock.Increment(node)
	return nil
}

// Total returns Σinc − Σdec as a signed value.
func (c *PNCounter) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var incSum, decSum uint64
	for _, v := range c.inc {
		incSum += v
	}
	for _, v := range c.dec {
		decSum += v
	}
	return int64(incSum) - int64(decSum)
}

// NonNegativeTotal is Total clamped to 0, used by reputation scoring where
// the logical value never goes below zero even though the underlying
// counter bookkeeping is still a signed difference.
func (c *PNCounter) NonNegativeTotal() uint64 {
	t := c.Total()
	if t < 0 {
		return 0
	}
	return uint64(t)
}

// Merge takes the componentwise max of both counters and the union of
// clocks. Merge(a, a) == a; merge is commutative and associative because
// componentwise max is.
func (c *PNCounter) Merge(other Value) error {
	o, ok := other.(*PNCounter)
	if !ok {
		return coordcore.New(coordcore.KindCRDTError, "PNCounter.Merge: type mismatch")
	}
	o.mu.RLock()
	incSnap := cloneCounts(o.inc)
	decSnap := cloneCounts(o.dec)
	oClock := o.clock
	o.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for n, v := range incSnap {
		if v > c.inc[n] {
			c.inc[n] = v
		}
	}
	for n, v := range decSnap {
		if v > c.dec[n] {
			c.dec[n] = v
		}
	}
	c.clock.Merge(oClock)
	return nil
}

func cloneCounts(m map[coordcore.NodeID]uint64) map[coordcore.NodeID]uint64 {
	out := make(map[coordcore.NodeID]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Value renders {"total": n}.
func (c *PNCounter) Value() (json.RawMessage, error) {
	return json.Marshal(struct {
		Total int64 `json:"total"`
	}{Total: c.Total()})
}

// CRDTID implements Value.
func (c *PNCounter) CRDTID() string { return c.id }

// VectorClock implements Causal.
func (c *PNCounter) VectorClock() *coordcore.VectorClock { return c.clock }

// AdvanceClock implements Causal.
func (c *PNCounter) AdvanceClock(node coordcore.NodeID) uint64 { return c.clock.Increment(node) }

// HasSeen implements Causal.
func (c *PNCounter) HasSeen(clock *coordcore.VectorClock) bool { return c.clock.Dominates(clock) }

// Clone returns a deep copy of the counter, used by stores to hand out
// owned copies on read.
func (c *PNCounter) Clone() *PNCounter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &PNCounter{
		id:    c.id,
		inc:   cloneCounts(c.inc),
		dec:   cloneCounts(c.dec),
		clock: c.clock.Clone(),
	}
}
