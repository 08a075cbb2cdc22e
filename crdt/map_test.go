// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapPutMergesExistingValue(t *testing.T) {
	require := require.New(t)
	m := NewMap("reputation")

	c1 := NewPNCounter("did:a")
	require.NoError(c1.Increment("node1", 5))
	require.NoError(m.Put("did:a", c1, "node1"))

	c2 := NewPNCounter("did:a")
	require.NoError(c2.Increment("node2", 3))
	require.NoError(m.Put("did:a", c2, "node2"))

	v, ok := m.Get("did:a")
	require.True(ok)
	require.EqualValues(8, v.(*PNCounter).Total())
}

func TestMapRemoveThenReviveRequiresDominatingClock(t *testing.T) {
	require := require.New(t)
	m := NewMap("x")

	c1 := NewPNCounter("k")
	require.NoError(c1.Increment("n1", 1))
	require.NoError(m.Put("k", c1, "n1"))
	m.Remove("k", "n1")

	_, ok := m.Get("k")
	require.False(ok)

	// A put whose clock does not dominate the tombstone does not revive.
	stale := NewPNCounter("k")
	require.NoError(stale.Increment("n2", 1))
	require.NoError(m.Put("k", stale, "n2"))
	_, ok = m.Get("k")
	require.False(ok, "stale put must not revive a tombstoned key")
}

func TestMapMergeCommutative(t *testing.T) {
	require := require.New(t)

	a := NewMap("x")
	ca := NewPNCounter("k")
	require.NoError(ca.Increment("n1", 4))
	require.NoError(a.Put("k", ca, "n1"))

	b := NewMap("x")
	cb := NewPNCounter("k")
	require.NoError(cb.Increment("n2", 6))
	require.NoError(b.Put("k", cb, "n2"))

	ab := NewMap("x")
	require.NoError(ab.Merge(a))
	require.NoError(ab.Merge(b))

	ba := NewMap("x")
	require.NoError(ba.Merge(b))
	require.NoError(ba.Merge(a))

	vab, _ := ab.Get("k")
	vba, _ := ba.Get("k")
	require.Equal(vab.(*PNCounter).Total(), vba.(*PNCounter).Total())
}
