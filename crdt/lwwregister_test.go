// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v string) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestLWWRegisterConvergence(t *testing.T) {
	require := require.New(t)

	// Node A sets x="alpha" at (ts=5,seq=1,node=A); Node B sets x="beta" at
	// (ts=5,seq=1,node=B). After merging both ways, both report "beta"
	// because B > A lexicographically.
	a := NewLWWRegister("x")
	a.Write(mustJSON(t, "alpha"), 5, "A", 1)

	b := NewLWWRegister("x")
	b.Write(mustJSON(t, "beta"), 5, "B", 1)

	mergedAB := NewLWWRegister("x")
	require.NoError(mergedAB.Merge(a))
	require.NoError(mergedAB.Merge(b))

	mergedBA := NewLWWRegister("x")
	require.NoError(mergedBA.Merge(b))
	require.NoError(mergedBA.Merge(a))

	vAB, ok := mergedAB.Get()
	require.True(ok)
	vBA, ok := mergedBA.Get()
	require.True(ok)

	var sAB, sBA string
	require.NoError(json.Unmarshal(vAB, &sAB))
	require.NoError(json.Unmarshal(vBA, &sBA))
	require.Equal("beta", sAB)
	require.Equal("beta", sBA)
}

func TestLWWRegisterEmptyAlwaysAccepts(t *testing.T) {
	require := require.New(t)
	r := NewLWWRegister("x")
	r.Write(mustJSON(t, "first"), 1, "A", 1)
	v, ok := r.Get()
	require.True(ok)
	var s string
	require.NoError(json.Unmarshal(v, &s))
	require.Equal("first", s)
}

func TestLWWRegisterHigherSequenceWins(t *testing.T) {
	require := require.New(t)
	r := NewLWWRegister("x")
	r.Write(mustJSON(t, "old"), 10, "A", 1)
	r.Write(mustJSON(t, "stale"), 10, "A", 0) // lower sequence at same ts, same node: rejected
	v, ok := r.Get()
	require.True(ok)
	var s string
	require.NoError(json.Unmarshal(v, &s))
	require.Equal("old", s)

	r.Write(mustJSON(t, "new"), 10, "A", 2)
	v, ok = r.Get()
	require.True(ok)
	require.NoError(json.Unmarshal(v, &s))
	require.Equal("new", s)
}

func TestLWWRegisterMergeIdempotentAndCommutative(t *testing.T) {
	require := require.New(t)
	a := NewLWWRegister("x")
	a.Write(mustJSON(t, "v1"), 3, "A", 1)
	b := NewLWWRegister("x")
	b.Write(mustJSON(t, "v2"), 2, "B", 1)

	ab := NewLWWRegister("x")
	require.NoError(ab.Merge(a))
	require.NoError(ab.Merge(b))
	require.NoError(ab.Merge(b)) // idempotent

	ba := NewLWWRegister("x")
	require.NoError(ba.Merge(b))
	require.NoError(ba.Merge(a))

	vAB, _ := ab.Get()
	vBA, _ := ba.Get()
	require.Equal(vAB, vBA)
}
