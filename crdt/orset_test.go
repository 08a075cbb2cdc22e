// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestORSetAddWinsOnConcurrentAddRemove(t *testing.T) {
	require := require.New(t)

	replicaA := NewORSet("members")
	replicaB := NewORSet("members")

	_, err := replicaA.Add("A", "alice")
	require.NoError(err)

	// Replica B never observed A's add; it has its own independent add.
	bTag, err := replicaB.Add("B", "alice")
	require.NoError(err)

	// Replica A merges in B's state, then removes "alice" — but only erases
	// the tags it has observed (its own and B's), not any tag added
	// concurrently.
	require.NoError(replicaA.Merge(replicaB))
	require.NoError(replicaA.Remove("A", "alice"))

	// A concurrent add from elsewhere under a different tag still wins.
	thirdTag, err := replicaB.Add("C", "alice")
	require.NoError(err)
	_ = bTag
	_ = thirdTag

	require.NoError(replicaA.Merge(replicaB))
	present, err := replicaA.Contains("alice")
	require.NoError(err)
	require.True(present, "add from C after A's remove must survive (add-wins)")
}

func TestORSetMergeCommutativeAssociativeIdempotent(t *testing.T) {
	require := require.New(t)
	a := NewORSet("s")
	_, _ = a.Add("A", "x")
	b := NewORSet("s")
	_, _ = b.Add("B", "y")
	c := NewORSet("s")
	_, _ = c.Add("C", "z")

	ab := NewORSet("s")
	require.NoError(ab.Merge(a))
	require.NoError(ab.Merge(b))
	abc1 := NewORSet("s")
	require.NoError(abc1.Merge(ab))
	require.NoError(abc1.Merge(c))

	bc := NewORSet("s")
	require.NoError(bc.Merge(b))
	require.NoError(bc.Merge(c))
	abc2 := NewORSet("s")
	require.NoError(abc2.Merge(a))
	require.NoError(abc2.Merge(bc))

	require.ElementsMatch(abc1.Elements(), abc2.Elements())

	idem := NewORSet("s")
	require.NoError(idem.Merge(abc1))
	require.NoError(idem.Merge(abc1))
	require.ElementsMatch(abc1.Elements(), idem.Elements())
}

func TestORSetRemoveThenReAdd(t *testing.T) {
	require := require.New(t)
	s := NewORSet("s")
	_, err := s.Add("A", "job-1")
	require.NoError(err)
	require.NoError(s.Remove("A", "job-1"))
	present, err := s.Contains("job-1")
	require.NoError(err)
	require.False(present)

	_, err = s.Add("A", "job-1")
	require.NoError(err)
	present, err = s.Contains("job-1")
	require.NoError(err)
	require.True(present)
}
