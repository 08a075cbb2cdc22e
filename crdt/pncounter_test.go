// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crdt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestPNCounterZeroAmountInvalid(t *testing.T) {
	require := require.New(t)
	c := NewPNCounter("mana")
	require.ErrorIs(c.Increment("A", 0), coordcore.New(coordcore.KindInvalidOperation, ""))
	require.ErrorIs(c.Decrement("A", 0), coordcore.New(coordcore.KindInvalidOperation, ""))
}

func TestPNCounterCommutativity(t *testing.T) {
	require := require.New(t)

	// Node A: inc(A, 20); dec(A, 5). Node B: inc(A, 15); dec(A, 8); inc(C, 25).
	a := NewPNCounter("x")
	require.NoError(a.Increment("A", 20))
	require.NoError(a.Decrement("A", 5))

	b := NewPNCounter("x")
	require.NoError(b.Increment("A", 15))
	require.NoError(b.Decrement("A", 8))
	require.NoError(b.Increment("C", 25))

	mergedAB := a.Clone()
	require.NoError(mergedAB.Merge(b))

	mergedBA := b.Clone()
	require.NoError(mergedBA.Merge(a))

	require.EqualValues(37, mergedAB.Total())
	require.EqualValues(37, mergedBA.Total())
}

func TestPNCounterMergeIdempotent(t *testing.T) {
	require := require.New(t)
	a := NewPNCounter("x")
	require.NoError(a.Increment("A", 10))

	once := a.Clone()
	require.NoError(once.Merge(a))
	twice := once.Clone()
	require.NoError(twice.Merge(a))

	require.Equal(once.Total(), twice.Total())
	require.True(once.VectorClock().Equal(twice.VectorClock()))
}

func TestPNCounterMergeAssociative(t *testing.T) {
	require := require.New(t)
	a := NewPNCounter("x")
	require.NoError(a.Increment("A", 3))
	b := NewPNCounter("x")
	require.NoError(b.Decrement("B", 1))
	c := NewPNCounter("x")
	require.NoError(c.Increment("C", 7))

	ab := a.Clone()
	require.NoError(ab.Merge(b))
	abc1 := ab.Clone()
	require.NoError(abc1.Merge(c))

	bc := b.Clone()
	require.NoError(bc.Merge(c))
	abc2 := a.Clone()
	require.NoError(abc2.Merge(bc))

	require.Equal(abc1.Total(), abc2.Total())
}

func TestPNCounterNonNegativeTotal(t *testing.T) {
	require := require.New(t)
	c := NewPNCounter("rep")
	require.NoError(c.Decrement("A", 50))
	require.EqualValues(-50, c.Total())
	require.EqualValues(0, c.NonNegativeTotal())
}
