// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecideSyncStrategy(t *testing.T) {
	base := Checkpoint{ID: "cp1", Epoch: 5, StateRootHash: [32]byte{1}}

	t.Run("our epoch ahead", func(t *testing.T) {
		theirs := base
		theirs.Epoch = 3
		require.Equal(t, DecisionShareOurUpdates, DecideSyncStrategy(base, theirs))
	})

	t.Run("their epoch ahead", func(t *testing.T) {
		theirs := base
		theirs.Epoch = 9
		require.Equal(t, DecisionFastForward, DecideSyncStrategy(base, theirs))
	})

	t.Run("equal epoch same id in sync", func(t *testing.T) {
		require.Equal(t, DecisionInSync, DecideSyncStrategy(base, base))
	})

	t.Run("equal epoch different id diverged", func(t *testing.T) {
		theirs := base
		theirs.ID = "cp2"
		require.Equal(t, DecisionDiverged, DecideSyncStrategy(base, theirs))
	})
}

func TestFindCommonCheckpoint(t *testing.T) {
	cp1 := Checkpoint{ID: "a", Epoch: 1, StateRootHash: [32]byte{1}}
	cp2 := Checkpoint{ID: "b", Epoch: 2, StateRootHash: [32]byte{2}}
	cp3 := Checkpoint{ID: "c", Epoch: 3, StateRootHash: [32]byte{3}}

	ours := []Checkpoint{cp3, cp2, cp1}
	theirs := []Checkpoint{cp2, cp1}

	common, ok := FindCommonCheckpoint(ours, theirs)
	require.True(t, ok)
	require.Equal(t, cp2, common)
}

func TestFindCommonCheckpointNoMatch(t *testing.T) {
	ours := []Checkpoint{{ID: "a", Epoch: 1, StateRootHash: [32]byte{1}}}
	theirs := []Checkpoint{{ID: "a", Epoch: 1, StateRootHash: [32]byte{9}}}
	_, ok := FindCommonCheckpoint(ours, theirs)
	require.False(t, ok)
}

func TestScorePartitionWeWin(t *testing.T) {
	now := time.Now()
	ours := PartitionCheckpoint{ChainLength: 100, ValidatorCount: 3, TransactionCount: 1000, Timestamp: now}
	theirs := PartitionCheckpoint{ChainLength: 90, ValidatorCount: 2, TransactionCount: 800, Timestamp: now.Add(-time.Second)}

	winner, outcome := ScorePartition(ours, theirs)
	require.Equal(t, WinnerUs, winner)
	require.Equal(t, OutcomeShareOurHistory, outcome)
}

func TestScorePartitionTieMerges(t *testing.T) {
	now := time.Now()
	ours := PartitionCheckpoint{ChainLength: 100, ValidatorCount: 2, TransactionCount: 1000, Timestamp: now}
	theirs := PartitionCheckpoint{ChainLength: 90, ValidatorCount: 3, TransactionCount: 800, Timestamp: now.Add(time.Second)}

	winner, outcome := ScorePartition(ours, theirs)
	require.Equal(t, WinnerMerge, winner)
	require.Equal(t, OutcomeMergeHistories, outcome)
}

func TestPartitionDetected(t *testing.T) {
	require.True(t, PartitionDetected(2, 5))
	require.False(t, PartitionDetected(3, 5))
	require.False(t, PartitionDetected(5, 5))
}

func TestPeerStoreTrustDynamics(t *testing.T) {
	store := NewPeerStore()
	store.RecordSyncSuccess("peer1")
	p, ok := store.Get("peer1")
	require.True(t, ok)
	require.Greater(t, p.TrustScore, 0.5)

	for i := 0; i < 10; i++ {
		store.RecordSyncFailure("peer1")
	}
	p, _ = store.Get("peer1")
	require.Equal(t, float64(0), p.TrustScore)
	require.False(t, store.ShouldContact("peer1", 0.2))
}

func TestRegistryMembership(t *testing.T) {
	reg := NewRegistry()
	reg.Join("fed1", "did:example:alice", RoleMember)
	reg.Join("fed1", "did:example:bob", RoleAdmin)

	require.True(t, reg.IsMember("fed1", "did:example:alice"))
	require.Len(t, reg.Members("fed1"), 2)

	require.True(t, reg.Leave("fed1", "did:example:alice"))
	require.False(t, reg.IsMember("fed1", "did:example:alice"))
	require.False(t, reg.Leave("fed1", "did:example:alice"))
}
