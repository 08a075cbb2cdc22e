// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import "time"

// PartitionCheckpoint summarizes a node's chain state for comparison
// during partition recovery.
type PartitionCheckpoint struct {
	ChainLength      uint64
	ValidatorCount   uint64
	TransactionCount uint64
	Timestamp        time.Time
	StateRoot        [32]byte
}

// Winner names which side's history should prevail after a partition
// heals.
type Winner string

const (
	WinnerUs    Winner = "us"
	WinnerThem  Winner = "them"
	WinnerMerge Winner = "merge"
)

// Outcome is the action a node takes once a winner is determined.
type Outcome string

const (
	OutcomeShareOurHistory    Outcome = "share_our_history"
	OutcomeReorganizeToTheirs Outcome = "reorganize_to_theirs"
	OutcomeMergeHistories     Outcome = "merge_histories"
)

// ScorePartition compares ours against theirs across four criteria (chain
// length, validator count, transaction count, timestamp), awarding +1 to
// the higher side on each; the side with a strict majority wins, a tie is
// a Merge.
func ScorePartition(ours, theirs PartitionCheckpoint) (Winner, Outcome) {
	var ourScore, theirScore int

	score := func(a, b uint64) {
		switch {
		case a > b:
			ourScore++
		case b > a:
			theirScore++
		}
	}
	score(ours.ChainLength, theirs.ChainLength)
	score(ours.ValidatorCount, theirs.ValidatorCount)
	score(ours.TransactionCount, theirs.TransactionCount)
	switch {
	case ours.Timestamp.After(theirs.Timestamp):
		ourScore++
	case theirs.Timestamp.After(ours.Timestamp):
		theirScore++
	}

	switch {
	case ourScore > theirScore:
		return WinnerUs, OutcomeShareOurHistory
	case theirScore > ourScore:
		return WinnerThem, OutcomeReorganizeToTheirs
	default:
		return WinnerMerge, OutcomeMergeHistories
	}
}

// PartitionDetected reports whether the node should consider itself
// partitioned: fewer than half of known peers are currently reachable.
func PartitionDetected(reachablePeers, knownPeers int) bool {
	if knownPeers == 0 {
		return false
	}
	return float64(reachablePeers) < float64(knownPeers)/2.0
}
