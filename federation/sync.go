// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import (
	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Checkpoint is a signed, epoched summary of federation state used for
// sync; headers propagate before bodies.
type Checkpoint struct {
	ID             string
	FederationID   coordcore.FederationID
	Epoch          uint64
	Timestamp      int64
	StateRootHash  [32]byte
}

// Equal reports whether two checkpoints share the same id and root hash,
// the test for a common ancestor.
func (c Checkpoint) Equal(other Checkpoint) bool {
	return c.ID == other.ID && c.StateRootHash == other.StateRootHash
}

// Decision is the outcome of comparing our checkpoint against a peer's.
type Decision string

const (
	DecisionShareOurUpdates Decision = "share_our_updates"
	DecisionFastForward     Decision = "fast_forward"
	DecisionInSync          Decision = "in_sync"
	DecisionDiverged        Decision = "diverged"
)

// DecideSyncStrategy compares our and the peer's most recent checkpoint
// (after header exchange has already established there is no more recent
// common checkpoint than these) and picks a sync direction.
func DecideSyncStrategy(ours, theirs Checkpoint) Decision {
	switch {
	case ours.Epoch > theirs.Epoch:
		return DecisionShareOurUpdates
	case theirs.Epoch > ours.Epoch:
		return DecisionFastForward
	case ours.ID == theirs.ID:
		return DecisionInSync
	default:
		return DecisionDiverged
	}
}

// FindCommonCheckpoint returns the most recent checkpoint present in both
// histories (matching id and state_root_hash), newest first by epoch. ours
// and theirs are assumed sorted newest-first; if not, the newest matching
// pair by epoch is still returned since every candidate is checked.
func FindCommonCheckpoint(ours, theirs []Checkpoint) (Checkpoint, bool) {
	theirsByID := make(map[string]Checkpoint, len(theirs))
	for _, c := range theirs {
		theirsByID[c.ID] = c
	}

	var best Checkpoint
	found := false
	for _, o := range ours {
		t, ok := theirsByID[o.ID]
		if !ok || !o.Equal(t) {
			continue
		}
		if !found || o.Epoch > best.Epoch {
			best = o
			found = true
		}
	}
	return best, found
}
