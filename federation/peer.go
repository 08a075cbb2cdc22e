// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package federation implements cross-node synchronization: per-peer state,
// checkpoint exchange, a sync-strategy decision table, partition detection
// and recovery, and the membership registry trust inheritance consults.
package federation

import (
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/utils/set"
)

// Status is a peer's current synchronization state.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusSyncing      Status = "syncing"
	StatusUnreachable  Status = "unreachable"
	StatusUntrusted    Status = "untrusted"
)

// SyncOp names where in the sync lifecycle an interaction with a peer
// currently is.
type SyncOp string

const (
	OpIdle               SyncOp = "idle"
	OpRequestingStatus   SyncOp = "requesting_status"
	OpRequestingBlocks   SyncOp = "requesting_blocks"
	OpDeltaSync          SyncOp = "delta_sync"
	OpResolvingConflicts SyncOp = "resolving_conflicts"
	OpFailed             SyncOp = "failed"
)

// PeerState tracks what a node knows about one federation peer.
type PeerState struct {
	PeerID          coordcore.NodeID
	LastKnownRoot   *coordcore.CID
	LastSync        time.Time
	Status          Status
	Op              SyncOp
	KnownBlocks     set.Set[coordcore.CID]
	RequestedBlocks set.Set[coordcore.CID]
	FailedAttempts  uint32
	TrustScore      float64
}

// PeerStore indexes every known peer's state behind a single writer lock;
// nothing holds the lock across network I/O.
type PeerStore struct {
	mu    sync.RWMutex
	peers map[coordcore.NodeID]*PeerState
}

// NewPeerStore returns an empty store.
func NewPeerStore() *PeerStore {
	return &PeerStore{peers: make(map[coordcore.NodeID]*PeerState)}
}

// Upsert installs peer if absent, defaulting TrustScore to 0.5 (neutral)
// the way a newly discovered cooperative starts with neither
// trust nor distrust.
func (s *PeerStore) Upsert(peer coordcore.NodeID) *PeerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[peer]
	if !ok {
		p = &PeerState{
			PeerID:          peer,
			Status:          StatusIdle,
			Op:              OpIdle,
			KnownBlocks:     set.NewSet[coordcore.CID](0),
			RequestedBlocks: set.NewSet[coordcore.CID](0),
			TrustScore:      0.5,
		}
		s.peers[peer] = p
	}
	return p
}

// Get returns the tracked state for peer, if any.
func (s *PeerStore) Get(peer coordcore.NodeID) (*PeerState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[peer]
	return p, ok
}

// All returns every tracked peer, in no particular order.
func (s *PeerStore) All() []*PeerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*PeerState, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// Reachable returns peers whose Status is not Unreachable.
func (s *PeerStore) Reachable() []*PeerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*PeerState
	for _, p := range s.peers {
		if p.Status != StatusUnreachable {
			out = append(out, p)
		}
	}
	return out
}

const (
	// trustIncrement/trustDecrement bound how fast a peer's trust score
	// moves after one sync outcome.
	trustIncrement = 0.05
	trustDecrement = 0.15
	// transitiveWeight is the fixed weight a neighbor's trust score
	// contributes when blended into a two-hop trust estimate.
	transitiveWeight = 0.3
	// trustDecayPerHour pulls every score gently back towards the
	// neutral midpoint so a peer's reputation is not permanent.
	trustDecayPerHour = 0.02
)

// RecordSyncSuccess increments peer's trust score, clamped to [0, 1].
func (s *PeerStore) RecordSyncSuccess(peer coordcore.NodeID) {
	p := s.Upsert(peer)
	s.mu.Lock()
	defer s.mu.Unlock()
	p.TrustScore = clamp01(p.TrustScore + trustIncrement)
	p.FailedAttempts = 0
	p.LastSync = time.Now()
}

// RecordSyncFailure decrements peer's trust score and bumps its failure
// counter.
func (s *PeerStore) RecordSyncFailure(peer coordcore.NodeID) {
	p := s.Upsert(peer)
	s.mu.Lock()
	defer s.mu.Unlock()
	p.TrustScore = clamp01(p.TrustScore - trustDecrement)
	p.FailedAttempts++
}

// DecayTrust pulls every peer's score towards 0.5 proportionally to the
// elapsed duration, the background task that keeps trust responsive to
// recent behavior rather than accumulating forever.
func (s *PeerStore) DecayTrust(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	factor := trustDecayPerHour * elapsed.Hours()
	for _, p := range s.peers {
		if p.TrustScore > 0.5 {
			p.TrustScore = clamp01(p.TrustScore - factor)
			if p.TrustScore < 0.5 {
				p.TrustScore = 0.5
			}
		} else if p.TrustScore < 0.5 {
			p.TrustScore = clamp01(p.TrustScore + factor)
			if p.TrustScore > 0.5 {
				p.TrustScore = 0.5
			}
		}
	}
}

// TransitiveTrust blends a direct score (0 if unknown) with a neighbor's
// reported score at a fixed discount.
func TransitiveTrust(direct float64, neighborReported float64) float64 {
	return clamp01(direct*(1-transitiveWeight) + neighborReported*transitiveWeight)
}

// ShouldContact reports whether peer's trust score clears minTrust; peers
// below the threshold are skipped by the sync loop.
func (s *PeerStore) ShouldContact(peer coordcore.NodeID, minTrust float64) bool {
	p, ok := s.Get(peer)
	if !ok {
		return true // unknown peers get a first chance
	}
	return p.TrustScore >= minTrust
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
