// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package reputation implements a CRDT-backed reputation store: each DID's
// score is a PN-counter inside a shared CRDT-map, so reputation updates from
// different nodes merge without coordination.
package reputation

import (
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/crdt"
)

// Config tunes how executions and proof attempts translate into reputation
// deltas.
type Config struct {
	SuccessReward      uint64
	FailurePenalty     uint64
	ProofSuccessReward uint64
	ProofFailurePenalty uint64
	// CPUTimeMultiplier scores a small bonus per millisecond of CPU time on
	// successful executions, so the bonus grows with the CPU time spent.
	CPUTimeMultiplier float64
	InitialScores     map[coordcore.DID]uint64
}

// DefaultConfig mirrors the original reputation-weighting defaults: modest
// symmetric reward/penalty for job execution, smaller weight for proof
// attempts, and a small CPU-time bonus.
func DefaultConfig() Config {
	return Config{
		SuccessReward:       10,
		FailurePenalty:      5,
		ProofSuccessReward:  2,
		ProofFailurePenalty: 1,
		CPUTimeMultiplier:   0.001,
	}
}

// Store is a CRDT-backed reputation store keyed by DID. Concurrent updates
// from different nodes merge deterministically via Merge.
type Store struct {
	mu     sync.Mutex
	nodeID coordcore.NodeID
	scores *crdt.Map
	config Config
}

// New constructs a reputation store for nodeID, applying any initial scores
// from config.
func New(nodeID coordcore.NodeID, config Config) *Store {
	s := &Store{
		nodeID: nodeID,
		scores: crdt.NewMap("reputation_scores"),
		config: config,
	}
	for did, score := range config.InitialScores {
		s.SetScore(did, score)
	}
	return s
}

func (s *Store) counterFor(did coordcore.DID) *crdt.PNCounter {
	if v, ok := s.scores.Get(string(did)); ok {
		if c, ok := v.(*crdt.PNCounter); ok {
			return c
		}
	}
	c := crdt.NewPNCounter("reputation_" + string(did))
	_ = s.scores.Put(string(did), c, s.nodeID)
	return c
}

// GetReputation returns the non-negative reputation score for did, 0 if
// never recorded or if the signed total has gone negative.
func (s *Store) GetReputation(did coordcore.DID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counterFor(did).NonNegativeTotal()
}

// SetScore forces did's reputation to score by crediting or debiting the
// difference against the current value; it never goes through a reset
// operation since PN-counters have none.
func (s *Store) SetScore(did coordcore.DID, score uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.counterFor(did).NonNegativeTotal()
	switch {
	case score > current:
		s.adjustLocked(did, int64(score-current))
	case score < current:
		s.adjustLocked(did, -int64(current-score))
	}
}

func (s *Store) adjustLocked(did coordcore.DID, delta int64) {
	if delta == 0 {
		return
	}
	counter := s.counterFor(did)
	if delta > 0 {
		_ = counter.Increment(s.nodeID, uint64(delta))
	} else {
		_ = counter.Decrement(s.nodeID, uint64(-delta))
	}
}

// RecordExecution applies the configured success/failure delta for a mesh
// job execution, plus a bonus proportional to CPU time on success.
func (s *Store) RecordExecution(executor coordcore.DID, success bool, cpuMS uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var delta int64
	if success {
		delta = int64(s.config.SuccessReward)
		delta += int64(float64(cpuMS) * s.config.CPUTimeMultiplier)
	} else {
		delta = -int64(s.config.FailurePenalty)
	}
	s.adjustLocked(executor, delta)
}

// RecordProofAttempt applies the configured success/failure delta for a
// proof-of-execution attempt.
func (s *Store) RecordProofAttempt(prover coordcore.DID, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var delta int64
	if success {
		delta = int64(s.config.ProofSuccessReward)
	} else {
		delta = -int64(s.config.ProofFailurePenalty)
	}
	s.adjustLocked(prover, delta)
}

// AllScores returns a snapshot of every tracked DID's current reputation.
func (s *Store) AllScores() map[coordcore.DID]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[coordcore.DID]uint64)
	for _, key := range s.scores.Keys() {
		v, ok := s.scores.Get(key)
		if !ok {
			continue
		}
		c, ok := v.(*crdt.PNCounter)
		if !ok {
			continue
		}
		out[coordcore.DID(key)] = c.NonNegativeTotal()
	}
	return out
}

// Stats summarizes the store's current state for reporting/diagnostics.
type Stats struct {
	AccountCount      uint64
	TotalReputation   uint64
	AverageReputation uint64
	MaxReputation     uint64
	MinReputation     uint64
	NodeID            coordcore.NodeID
}

// Stats computes summary statistics over every tracked account.
func (s *Store) Stats() Stats {
	scores := s.AllScores()
	out := Stats{NodeID: s.nodeID, AccountCount: uint64(len(scores))}
	first := true
	for _, score := range scores {
		out.TotalReputation += score
		if first || score > out.MaxReputation {
			out.MaxReputation = score
		}
		if first || score < out.MinReputation {
			out.MinReputation = score
		}
		first = false
	}
	if out.AccountCount > 0 {
		out.AverageReputation = out.TotalReputation / out.AccountCount
	}
	return out
}

// Merge folds another store's CRDT state into this one, the mechanism
// distributed reputation stores use to converge after a federation sync.
func (s *Store) Merge(other *Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores.Merge(other.scores)
}
