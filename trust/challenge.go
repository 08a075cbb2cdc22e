// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// ChallengeStatus is the lifecycle state of a TrustChallenge.
type ChallengeStatus string

const (
	ChallengePending     ChallengeStatus = "pending"
	ChallengeUnderReview ChallengeStatus = "under_review"
	ChallengeAccepted    ChallengeStatus = "accepted"
	ChallengeRejected    ChallengeStatus = "rejected"
	ChallengeWithdrawn   ChallengeStatus = "withdrawn"
)

// Challenge disputes a trust relationship; any party may open one.
type Challenge struct {
	ChallengeID string
	Challenger  coordcore.DID
	Subject     coordcore.DID
	Context     Context
	Reason      string
	Evidence    string
	Timestamp   int64
	Status      ChallengeStatus
	DAGCID      *coordcore.CID
}

// NewChallenge opens a challenge in the Pending state.
func NewChallenge(id string, challenger, subject coordcore.DID, context Context, reason string, timestamp int64) *Challenge {
	return &Challenge{
		ChallengeID: id,
		Challenger:  challenger,
		Subject:     subject,
		Context:     context,
		Reason:      reason,
		Timestamp:   timestamp,
		Status:      ChallengePending,
	}
}

// EventType categorizes a TrustAuditEvent.
type EventType string

const (
	EventAttestationCreated EventType = "attestation_created"
	EventAttestationUpdated EventType = "attestation_updated"
	EventAttestationRevoked EventType = "attestation_revoked"
	EventChallengeCreated   EventType = "challenge_created"
	EventChallengeResolved  EventType = "challenge_resolved"
	EventScoreRecalculated  EventType = "score_recalculated"
)

// AuditEvent is one entry in the append-only trust history. Recording it
// keeps it in memory only; DAGCID is set only when an integrator anchors
// the event in the DAG.
type AuditEvent struct {
	EventID   string
	Type      EventType
	Actor     coordcore.DID
	Subject   coordcore.DID
	Context   Context
	Timestamp int64
	Data      map[string]any
	DAGCID    *coordcore.CID
}

// AuditStore indexes challenges and audit events the way a trust engine
// deployment persists them; the in-memory implementation is suitable for
// tests and single-node operation; wrapping persistence (e.g. anchoring
// each event as a DAG block) is left to integrators.
type AuditStore struct {
	mu         sync.Mutex
	challenges map[string]*Challenge
	events     map[recordKey][]*AuditEvent
}

type recordKey struct {
	subject coordcore.DID
	context Context
}

// NewAuditStore returns an empty store.
func NewAuditStore() *AuditStore {
	return &AuditStore{challenges: make(map[string]*Challenge), events: make(map[recordKey][]*AuditEvent)}
}

// StoreChallenge installs or replaces a challenge.
func (s *AuditStore) StoreChallenge(c *Challenge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[c.ChallengeID] = c
}

// GetChallenge looks up a challenge by ID.
func (s *AuditStore) GetChallenge(id string) (*Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	return c, ok
}

// ListChallengesByStatus returns every challenge currently in status.
func (s *AuditStore) ListChallengesByStatus(status ChallengeStatus) []*Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Challenge
	for _, c := range s.challenges {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// StoreAuditEvent appends event to the subject/context's audit trail.
func (s *AuditStore) StoreAuditEvent(e *AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{e.Subject, e.Context}
	s.events[key] = append(s.events[key], e)
}

// GetAuditEvents returns the audit trail for subject/context, oldest first.
func (s *AuditStore) GetAuditEvents(subject coordcore.DID, context Context) []*AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*AuditEvent(nil), s.events[recordKey{subject, context}]...)
}
