// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Attestation is one cooperative's signed vouch for a subject's trust level
// in a context. Evidence is a free-form note; Credential is an optional
// externally-issued proof (membership, certification) the attester cites
// instead of relying purely on its own signature.
type Attestation struct {
	Attester   coordcore.DID
	Subject    coordcore.DID
	Context    Context
	Level      Level
	Timestamp  int64
	Evidence   string
	Credential *CredentialProof
	Signature  coordcore.Signature
}

// SignableBytes renders the canonical fields an attester signs over.
func (a *Attestation) SignableBytes() []byte {
	buf := make([]byte, 0, 64+len(a.Evidence))
	buf = append(buf, []byte(a.Attester)...)
	buf = append(buf, []byte(a.Subject)...)
	buf = append(buf, []byte(a.Context)...)
	buf = append(buf, byte(a.Level))
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(a.Timestamp))
	buf = append(buf, tsBuf[:]...)
	buf = append(buf, []byte(a.Evidence)...)
	return buf
}

// Verify checks the attestation's own signature under resolver, and — when
// a Credential is attached — additionally verifies that proof names the
// same subject and carries a valid issuer signature. Both must hold for a
// credentialed attestation to be accepted.
func (a *Attestation) Verify(ctx context.Context, resolver coordcore.DIDResolver) error {
	pub, err := resolver.Resolve(ctx, a.Attester)
	if err != nil {
		return coordcore.Wrap(coordcore.KindIdentityError, "resolve attester", err)
	}
	if !a.Signature.Verify(pub, a.SignableBytes()) {
		return coordcore.New(coordcore.KindIdentityError, "attestation signature invalid")
	}
	if a.Credential != nil {
		if err := a.Credential.Verify(ctx, resolver, a.Subject); err != nil {
			return err
		}
	}
	return nil
}

// Record holds every attestation a set of attesters have made about a
// single subject in a single context, plus the aggregated score derived
// from them.
type Record struct {
	mu             sync.Mutex
	Subject        coordcore.DID
	Context        Context
	attestations   map[coordcore.DID]*Attestation
	AggregatedScore float64
	LastUpdated    int64
}

// NewRecord returns an empty multi-party trust record for subject/context.
func NewRecord(subject coordcore.DID, context Context) *Record {
	return &Record{Subject: subject, Context: context, attestations: make(map[coordcore.DID]*Attestation)}
}

// AddAttestation installs or replaces the attester's attestation. It
// rejects an attestation whose subject/context does not match the record.
func (r *Record) AddAttestation(a *Attestation, now int64) error {
	if a.Subject != r.Subject || a.Context != r.Context {
		return coordcore.New(coordcore.KindInvalidOperation, "attestation subject/context does not match record")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attestations[a.Attester] = a
	r.LastUpdated = now
	return nil
}

// RemoveAttestation drops attester's attestation, reporting whether one was
// present.
func (r *Record) RemoveAttestation(attester coordcore.DID, now int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attestations[attester]; !ok {
		return false
	}
	delete(r.attestations, attester)
	r.LastUpdated = now
	return true
}

// Attesters returns every DID with a live attestation on this record.
func (r *Record) Attesters() []coordcore.DID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]coordcore.DID, 0, len(r.attestations))
	for did := range r.attestations {
		out = append(out, did)
	}
	return out
}

// Aggregator turns a set of attestations into a single aggregated score in
// [0, 1].
type Aggregator interface {
	Aggregate(attestations []*Attestation) float64
}

// SimpleMean is the default aggregator: the unweighted mean of each
// attestation's level value.
type SimpleMean struct{}

// Aggregate implements Aggregator.
func (SimpleMean) Aggregate(attestations []*Attestation) float64 {
	if len(attestations) == 0 {
		return 0
	}
	var sum float64
	for _, a := range attestations {
		sum += a.Level.Value()
	}
	return clamp(sum/float64(len(attestations)), 0, 1)
}

// WeightedMean is an optional reputation-weighted aggregator: attesters
// with higher reputation (per ReputationOf) pull the aggregated score
// towards their vote more strongly than low-reputation attesters.
type WeightedMean struct {
	ReputationOf func(coordcore.DID) uint64
}

// Aggregate implements Aggregator.
func (w WeightedMean) Aggregate(attestations []*Attestation) float64 {
	if len(attestations) == 0 {
		return 0
	}
	var weightedSum, totalWeight float64
	for _, a := range attestations {
		weight := float64(w.ReputationOf(a.Attester)) + 1 // +1 so zero-reputation attesters still count
		weightedSum += a.Level.Value() * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return clamp(weightedSum/totalWeight, 0, 1)
}

// Recalculate recomputes r.AggregatedScore using agg and returns the new
// score.
func (r *Record) Recalculate(agg Aggregator) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*Attestation, 0, len(r.attestations))
	for _, a := range r.attestations {
		list = append(list, a)
	}
	r.AggregatedScore = agg.Aggregate(list)
	return r.AggregatedScore
}
