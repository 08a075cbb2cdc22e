// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func fixedNow(ts int64) func() int64 { return func() int64 { return ts } }

func TestDirectTrustAllowed(t *testing.T) {
	require := require.New(t)
	e := NewEngine(fixedNow(1000))
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")

	e.PutRelationship(&Relationship{Attestor: alice, Subject: bob, Level: LevelFull, Context: ContextGeneral})

	out := e.ValidateTrust(alice, bob, ContextGeneral)
	require.True(out.Allowed)
	require.Equal(LevelFull, out.EffectiveTrust)
	require.Equal([]string{"direct"}, out.TrustPath)
}

func TestDirectTrustDeniedByMinLevelRule(t *testing.T) {
	require := require.New(t)
	e := NewEngine(fixedNow(1000))
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")

	e.AddRule(Rule{Name: "governance-min-full", ApplicableContexts: map[Context]struct{}{ContextGovernance: {}}, MinTrustLevel: LevelFull})
	e.PutRelationship(&Relationship{Attestor: alice, Subject: bob, Level: LevelBasic, Context: ContextGovernance})

	out := e.ValidateTrust(alice, bob, ContextGovernance)
	require.False(out.Allowed)
}

func TestExpiredRelationshipFallsThrough(t *testing.T) {
	require := require.New(t)
	e := NewEngine(fixedNow(2000))
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")

	expiry := int64(1000)
	e.PutRelationship(&Relationship{Attestor: alice, Subject: bob, Level: LevelFull, Context: ContextGeneral, ExpiresAt: &expiry})

	out := e.ValidateTrust(alice, bob, ContextGeneral)
	require.False(out.Allowed)
}

func TestInheritedTrustDegradesAndFloors(t *testing.T) {
	require := require.New(t)
	e := NewEngine(fixedNow(1000))
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")
	fed := coordcore.FederationID("coop-fed")

	e.AddMembership(alice, fed)
	e.AddMembership(bob, fed)
	e.PutRelationship(&Relationship{
		Attestor: coordcore.DID("did:icn:fed-admin"), Subject: coordcore.DID("did:icn:fed-admin"),
		Level: LevelFull, Context: ContextGeneral, Federation: fed, Inheritance: DefaultInheritance(),
	})

	out := e.ValidateTrust(alice, bob, ContextGeneral)
	require.True(out.Allowed)
	require.LessOrEqual(out.EffectiveTrust, LevelFull)
	require.Contains(out.TrustPath[0], "federation_inheritance")
}

func TestBridgedTrustCapsAtMaxBridgeTrust(t *testing.T) {
	require := require.New(t)
	e := NewEngine(fixedNow(1000))
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")
	fedA := coordcore.FederationID("fed-a")
	fedB := coordcore.FederationID("fed-b")

	e.AddMembership(alice, fedA)
	e.AddMembership(bob, fedB)
	e.AddBridge(&Bridge{
		From: fedA, To: fedB, Level: LevelFull,
		AllowedContexts: map[Context]struct{}{ContextGeneral: {}},
		MaxBridgeTrust:  LevelBasic, BridgeDegradation: 0.1,
	})

	out := e.ValidateTrust(alice, bob, ContextGeneral)
	require.True(out.Allowed)
	require.LessOrEqual(out.EffectiveTrust, LevelBasic)
}

func TestSimpleMeanAggregation(t *testing.T) {
	require := require.New(t)
	subject := coordcore.DID("did:icn:subject")
	rec := NewRecord(subject, ContextGeneral)

	require.NoError(rec.AddAttestation(&Attestation{Attester: "a1", Subject: subject, Context: ContextGeneral, Level: LevelFull}, 1))
	require.NoError(rec.AddAttestation(&Attestation{Attester: "a2", Subject: subject, Context: ContextGeneral, Level: LevelBasic}, 2))

	score := rec.Recalculate(SimpleMean{})
	require.InDelta(0.65, score, 0.001)
}

func TestWeightedMeanFavorsHigherReputation(t *testing.T) {
	require := require.New(t)
	subject := coordcore.DID("did:icn:subject")
	rec := NewRecord(subject, ContextGeneral)
	require.NoError(rec.AddAttestation(&Attestation{Attester: "high-rep", Subject: subject, Context: ContextGeneral, Level: LevelFull}, 1))
	require.NoError(rec.AddAttestation(&Attestation{Attester: "low-rep", Subject: subject, Context: ContextGeneral, Level: LevelNone}, 2))

	reps := map[coordcore.DID]uint64{"high-rep": 1000, "low-rep": 1}
	score := rec.Recalculate(WeightedMean{ReputationOf: func(d coordcore.DID) uint64 { return reps[d] }})
	require.Greater(score, 0.8)
}

func TestChallengeLifecycleAndAuditTrail(t *testing.T) {
	require := require.New(t)
	store := NewAuditStore()
	subject := coordcore.DID("did:icn:subject")
	challenger := coordcore.DID("did:icn:challenger")

	c := NewChallenge("challenge-1", challenger, subject, ContextGeneral, "suspicious behavior", 100)
	store.StoreChallenge(c)

	pending := store.ListChallengesByStatus(ChallengePending)
	require.Len(pending, 1)

	store.StoreAuditEvent(&AuditEvent{EventID: "e1", Type: EventChallengeCreated, Actor: challenger, Subject: subject, Context: ContextGeneral, Timestamp: 100})
	events := store.GetAuditEvents(subject, ContextGeneral)
	require.Len(events, 1)
	require.Equal(EventChallengeCreated, events[0].Type)
}

func TestDecayModels(t *testing.T) {
	require := require.New(t)

	exp := ExponentialDecay{HalfLifeSeconds: 100}
	require.InDelta(0.5, exp.Factor(100), 0.001)

	lin := LinearDecay{PeriodSeconds: 100}
	require.InDelta(0.5, lin.Factor(50), 0.001)
	require.InDelta(0, lin.Factor(200), 0.001)

	step := StepDecay{Intervals: []StepInterval{{DurationSeconds: 10, Multiplier: 1.0}, {DurationSeconds: 10, Multiplier: 0.5}}}
	require.InDelta(1.0, step.Factor(5), 0.001)
	require.InDelta(0.5, step.Factor(15), 0.001)
	require.InDelta(0.5, step.Factor(100), 0.001)

	dist := DefaultDistanceDecayConfig()
	require.Less(dist.Factor(3), dist.Factor(1))
	require.GreaterOrEqual(dist.Factor(100), dist.MinTrustFloor)
}
