// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"testing"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestPolicyScenarios(t *testing.T) {
	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")
	coopA := coordcore.FederationID("coop-a")
	coopB := coordcore.FederationID("coop-b")

	scenarios := []PolicyScenario{
		{
			Name: "direct full trust passes a partial-minimum rule",
			Now:  1000,
			Rules: []Rule{{
				Name:               "resource-min-partial",
				ApplicableContexts: map[Context]struct{}{ContextResourceSharing: {}},
				MinTrustLevel:      LevelPartial,
				AllowCrossFederation: true,
			}},
			Relationships: []*Relationship{{
				Attestor: alice, Subject: bob, Level: LevelFull, Context: ContextResourceSharing,
			}},
			Trustor: alice, Trustee: bob, Context: ContextResourceSharing,
			WantAllowed: true, WantLevel: LevelFull,
		},
		{
			Name: "federation inheritance degrades full to partial",
			Now:  1000,
			Relationships: []*Relationship{{
				Attestor: "did:icn:coop-a-root", Subject: "did:icn:coop-a-members",
				Level: LevelFull, Context: ContextMutualCredit,
				Federation:  coopA,
				Inheritance: DefaultInheritance(),
			}},
			Memberships: map[coordcore.DID][]coordcore.FederationID{
				alice: {coopA},
				bob:   {coopA},
			},
			Trustor: alice, Trustee: bob, Context: ContextMutualCredit,
			WantAllowed: true, WantLevel: LevelPartial,
		},
		{
			Name: "bridge denied for a context it does not allow",
			Now:  1000,
			Bridges: []*Bridge{{
				From: coopA, To: coopB, Level: LevelFull,
				AllowedContexts:   map[Context]struct{}{ContextGeneral: {}},
				MaxBridgeTrust:    LevelBasic,
				BridgeDegradation: 0.5,
			}},
			Memberships: map[coordcore.DID][]coordcore.FederationID{
				alice: {coopA},
				bob:   {coopB},
			},
			Trustor: alice, Trustee: bob, Context: ContextGovernance,
			WantAllowed: false,
		},
		{
			Name: "cross-federation inheritance blocked by a direct-only rule",
			Now:  1000,
			Rules: []Rule{{
				Name:               "identity-direct-only",
				ApplicableContexts: map[Context]struct{}{ContextIdentity: {}},
				MinTrustLevel:      LevelBasic,
			}},
			Relationships: []*Relationship{{
				Attestor: "did:icn:coop-a-root", Subject: "did:icn:coop-a-members",
				Level: LevelFull, Context: ContextIdentity,
				Federation:  coopA,
				Inheritance: DefaultInheritance(),
			}},
			Memberships: map[coordcore.DID][]coordcore.FederationID{
				alice: {coopA},
				bob:   {coopA},
			},
			Trustor: alice, Trustee: bob, Context: ContextIdentity,
			WantAllowed: false,
		},
	}

	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) { s.Run(t) })
	}
}
