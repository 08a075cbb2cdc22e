// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// PolicyScenario is a replayable trust-policy fixture: the engine state to
// build, one validation to run, and the outcome to assert. Deployments use
// it to pin their policy configuration in tests before rolling it out.
type PolicyScenario struct {
	Name          string
	Now           int64
	Rules         []Rule
	Relationships []*Relationship
	Memberships   map[coordcore.DID][]coordcore.FederationID
	Bridges       []*Bridge

	Trustor coordcore.DID
	Trustee coordcore.DID
	Context Context

	WantAllowed bool
	// WantLevel is checked only when WantAllowed is true.
	WantLevel Level
}

// Run builds a fresh engine from the scenario and asserts the validation
// outcome.
func (s PolicyScenario) Run(t *testing.T) {
	t.Helper()
	require := require.New(t)

	e := NewEngine(func() int64 { return s.Now })
	for _, r := range s.Rules {
		e.AddRule(r)
	}
	for _, rel := range s.Relationships {
		e.PutRelationship(rel)
	}
	for did, feds := range s.Memberships {
		for _, fed := range feds {
			e.AddMembership(did, fed)
		}
	}
	for _, b := range s.Bridges {
		e.AddBridge(b)
	}

	out := e.ValidateTrust(s.Trustor, s.Trustee, s.Context)
	require.Equal(s.WantAllowed, out.Allowed, "scenario %q: outcome mismatch (reason: %s)", s.Name, out.Reason)
	if s.WantAllowed {
		require.Equal(s.WantLevel, out.EffectiveTrust, "scenario %q: effective trust", s.Name)
	}
}
