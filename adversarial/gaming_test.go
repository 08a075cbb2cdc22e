// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestAntiGamingDetectorVelocityAttack(t *testing.T) {
	require := require.New(t)
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	d := NewAntiGamingDetector(clock)

	did := coordcore.DID("did:icn:alice")
	// First op establishes the window; second, a second later, pushes
	// velocity to (2000+2000)/1s = 4000 mana/sec > MaxEconomicVelocity.
	d.AnalyzeOperation(did, 2000, "spend")
	now = now.Add(time.Second)
	detections := d.AnalyzeOperation(did, 2000, "spend")

	require.Len(detections, 1)
	require.Equal(AttackVelocity, detections[0].Attack)
	require.InDelta(0.8, detections[0].Confidence, 1e-9)
	require.Equal(KindAccountFreeze, detections[0].Recommended.Kind)
	require.Equal([]coordcore.DID{did}, detections[0].Recommended.Accounts)
}

func TestAntiGamingDetectorNoVelocityAttackBelowThreshold(t *testing.T) {
	require := require.New(t)
	now := time.Unix(1_700_000_000, 0)
	d := NewAntiGamingDetector(func() time.Time { return now })

	did := coordcore.DID("did:icn:bob")
	d.AnalyzeOperation(did, 1, "spend")
	now = now.Add(time.Second)
	detections := d.AnalyzeOperation(did, 1, "spend")
	require.Empty(detections)
}

func TestAntiGamingDetectorWindowEviction(t *testing.T) {
	require := require.New(t)
	now := time.Unix(1_700_000_000, 0)
	d := NewAntiGamingDetector(func() time.Time { return now })

	did := coordcore.DID("did:icn:carol")
	d.AnalyzeOperation(did, 5000, "spend")
	now = now.Add(2 * GamingDetectionWindow) // far outside the window
	detections := d.AnalyzeOperation(did, 1, "spend")
	require.Empty(detections)
}

func TestIntegrityMonitorDetectsDoubleSpend(t *testing.T) {
	require := require.New(t)
	d := NewAntiGamingDetector(nil)
	did := coordcore.DID("did:icn:dave")

	require.False(d.CheckDoubleSpend("op-1", did))
	require.True(d.CheckDoubleSpend("op-1", did))
}

func TestIntegrityMonitorRecordsBalanceInconsistency(t *testing.T) {
	require := require.New(t)
	d := NewAntiGamingDetector(nil)
	did := coordcore.DID("did:icn:erin")

	d.RecordBalanceInconsistency(did, 100, 90)
	inconsistencies := d.BalanceInconsistencies()
	require.Len(inconsistencies, 1)
	require.Equal(did, inconsistencies[0].Account)
	require.Equal(uint64(100), inconsistencies[0].Expected)
	require.Equal(uint64(90), inconsistencies[0].Actual)
}

func TestCoordinationDetectorFlagsDenseLockstepCluster(t *testing.T) {
	require := require.New(t)
	now := time.Unix(1_700_000_000, 0)
	d := NewAntiGamingDetector(func() time.Time { return now })

	alice := coordcore.DID("did:icn:alice")
	bob := coordcore.DID("did:icn:bob")

	// Build a dense, perfectly regular interaction history between alice
	// and bob so both the density threshold and the lockstep CV threshold
	// trip.
	for i := 0; i < CoordinationDensityThreshold+1; i++ {
		d.RecordInteraction(alice, bob)
		now = now.Add(10 * time.Second)
	}

	detections := d.AnalyzeOperation(alice, 1, "spend")
	var found bool
	for _, det := range detections {
		if det.Attack == AttackCoordinated {
			found = true
			require.Contains(det.Accounts, bob)
		}
	}
	require.True(found)
}

func TestSybilDetectionStubReturnsNil(t *testing.T) {
	d := NewAntiGamingDetector(nil)
	require.Nil(t, d.DetectSybilAttack([]coordcore.DID{"did:icn:a", "did:icn:b"}))
}
