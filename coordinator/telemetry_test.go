// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/metrics"
)

func TestTelemetryRecordAndSummary(t *testing.T) {
	require := require.New(t)
	tel := NewTelemetry()
	tel.Record("retrieve", 10*time.Millisecond, true)
	tel.Record("retrieve", 20*time.Millisecond, false)

	s := tel.Summary("retrieve")
	require.Equal(uint64(2), s.Count)
	require.Equal(uint64(1), s.Failures)
	require.Equal(15*time.Millisecond, s.MeanLatency)
}

func TestTelemetryPeerSuccessRateNeutralWithoutHistory(t *testing.T) {
	require.Equal(t, 0.5, NewTelemetry().PeerSuccessRate("unknown-peer"))
}

func TestTelemetrySelectPeerPrefersHigherSuccessRate(t *testing.T) {
	require := require.New(t)
	tel := NewTelemetry()
	good := coordcore.NodeID("good")
	bad := coordcore.NodeID("bad")

	for i := 0; i < 10; i++ {
		tel.RecordPeer(good, true)
		tel.RecordPeer(bad, false)
	}

	selected, ok := tel.SelectPeer([]coordcore.NodeID{bad, good})
	require.True(ok)
	require.Equal(good, selected)
}

func TestTelemetrySelectPeerWindowBoundsLockIn(t *testing.T) {
	require := require.New(t)
	tel := NewTelemetry()
	peer := coordcore.NodeID("peer")

	for i := 0; i < peerWindowSize; i++ {
		tel.RecordPeer(peer, true)
	}
	require.Equal(1.0, tel.PeerSuccessRate(peer))

	for i := 0; i < peerWindowSize; i++ {
		tel.RecordPeer(peer, false)
	}
	require.Equal(0.0, tel.PeerSuccessRate(peer))
}

func TestTelemetrySelectPeerEmptyCandidates(t *testing.T) {
	_, ok := NewTelemetry().SelectPeer(nil)
	require.False(t, ok)
}

func TestTelemetryExportsToMetricsRegistry(t *testing.T) {
	require := require.New(t)
	reg := metrics.NewRegistry()
	tel := NewTelemetryWithRegistry(reg)

	tel.Record("retrieve", 10*time.Millisecond, true)
	tel.Record("retrieve", 20*time.Millisecond, false)
	tel.RecordPeer(coordcore.NodeID("good"), true)

	count, err := reg.GetCounter("coordinator_op_retrieve_total")
	require.NoError(err)
	require.EqualValues(2, count.Read())

	failures, err := reg.GetCounter("coordinator_op_retrieve_failures_total")
	require.NoError(err)
	require.EqualValues(1, failures.Read())

	gauge, err := reg.GetGauge("coordinator_peer_good_success_rate")
	require.NoError(err)
	require.Equal(1.0, gauge.Read())
}
