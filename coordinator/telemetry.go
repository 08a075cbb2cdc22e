// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package coordinator

import (
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/metrics"
)

// peerWindowSize bounds how many recent outcomes a peer's success rate is
// computed over, so a peer's record from the distant past does not lock in
// its future selection.
const peerWindowSize = 50

type opStats struct {
	count        uint64
	failures     uint64
	totalLatency time.Duration
}

type peerStats struct {
	outcomes []bool // ring buffer of the last peerWindowSize Send/Sync outcomes
	next     int
	filled   int
}

func (p *peerStats) record(success bool) {
	if len(p.outcomes) < peerWindowSize {
		p.outcomes = append(p.outcomes, success)
	} else {
		p.outcomes[p.next] = success
		p.next = (p.next + 1) % peerWindowSize
	}
	if p.filled < peerWindowSize {
		p.filled++
	}
}

func (p *peerStats) successRate() float64 {
	if p.filled == 0 {
		return 0.5 // no history yet: neutral prior, neither preferred nor penalized
	}
	var successes int
	for _, ok := range p.outcomes {
		if ok {
			successes++
		}
	}
	return float64(successes) / float64(p.filled)
}

// Telemetry tracks per-operation latency/success counts and per-peer
// success rates, feeding SelectPeer's adaptive policy.
//
// When built by NewTelemetryWithRegistry with a registry, every op/peer
// sample is also mirrored into that metrics.Registry (which may wrap a
// prometheus.Registerer) so an operator's existing scrape setup observes
// the same counts this package uses internally for peer selection — the
// registry is the export path, the maps above are the decision path.
type Telemetry struct {
	mu    sync.Mutex
	ops   map[string]*opStats
	peers map[coordcore.NodeID]*peerStats

	reg         metrics.Registry
	opCounters  map[string]metrics.Counter
	opFailures  map[string]metrics.Counter
	opLatencies map[string]metrics.Averager
	peerGauges  map[coordcore.NodeID]metrics.Gauge
}

// NewTelemetry returns an empty telemetry tracker with no metrics export.
func NewTelemetry() *Telemetry {
	return NewTelemetryWithRegistry(nil)
}

// NewTelemetryWithRegistry returns an empty telemetry tracker that also
// mirrors every sample into reg. A nil reg disables export (equivalent to
// NewTelemetry).
func NewTelemetryWithRegistry(reg metrics.Registry) *Telemetry {
	return &Telemetry{
		ops:         make(map[string]*opStats),
		peers:       make(map[coordcore.NodeID]*peerStats),
		reg:         reg,
		opCounters:  make(map[string]metrics.Counter),
		opFailures:  make(map[string]metrics.Counter),
		opLatencies: make(map[string]metrics.Averager),
		peerGauges:  make(map[coordcore.NodeID]metrics.Gauge),
	}
}

// Record appends a latency/outcome sample for a named operation (e.g.
// "store", "retrieve", "sync").
func (t *Telemetry) Record(op string, latency time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.ops[op]
	if s == nil {
		s = &opStats{}
		t.ops[op] = s
	}
	s.count++
	s.totalLatency += latency
	if !success {
		s.failures++
	}
	t.exportOpLocked(op, latency, success)
}

// exportOpLocked mirrors one op sample into the metrics registry, creating
// its counters/averager on first use. Called with t.mu held.
func (t *Telemetry) exportOpLocked(op string, latency time.Duration, success bool) {
	if t.reg == nil {
		return
	}
	count, ok := t.opCounters[op]
	if !ok {
		count = t.reg.NewCounter("coordinator_op_" + op + "_total")
		t.opCounters[op] = count
	}
	count.Inc()

	if !success {
		fail, ok := t.opFailures[op]
		if !ok {
			fail = t.reg.NewCounter("coordinator_op_" + op + "_failures_total")
			t.opFailures[op] = fail
		}
		fail.Inc()
	}

	avg, ok := t.opLatencies[op]
	if !ok {
		avg = t.reg.NewAverager("coordinator_op_" + op + "_latency_ms")
		t.opLatencies[op] = avg
	}
	avg.Observe(float64(latency.Milliseconds()))
}

// OpSummary reports an operation's call count, failure count, and mean
// latency.
type OpSummary struct {
	Count        uint64
	Failures     uint64
	MeanLatency  time.Duration
}

// Summary returns the current summary for op, the zero value if never
// recorded.
func (t *Telemetry) Summary(op string) OpSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.ops[op]
	if s == nil || s.count == 0 {
		return OpSummary{}
	}
	return OpSummary{
		Count:       s.count,
		Failures:    s.failures,
		MeanLatency: s.totalLatency / time.Duration(s.count),
	}
}

// RecordPeer appends a success/failure outcome for peer, e.g. after a
// federation sync round or a coordinator block fetch.
func (t *Telemetry) RecordPeer(peer coordcore.NodeID, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.peers[peer]
	if p == nil {
		p = &peerStats{}
		t.peers[peer] = p
	}
	p.record(success)

	if t.reg != nil {
		gauge, ok := t.peerGauges[peer]
		if !ok {
			gauge = t.reg.NewGauge("coordinator_peer_" + string(peer) + "_success_rate")
			t.peerGauges[peer] = gauge
		}
		gauge.Set(p.successRate())
	}
}

// PeerSuccessRate returns peer's windowed success rate, 0.5 (neutral) if
// no history exists yet.
func (t *Telemetry) PeerSuccessRate(peer coordcore.NodeID) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.peers[peer]
	if p == nil {
		return 0.5
	}
	return p.successRate()
}

// SelectPeer picks the candidate with the highest windowed success rate,
// breaking ties by earliest position in candidates (stable, deterministic
// — no randomness feeds peer selection). Returns false if candidates is
// empty.
func (t *Telemetry) SelectPeer(candidates []coordcore.NodeID) (coordcore.NodeID, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	best := candidates[0]
	bestRate := t.PeerSuccessRate(best)
	for _, c := range candidates[1:] {
		if rate := t.PeerSuccessRate(c); rate > bestRate {
			best, bestRate = c, rate
		}
	}
	return best, true
}
