// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"math"
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

type operationRecord struct {
	timestamp time.Time
	amount    uint64
}

// velocityTracker retains an account's operations within GamingDetectionWindow,
// evicting older entries on each update.
type velocityTracker struct {
	operations []operationRecord
}

func (t *velocityTracker) record(now time.Time, amount uint64) {
	cutoff := now.Add(-GamingDetectionWindow)
	kept := t.operations[:0]
	for _, op := range t.operations {
		if !op.timestamp.Before(cutoff) {
			kept = append(kept, op)
		}
	}
	t.operations = append(kept, operationRecord{timestamp: now, amount: amount})
}

// velocity computes total amount / time span across the retained window,
// the quantity §4.8 compares against MaxEconomicVelocity. A single sample
// (zero span) has no velocity yet.
func (t *velocityTracker) velocity() (float64, bool) {
	if len(t.operations) < 2 {
		return 0, false
	}
	span := t.operations[len(t.operations)-1].timestamp.Sub(t.operations[0].timestamp).Seconds()
	if span <= 0 {
		return 0, false
	}
	var total uint64
	for _, op := range t.operations {
		total += op.amount
	}
	return float64(total) / span, true
}

// interactionGraph tracks directed counterparty interaction counts plus the
// timestamps of each interaction, the two signals a coordination detector
// needs: density (frequency thresholds) and lockstep timing.
type interactionGraph struct {
	counts    map[coordcore.DID]map[coordcore.DID]uint32
	timestamps map[coordcore.DID][]time.Time
}

func newInteractionGraph() *interactionGraph {
	return &interactionGraph{
		counts:     make(map[coordcore.DID]map[coordcore.DID]uint32),
		timestamps: make(map[coordcore.DID][]time.Time),
	}
}

func (g *interactionGraph) record(from, to coordcore.DID, now time.Time) {
	if g.counts[from] == nil {
		g.counts[from] = make(map[coordcore.DID]uint32)
	}
	g.counts[from][to]++
	g.timestamps[from] = append(g.timestamps[from], now)
}

// CoordinationDensityThreshold is the interaction count at or above which a
// single counterparty pair is considered tightly connected. Counts are
// cumulative since the detector was created; they are not evicted by
// GamingDetectionWindow.
const CoordinationDensityThreshold = 20

// LockstepCVThreshold is the coefficient-of-variation ceiling below which
// an account's inter-operation intervals are considered suspiciously
// regular (bots firing on a fixed cadence rather than human-paced usage).
const LockstepCVThreshold = 0.15

// lockstepCV returns the coefficient of variation (stddev/mean) of the
// gaps between consecutive timestamps, and whether enough samples existed
// to compute it.
func lockstepCV(timestamps []time.Time) (float64, bool) {
	if len(timestamps) < 4 {
		return 0, false
	}
	gaps := make([]float64, 0, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		gaps = append(gaps, timestamps[i].Sub(timestamps[i-1]).Seconds())
	}
	var sum float64
	for _, g := range gaps {
		sum += g
	}
	mean := sum / float64(len(gaps))
	if mean <= 0 {
		return 0, false
	}
	var variance float64
	for _, g := range gaps {
		d := g - mean
		variance += d * d
	}
	variance /= float64(len(gaps))
	return math.Sqrt(variance) / mean, true
}

// integrityMonitor detects duplicate-operation attempts (double spend) per
// operation ID and records balance inconsistencies an external reconciler
// found.
type integrityMonitor struct {
	attempts      map[string]map[coordcore.DID]struct{}
	inconsistencies []BalanceInconsistency
}

func newIntegrityMonitor() *integrityMonitor {
	return &integrityMonitor{attempts: make(map[string]map[coordcore.DID]struct{})}
}

// BalanceInconsistency records an external reconciler's finding that an
// account's observed balance disagrees with its expected balance.
type BalanceInconsistency struct {
	Account  coordcore.DID
	Expected uint64
	Actual   uint64
	At       time.Time
}

// checkDoubleSpend reports whether account has already attempted
// operationID; the first attempt for a given (operationID, account) pair
// is recorded and reports false.
func (m *integrityMonitor) checkDoubleSpend(operationID string, account coordcore.DID) bool {
	seen := m.attempts[operationID]
	if seen == nil {
		seen = make(map[coordcore.DID]struct{})
		m.attempts[operationID] = seen
	}
	if _, dup := seen[account]; dup {
		return true
	}
	seen[account] = struct{}{}
	return false
}

func (m *integrityMonitor) recordInconsistency(account coordcore.DID, expected, actual uint64, at time.Time) {
	m.inconsistencies = append(m.inconsistencies, BalanceInconsistency{
		Account: account, Expected: expected, Actual: actual, At: at,
	})
}

// AntiGamingDetector composes the velocity, coordination, integrity, and
// Sybil signals. The Sybil analyzer is a baseline that flags nothing (see
// DetectSybilAttack); creation-burst and graph analysis plug in behind the
// same method.
type AntiGamingDetector struct {
	mu         sync.Mutex
	velocities map[coordcore.DID]*velocityTracker
	graph      *interactionGraph
	integrity  *integrityMonitor
	now        func() time.Time
}

// NewAntiGamingDetector returns a detector using now for timestamps (tests
// inject a fixed clock; production passes time.Now).
func NewAntiGamingDetector(now func() time.Time) *AntiGamingDetector {
	if now == nil {
		now = time.Now
	}
	return &AntiGamingDetector{
		velocities: make(map[coordcore.DID]*velocityTracker),
		graph:      newInteractionGraph(),
		integrity:  newIntegrityMonitor(),
		now:        now,
	}
}

// AnalyzeOperation updates the velocity tracker for did and returns any
// detections the velocity/coordination signals raise for this operation.
func (d *AntiGamingDetector) AnalyzeOperation(did coordcore.DID, amount uint64, operationType string) []Detection {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	tracker := d.velocities[did]
	if tracker == nil {
		tracker = &velocityTracker{}
		d.velocities[did] = tracker
	}
	tracker.record(now, amount)

	var detections []Detection
	if v, ok := tracker.velocity(); ok && v > MaxEconomicVelocity {
		detections = append(detections, Detection{
			Attack:      AttackVelocity,
			Confidence:  0.8,
			Timestamp:   now,
			Accounts:    []coordcore.DID{did},
			Recommended: AccountFreeze(did),
			Detail:      "velocity exceeds threshold",
		})
	}

	if cv, ok := lockstepCV(d.graph.timestamps[did]); ok && cv < LockstepCVThreshold {
		if coordinated := d.denseCounterparties(did); len(coordinated) > 0 {
			detections = append(detections, Detection{
				Attack:      AttackCoordinated,
				Confidence:  0.75,
				Timestamp:   now,
				Accounts:    append([]coordcore.DID{did}, coordinated...),
				Recommended: AccountFreeze(append([]coordcore.DID{did}, coordinated...)...),
				Detail:      "dense, lockstep-timed interaction cluster",
			})
		}
	}

	return detections
}

func (d *AntiGamingDetector) denseCounterparties(did coordcore.DID) []coordcore.DID {
	var out []coordcore.DID
	for counterparty, n := range d.graph.counts[did] {
		if n >= CoordinationDensityThreshold {
			out = append(out, counterparty)
		}
	}
	return out
}

// RecordInteraction notes a from->to interaction for the coordination
// detector's interaction graph and timing analysis.
func (d *AntiGamingDetector) RecordInteraction(from, to coordcore.DID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.graph.record(from, to, d.now())
}

// CheckDoubleSpend reports whether account already attempted operationID,
// recording the attempt either way.
func (d *AntiGamingDetector) CheckDoubleSpend(operationID string, account coordcore.DID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.integrity.checkDoubleSpend(operationID, account)
}

// RecordBalanceInconsistency logs a reconciler-reported mismatch.
func (d *AntiGamingDetector) RecordBalanceInconsistency(account coordcore.DID, expected, actual uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.integrity.recordInconsistency(account, expected, actual, d.now())
}

// BalanceInconsistencies returns every inconsistency recorded so far.
func (d *AntiGamingDetector) BalanceInconsistencies() []BalanceInconsistency {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]BalanceInconsistency(nil), d.integrity.inconsistencies...)
}

// DetectSybilAttack analyzes a candidate account set for Sybil patterns.
// A full implementation examines account-creation timing and graph
// structure; this baseline flags nothing, giving integrators a typed
// extension point.
func (d *AntiGamingDetector) DetectSybilAttack(accounts []coordcore.DID) *Detection {
	return nil
}
