// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adversarial implements the resilience layer that gates economic
// operations behind Byzantine-fault-tolerant validation, anti-gaming
// detection, and an emergency coordinator that can freeze, rate-limit, or
// roll back the system under attack.
package adversarial

import (
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// ByzantineThreshold is the fraction of a validator set that must confirm
// an operation for it to be accepted.
const ByzantineThreshold = 0.67

// MaxEconomicVelocity is the mana-per-second rate above which the gaming
// detector flags a VelocityAttack.
const MaxEconomicVelocity = 1000.0

// GamingDetectionWindow bounds how far back the velocity tracker looks
// when computing an account's recent transaction rate.
const GamingDetectionWindow = time.Hour

// EmergencyProtocol is a response the coordinator can activate once an
// attack is detected or an operator intervenes.
type EmergencyProtocol struct {
	Kind EmergencyKind
	// Accounts is populated for KindAccountFreeze.
	Accounts []coordcore.DID
	// RollbackTo is populated for KindRollback.
	RollbackTo time.Time
	// MaxOpsPerHour is populated for KindRateLimit.
	MaxOpsPerHour uint64
}

// EmergencyKind discriminates the EmergencyProtocol variants named in spec
// §4.8.
type EmergencyKind string

const (
	KindGlobalFreeze      EmergencyKind = "global_freeze"
	KindAccountFreeze     EmergencyKind = "account_freeze"
	KindRollback          EmergencyKind = "rollback"
	KindRateLimit         EmergencyKind = "rate_limit"
	KindEnhancedValidation EmergencyKind = "enhanced_validation"
)

// GlobalFreeze builds a EmergencyProtocol that halts every economic
// operation.
func GlobalFreeze() EmergencyProtocol { return EmergencyProtocol{Kind: KindGlobalFreeze} }

// AccountFreeze builds a EmergencyProtocol that halts operations for the
// named accounts only.
func AccountFreeze(accounts ...coordcore.DID) EmergencyProtocol {
	return EmergencyProtocol{Kind: KindAccountFreeze, Accounts: accounts}
}

// Rollback builds a EmergencyProtocol recording the timestamp the system
// should be restored to; executing the rollback is the caller's
// responsibility, this only records intent.
func Rollback(to time.Time) EmergencyProtocol {
	return EmergencyProtocol{Kind: KindRollback, RollbackTo: to}
}

// RateLimit builds a EmergencyProtocol capping operations per account per
// hour.
func RateLimit(maxPerHour uint64) EmergencyProtocol {
	return EmergencyProtocol{Kind: KindRateLimit, MaxOpsPerHour: maxPerHour}
}

// EnhancedValidation builds a EmergencyProtocol that, by convention,
// callers interpret as "require Byzantine validation even for operations
// that would otherwise skip it". The coordination core does not itself
// branch on this; it is recorded for integrators to act on.
func EnhancedValidation() EmergencyProtocol { return EmergencyProtocol{Kind: KindEnhancedValidation} }

// AttackKind names the class of economic attack a detector recognized.
type AttackKind string

const (
	AttackVelocity    AttackKind = "velocity"
	AttackCoordinated AttackKind = "coordinated"
	AttackIntegrity   AttackKind = "integrity"
	AttackSybil       AttackKind = "sybil"
)

// Detection is a single detector's finding: what kind of attack, how
// confident the detector is (0..1), which accounts are implicated, and the
// response the detector recommends.
type Detection struct {
	Attack      AttackKind
	Confidence  float64
	Timestamp   time.Time
	Accounts    []coordcore.DID
	Recommended EmergencyProtocol
	Detail      string
}

// HighConfidence reports whether a Detection exceeds the threshold at
// which ValidatedSpend/ValidatedCredit auto-activate its recommended
// protocol and reject the operation.
func (d Detection) HighConfidence() bool {
	return d.Confidence > 0.7
}
