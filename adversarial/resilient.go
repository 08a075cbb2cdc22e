// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"context"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/ledger"
)

// ResilientLedger wraps a ledger.ManaLedger so every spend/credit passes,
// in order, the emergency check, Byzantine validation, and gaming
// analysis before touching the underlying ledger.
type ResilientLedger struct {
	ledger    ledger.ManaLedger
	byzantine *ByzantineValidator
	gaming    *AntiGamingDetector
	emergency *EmergencyCoordinator
}

// NewResilientLedger wires the three adversarial-layer components around
// ledger.
func NewResilientLedger(l ledger.ManaLedger, byzantine *ByzantineValidator, gaming *AntiGamingDetector, emergency *EmergencyCoordinator) *ResilientLedger {
	return &ResilientLedger{ledger: l, byzantine: byzantine, gaming: gaming, emergency: emergency}
}

// Ledger returns the wrapped ledger for read-only queries (GetBalance,
// AllAccounts) that do not need adversarial gating.
func (r *ResilientLedger) Ledger() ledger.ManaLedger { return r.ledger }

// ValidatedSpend performs a gated mana spend: emergency check, then
// Byzantine validation of sigs over CanonicalOperationBytes("spend", did,
// amount), then gaming analysis (aborting and auto-activating the
// recommended protocol if any detection has confidence > 0.7), then the
// underlying Spend.
func (r *ResilientLedger) ValidatedSpend(ctx context.Context, did coordcore.DID, amount uint64, operationID string, sigs []Signature) error {
	return r.validated(ctx, "spend", did, amount, operationID, sigs, r.ledger.Spend)
}

// ValidatedCredit is ValidatedSpend's mirror for credits.
func (r *ResilientLedger) ValidatedCredit(ctx context.Context, did coordcore.DID, amount uint64, operationID string, sigs []Signature) error {
	return r.validated(ctx, "credit", did, amount, operationID, sigs, r.ledger.Credit)
}

func (r *ResilientLedger) validated(ctx context.Context, op string, did coordcore.DID, amount uint64, operationID string, sigs []Signature, apply func(coordcore.DID, uint64) error) error {
	if !r.emergency.IsOperationAllowed(did) {
		return coordcore.New(coordcore.KindPolicyDenied, "adversarial: operation blocked by emergency protocols")
	}

	ok, err := r.byzantine.ValidateOperation(ctx, operationID, CanonicalOperationBytes(op, did, amount), sigs)
	if err != nil {
		return err
	}
	if !ok {
		return coordcore.New(coordcore.KindPolicyDenied, "adversarial: byzantine validation failed")
	}

	for _, detection := range r.gaming.AnalyzeOperation(did, amount, op) {
		if detection.HighConfidence() {
			r.emergency.ActivateProtocol(detection.Recommended)
			return coordcore.New(coordcore.KindPolicyDenied, "adversarial: attack detected: "+string(detection.Attack))
		}
	}

	return apply(did, amount)
}
