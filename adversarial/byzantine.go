// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// ValidationRecord is one validator's signature attempt over an operation,
// retained for audit regardless of whether the signature verified.
type ValidationRecord struct {
	Validator   coordcore.DID
	OperationID string
	Timestamp   time.Time
	Valid       bool
}

// Signature pairs a validator DID with its signature over the canonical
// operation bytes.
type Signature struct {
	Validator coordcore.DID
	Sig       coordcore.Signature
}

// ByzantineValidator accepts an operation only once a quorum of distinct
// validators from a fixed set V produce verifiable signatures over its
// canonical bytes, where the quorum size is ceil(|V| * ByzantineThreshold).
type ByzantineValidator struct {
	resolver      coordcore.DIDResolver
	validators    map[coordcore.DID]struct{}
	required      int

	mu      sync.Mutex
	history map[string][]ValidationRecord
}

// NewByzantineValidator builds a validator for the given set, clamping the
// required-confirmation count to at least 1 so an empty or singleton
// validator set is never vacuously satisfied by zero signatures.
func NewByzantineValidator(resolver coordcore.DIDResolver, validators []coordcore.DID) *ByzantineValidator {
	set := make(map[coordcore.DID]struct{}, len(validators))
	for _, v := range validators {
		set[v] = struct{}{}
	}
	required := int(math.Ceil(float64(len(set)) * ByzantineThreshold))
	if required < 1 {
		required = 1
	}
	return &ByzantineValidator{
		resolver:   resolver,
		validators: set,
		required:   required,
		history:    make(map[string][]ValidationRecord),
	}
}

// RequiredConfirmations returns the quorum size this validator enforces.
func (b *ByzantineValidator) RequiredConfirmations() int { return b.required }

// ValidateOperation checks signatures against operationData and reports
// whether at least RequiredConfirmations distinct, known validators
// produced a verifiable signature. Every attempt — valid or not — is
// appended to the per-operation audit history before the verdict is
// returned.
func (b *ByzantineValidator) ValidateOperation(ctx context.Context, operationID string, operationData []byte, sigs []Signature) (bool, error) {
	seen := make(map[coordcore.DID]struct{}, len(sigs))
	var records []ValidationRecord
	valid := 0
	now := time.Now()

	for _, s := range sigs {
		if _, ok := b.validators[s.Validator]; !ok {
			continue // signatures from outside V never count toward quorum
		}
		if _, dup := seen[s.Validator]; dup {
			continue // a validator's second signature does not add a second confirmation
		}
		seen[s.Validator] = struct{}{}

		ok := b.verify(ctx, s.Validator, operationData, s.Sig)
		records = append(records, ValidationRecord{
			Validator:   s.Validator,
			OperationID: operationID,
			Timestamp:   now,
			Valid:       ok,
		})
		if ok {
			valid++
		}
	}

	b.mu.Lock()
	b.history[operationID] = append(b.history[operationID], records...)
	b.mu.Unlock()

	return valid >= b.required, nil
}

func (b *ByzantineValidator) verify(ctx context.Context, validator coordcore.DID, data []byte, sig coordcore.Signature) bool {
	pub, err := b.resolver.Resolve(ctx, validator)
	if err != nil {
		return false
	}
	return sig.Verify(ed25519.PublicKey(pub), data)
}

// History returns the retained validation records for operationID, or nil
// if no validation was ever attempted for it.
func (b *ByzantineValidator) History(operationID string) []ValidationRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ValidationRecord(nil), b.history[operationID]...)
}

// CanonicalOperationBytes renders the fields validators sign over for a
// mana spend/credit operation, matching the wire shape validated_spend and
// validated_credit build before collecting signatures.
func CanonicalOperationBytes(op string, did coordcore.DID, amount uint64) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", op, did, amount))
}
