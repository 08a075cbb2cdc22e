// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package coordcore

import (
	"context"
	"crypto/ed25519"
)

// DIDResolver maps a DID to the ed25519 public key that must verify any
// signature the DID produces. Every signature-checking call site (receipt
// anchoring, attestations, checkpoint headers) goes through a resolver
// rather than trusting an embedded key, so key rotation only touches the
// resolver's backing store.
type DIDResolver interface {
	Resolve(ctx context.Context, did DID) (ed25519.PublicKey, error)
}

// StaticResolver is a DIDResolver backed by an in-memory map, sufficient for
// tests and single-process deployments.
type StaticResolver struct {
	keys map[DID]ed25519.PublicKey
}

// NewStaticResolver returns a resolver seeded with keys.
func NewStaticResolver(keys map[DID]ed25519.PublicKey) *StaticResolver {
	if keys == nil {
		keys = make(map[DID]ed25519.PublicKey)
	}
	return &StaticResolver{keys: keys}
}

// Register binds a DID to a public key, overwriting any prior binding.
func (r *StaticResolver) Register(did DID, pub ed25519.PublicKey) {
	r.keys[did] = pub
}

// Resolve implements DIDResolver.
func (r *StaticResolver) Resolve(_ context.Context, did DID) (ed25519.PublicKey, error) {
	pub, ok := r.keys[did]
	if !ok {
		return nil, Wrap(KindIdentityError, "unknown DID", ErrNotFound)
	}
	return pub, nil
}
