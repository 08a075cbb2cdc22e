// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package adversarial

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func resolverWithKeys(t *testing.T, dids ...coordcore.DID) (*coordcore.StaticResolver, map[coordcore.DID]ed25519.PrivateKey) {
	t.Helper()
	keys := make(map[coordcore.DID]ed25519.PrivateKey)
	pubs := make(map[coordcore.DID]ed25519.PublicKey)
	for _, did := range dids {
		pub, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[did] = priv
		pubs[did] = pub
	}
	return coordcore.NewStaticResolver(pubs), keys
}

func TestByzantineValidatorRequiredConfirmations(t *testing.T) {
	require := require.New(t)
	dids := []coordcore.DID{"did:icn:v1", "did:icn:v2", "did:icn:v3"}
	resolver, _ := resolverWithKeys(t, dids...)

	v := NewByzantineValidator(resolver, dids)
	// ceil(3 * 0.67) = ceil(2.01) = 3
	require.Equal(3, v.RequiredConfirmations())
}

func TestByzantineValidatorSingleValidatorFloor(t *testing.T) {
	require := require.New(t)
	dids := []coordcore.DID{"did:icn:solo"}
	resolver, _ := resolverWithKeys(t, dids...)

	v := NewByzantineValidator(resolver, dids)
	require.Equal(1, v.RequiredConfirmations())
}

func TestByzantineValidateOperationQuorum(t *testing.T) {
	require := require.New(t)
	dids := []coordcore.DID{"did:icn:v1", "did:icn:v2", "did:icn:v3"}
	resolver, keys := resolverWithKeys(t, dids...)
	v := NewByzantineValidator(resolver, dids)

	data := CanonicalOperationBytes("spend", "did:icn:alice", 100)
	var sigs []Signature
	for _, did := range dids {
		sigs = append(sigs, Signature{Validator: did, Sig: coordcore.Signature(ed25519.Sign(keys[did], data))})
	}

	ok, err := v.ValidateOperation(context.Background(), "op-1", data, sigs)
	require.NoError(err)
	require.True(ok)
	require.Len(v.History("op-1"), 3)
}

func TestByzantineValidateOperationInsufficientSignatures(t *testing.T) {
	require := require.New(t)
	dids := []coordcore.DID{"did:icn:v1", "did:icn:v2", "did:icn:v3"}
	resolver, keys := resolverWithKeys(t, dids...)
	v := NewByzantineValidator(resolver, dids)

	data := CanonicalOperationBytes("spend", "did:icn:alice", 100)
	sigs := []Signature{{Validator: dids[0], Sig: coordcore.Signature(ed25519.Sign(keys[dids[0]], data))}}

	ok, err := v.ValidateOperation(context.Background(), "op-2", data, sigs)
	require.NoError(err)
	require.False(ok)
}

func TestByzantineValidateOperationRejectsBadSignature(t *testing.T) {
	require := require.New(t)
	dids := []coordcore.DID{"did:icn:v1", "did:icn:v2", "did:icn:v3"}
	resolver, keys := resolverWithKeys(t, dids...)
	v := NewByzantineValidator(resolver, dids)

	data := CanonicalOperationBytes("spend", "did:icn:alice", 100)
	var sigs []Signature
	for i, did := range dids {
		sig := ed25519.Sign(keys[did], data)
		if i == 0 {
			sig[0] ^= 0xFF // corrupt one signature
		}
		sigs = append(sigs, Signature{Validator: did, Sig: coordcore.Signature(sig)})
	}

	ok, err := v.ValidateOperation(context.Background(), "op-3", data, sigs)
	require.NoError(err)
	require.False(ok) // only 2 of 3 valid, required is 3

	hist := v.History("op-3")
	require.Len(hist, 3)
	var validCount int
	for _, r := range hist {
		if r.Valid {
			validCount++
		}
	}
	require.Equal(2, validCount)
}

func TestByzantineValidateOperationIgnoresUnknownValidator(t *testing.T) {
	require := require.New(t)
	dids := []coordcore.DID{"did:icn:v1"}
	resolver, keys := resolverWithKeys(t, dids...)
	v := NewByzantineValidator(resolver, dids)

	data := CanonicalOperationBytes("spend", "did:icn:alice", 100)
	_, strangerKey, _ := ed25519.GenerateKey(nil)
	sigs := []Signature{
		{Validator: "did:icn:stranger", Sig: coordcore.Signature(ed25519.Sign(strangerKey, data))},
		{Validator: dids[0], Sig: coordcore.Signature(ed25519.Sign(keys[dids[0]], data))},
	}

	ok, err := v.ValidateOperation(context.Background(), "op-4", data, sigs)
	require.NoError(err)
	require.True(ok)
}
