// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

func TestCredentialProofVerifySucceeds(t *testing.T) {
	require := require.New(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(err)

	issuer := coordcore.DID("did:icn:issuer")
	subject := coordcore.DID("did:icn:subject")
	resolver := coordcore.NewStaticResolver(map[coordcore.DID]ed25519.PublicKey{issuer: pub})

	cred := &CredentialProof{Issuer: issuer, Subject: subject, Claims: map[string]string{"role": "member"}, IssuedAt: 100}
	cred.Signature = ed25519.Sign(priv, cred.SignableBytes())

	require.NoError(cred.Verify(context.Background(), resolver, subject))
}

func TestCredentialProofVerifyRejectsWrongSubject(t *testing.T) {
	require := require.New(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(err)

	issuer := coordcore.DID("did:icn:issuer")
	subject := coordcore.DID("did:icn:subject")
	resolver := coordcore.NewStaticResolver(map[coordcore.DID]ed25519.PublicKey{issuer: pub})

	cred := &CredentialProof{Issuer: issuer, Subject: subject, IssuedAt: 100}
	cred.Signature = ed25519.Sign(priv, cred.SignableBytes())

	err = cred.Verify(context.Background(), resolver, coordcore.DID("did:icn:someone-else"))
	require.Error(err)
}

func TestCredentialProofVerifyRejectsTamperedClaims(t *testing.T) {
	require := require.New(t)
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(err)

	issuer := coordcore.DID("did:icn:issuer")
	subject := coordcore.DID("did:icn:subject")
	resolver := coordcore.NewStaticResolver(map[coordcore.DID]ed25519.PublicKey{issuer: pub})

	cred := &CredentialProof{Issuer: issuer, Subject: subject, Claims: map[string]string{"role": "member"}, IssuedAt: 100}
	cred.Signature = ed25519.Sign(priv, cred.SignableBytes())
	cred.Claims["role"] = "admin"

	err = cred.Verify(context.Background(), resolver, subject)
	require.Error(err)
}

func TestAttestationVerifyWithCredential(t *testing.T) {
	require := require.New(t)
	attesterPub, attesterPriv, err := ed25519.GenerateKey(nil)
	require.NoError(err)
	issuerPub, issuerPriv, err := ed25519.GenerateKey(nil)
	require.NoError(err)

	attester := coordcore.DID("did:icn:attester")
	issuer := coordcore.DID("did:icn:issuer")
	subject := coordcore.DID("did:icn:subject")
	resolver := coordcore.NewStaticResolver(map[coordcore.DID]ed25519.PublicKey{
		attester: attesterPub,
		issuer:   issuerPub,
	})

	cred := &CredentialProof{Issuer: issuer, Subject: subject, Claims: map[string]string{"cert": "coop-member"}, IssuedAt: 50}
	cred.Signature = ed25519.Sign(issuerPriv, cred.SignableBytes())

	a := &Attestation{Attester: attester, Subject: subject, Context: ContextGeneral, Level: LevelFull, Timestamp: 100, Credential: cred}
	a.Signature = ed25519.Sign(attesterPriv, a.SignableBytes())

	require.NoError(a.Verify(context.Background(), resolver))
}

func TestAttestationVerifyFailsWhenCredentialInvalid(t *testing.T) {
	require := require.New(t)
	attesterPub, attesterPriv, err := ed25519.GenerateKey(nil)
	require.NoError(err)
	issuerPub, issuerPriv, err := ed25519.GenerateKey(nil)
	require.NoError(err)

	attester := coordcore.DID("did:icn:attester")
	issuer := coordcore.DID("did:icn:issuer")
	subject := coordcore.DID("did:icn:subject")
	resolver := coordcore.NewStaticResolver(map[coordcore.DID]ed25519.PublicKey{
		attester: attesterPub,
		issuer:   issuerPub,
	})

	cred := &CredentialProof{Issuer: issuer, Subject: subject, IssuedAt: 50}
	cred.Signature = ed25519.Sign(issuerPriv, cred.SignableBytes())
	cred.Subject = coordcore.DID("did:icn:someone-else") // tamper after signing

	a := &Attestation{Attester: attester, Subject: subject, Context: ContextGeneral, Level: LevelFull, Timestamp: 100, Credential: cred}
	a.Signature = ed25519.Sign(attesterPriv, a.SignableBytes())

	err = a.Verify(context.Background(), resolver)
	require.Error(err)
}
