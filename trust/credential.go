// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// CredentialProof is a narrowed, coordination-core-scoped stand-in for the
// W3C Verifiable Credential proof named in
// icn-identity/verifiable_credential.rs: an issuer's signature over a
// claim set about a subject, rather than the full VC envelope (contexts,
// revocation registries, credential categories) that module defines. An
// Attestation may carry one in place of a bare signature when the vouch
// needs to reference externally-issued claims (membership, certification)
// instead of the attester's own say-so.
type CredentialProof struct {
	Issuer    coordcore.DID
	Subject   coordcore.DID
	Claims    map[string]string
	IssuedAt  int64
	Signature coordcore.Signature
}

// SignableBytes renders the canonical bytes an issuer signs: issuer,
// subject, issued-at, then claims sorted by key so the same claim set
// always serializes identically regardless of map iteration order.
func (c *CredentialProof) SignableBytes() []byte {
	keys := make([]string, 0, len(c.Claims))
	for k := range c.Claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]struct {
		Key   string `json:"k"`
		Value string `json:"v"`
	}, len(keys))
	for i, k := range keys {
		ordered[i].Key = k
		ordered[i].Value = c.Claims[k]
	}

	buf, _ := json.Marshal(struct {
		Issuer   coordcore.DID `json:"issuer"`
		Subject  coordcore.DID `json:"subject"`
		IssuedAt int64         `json:"issued_at"`
		Claims   []struct {
			Key   string `json:"k"`
			Value string `json:"v"`
		} `json:"claims"`
	}{c.Issuer, c.Subject, c.IssuedAt, ordered})
	return buf
}

// Verify checks the proof's signature under the issuer's public key,
// resolved through resolver, and that the proof names subject as its
// credential subject.
func (c *CredentialProof) Verify(ctx context.Context, resolver coordcore.DIDResolver, subject coordcore.DID) error {
	if c.Subject != subject {
		return coordcore.New(coordcore.KindInvalidOperation, "credential proof subject does not match attestation subject")
	}
	pub, err := resolver.Resolve(ctx, c.Issuer)
	if err != nil {
		return coordcore.Wrap(coordcore.KindIdentityError, "resolve credential issuer", err)
	}
	if !c.Signature.Verify(pub, c.SignableBytes()) {
		return coordcore.New(coordcore.KindIdentityError, "credential proof signature invalid")
	}
	return nil
}
