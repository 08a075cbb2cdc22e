// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordcore holds the identifiers, clock, and error taxonomy shared
// across every coordination-core component: DIDs, node IDs, content IDs, and
// the vector clock that threads causal metadata through the CRDT layer.
package coordcore

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// DID is a decentralized identifier of the form "method:scheme:identifier".
// It names a principal: an attestor, an executor, a voter.
type DID string

// ErrMalformedDID is returned by ParseDID when the method:scheme:identifier
// shape is violated.
var ErrMalformedDID = errors.New("coordcore: malformed DID")

// ParseDID validates the method:scheme:identifier shape and returns it
// unchanged on success.
func ParseDID(s string) (DID, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedDID, s)
	}
	return DID(s), nil
}

// NodeID tags the physical replica emitting an operation. It may differ from
// a DID when a single operator runs several nodes.
type NodeID string

// FederationID names a cooperative grouping; the value is opaque to the
// core and interpreted only by the trust engine and federation sync.
type FederationID string

// JobID is the CID of a job manifest. It is a type alias, so it documents
// intent at call sites but is interchangeable with any CID for the compiler.
type JobID = CID

// HashAlg names the hash function used to derive a CID from canonical bytes.
type HashAlg uint8

const (
	// HashAlgXXHash64 is the default, fast content hash used for ordinary
	// blocks (receipts, manifests, audit events).
	HashAlgXXHash64 HashAlg = iota
	// HashAlgBlake2b256 is offered for blocks that cross into federations
	// requiring a cryptographically stronger content hash (e.g. checkpoint
	// bodies that anchor economic settlement).
	HashAlgBlake2b256
)

func (h HashAlg) String() string {
	switch h {
	case HashAlgXXHash64:
		return "xxhash64"
	case HashAlgBlake2b256:
		return "blake2b-256"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(h))
	}
}

// Codec names the payload encoding a DAG block carries.
type Codec uint8

const (
	// CodecRaw is an opaque byte payload (e.g. manifests, receipts encoded
	// upstream).
	CodecRaw Codec = iota
	// CodecJSON is a canonical-JSON encoded payload.
	CodecJSON
)

// CIDVersion is incremented only if the derivation function in
// ComputeCID changes in an incompatible way.
const CIDVersion = 1

// CID is a content identifier: a deterministic function of a block's codec,
// payload, links, timestamp, author, and optional signature/scope.
type CID struct {
	Version  uint8
	Codec    Codec
	HashAlg  HashAlg
	HashByte [32]byte // truncated/padded digest; only the first N bytes per HashAlg are meaningful
}

// IsZero reports whether c is the zero CID (used as a "no value" sentinel in
// optional fields such as Job.ManifestCID).
func (c CID) IsZero() bool {
	return c == CID{}
}

// Bytes returns the wire representation of the CID: version, codec, hash
// algorithm, then the digest bytes.
func (c CID) Bytes() []byte {
	out := make([]byte, 3, 3+32)
	out[0] = c.Version
	out[1] = byte(c.Codec)
	out[2] = byte(c.HashAlg)
	return append(out, c.HashByte[:]...)
}

// String renders the CID as a lowercase hex string prefixed with its
// version, numeric codec and hash algorithm, e.g. "cidv1-0-xxhash64-<hex>"
// for a CodecRaw block.
func (c CID) String() string {
	return fmt.Sprintf("cidv%d-%d-%s-%s", c.Version, c.Codec, c.HashAlg, hex.EncodeToString(c.HashByte[:]))
}

// Less gives CIDs a deterministic total order over their byte encoding, used
// by canonical root selection to break height ties on "lexicographically
// smallest CID bytes".
func (c CID) Less(other CID) bool {
	a, b := c.Bytes(), other.Bytes()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Signature is a detached ed25519 signature over a canonical byte encoding.
type Signature []byte

// Verify checks sig against msg under the given ed25519 public key bytes.
func (sig Signature) Verify(pub ed25519.PublicKey, msg []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
