// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dag implements the content-addressed block store that serves as
// the durable log for receipts, proposals, and checkpoints: a pluggable
// store behind a narrow put/get/contains/list contract, canonical-root
// selection, and main-parent chain traversal.
package dag

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Link names a parent block by CID, mirroring an IPLD-style named link.
// Links[0] is the "main" parent consulted by chain traversal.
type Link struct {
	CID  coordcore.CID
	Name string
	Size uint64
}

// Block is an immutable, content-addressed unit of the DAG. Once anchored,
// a block's CID is a pure function of every other field; mutating any field
// invalidates the CID, which is why Block exposes no setters once created.
type Block struct {
	CID       coordcore.CID
	Data      []byte
	Links     []Link
	Timestamp time.Time
	Author    coordcore.DID
	Signature coordcore.Signature // optional
	Scope     string              // optional federation scope
}

// canonicalBytes renders the fields that feed CID derivation, excluding CID
// itself, in a fixed order so the same logical block always hashes
// identically regardless of map iteration or encoding library quirks.
func canonicalBytes(codec coordcore.Codec, data []byte, links []Link, ts time.Time, author coordcore.DID, sig coordcore.Signature, scope string) []byte {
	buf := make([]byte, 0, len(data)+64)
	buf = append(buf, byte(codec))

	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, data...)

	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(links)))
	buf = append(buf, lenBuf[:]...)
	for _, l := range links {
		buf = append(buf, l.CID.Bytes()...)
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(l.Name)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, l.Name...)
		binary.BigEndian.PutUint64(lenBuf[:], l.Size)
		buf = append(buf, lenBuf[:]...)
	}

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(ts.UnixNano()))
	buf = append(buf, tsBuf[:]...)

	buf = append(buf, []byte(author)...)
	buf = append(buf, 0) // separator
	buf = append(buf, sig...)
	buf = append(buf, 0)
	buf = append(buf, scope...)
	return buf
}

// ComputeCID derives the content identifier for a block's fields under the
// requested hash algorithm. Two blocks with identical fields always produce
// identical CIDs; any field change changes the CID.
func ComputeCID(codec coordcore.Codec, alg coordcore.HashAlg, data []byte, links []Link, ts time.Time, author coordcore.DID, sig coordcore.Signature, scope string) (coordcore.CID, error) {
	msg := canonicalBytes(codec, data, links, ts, author, sig, scope)

	cid := coordcore.CID{Version: coordcore.CIDVersion, Codec: codec, HashAlg: alg}
	switch alg {
	case coordcore.HashAlgXXHash64:
		h := xxhash.Sum64(msg)
		binary.BigEndian.PutUint64(cid.HashByte[:8], h)
	case coordcore.HashAlgBlake2b256:
		sum := blake2b.Sum256(msg)
		copy(cid.HashByte[:], sum[:])
	default:
		return coordcore.CID{}, coordcore.New(coordcore.KindInvalidOperation, "unknown hash algorithm")
	}
	return cid, nil
}

// NewBlock constructs a Block and computes its CID from the supplied
// fields. Codec defaults to CodecRaw and hash algorithm to HashAlgXXHash64
// when not overridden via options.
func NewBlock(data []byte, links []Link, ts time.Time, author coordcore.DID, opts ...BlockOption) (*Block, error) {
	o := blockOptions{codec: coordcore.CodecRaw, alg: coordcore.HashAlgXXHash64}
	for _, opt := range opts {
		opt(&o)
	}

	cid, err := ComputeCID(o.codec, o.alg, data, links, ts, author, o.signature, o.scope)
	if err != nil {
		return nil, err
	}
	return &Block{
		CID:       cid,
		Data:      data,
		Links:     links,
		Timestamp: ts,
		Author:    author,
		Signature: o.signature,
		Scope:     o.scope,
	}, nil
}

type blockOptions struct {
	codec     coordcore.Codec
	alg       coordcore.HashAlg
	signature coordcore.Signature
	scope     string
}

// BlockOption customizes NewBlock.
type BlockOption func(*blockOptions)

// WithCodec selects the payload codec.
func WithCodec(c coordcore.Codec) BlockOption { return func(o *blockOptions) { o.codec = c } }

// WithHashAlg selects the hash algorithm used to derive the CID.
func WithHashAlg(a coordcore.HashAlg) BlockOption { return func(o *blockOptions) { o.alg = a } }

// WithSignature attaches a detached signature over the canonical bytes.
func WithSignature(sig coordcore.Signature) BlockOption {
	return func(o *blockOptions) { o.signature = sig }
}

// WithScope tags the block with a federation scope.
func WithScope(scope string) BlockOption { return func(o *blockOptions) { o.scope = scope } }

// Verify recomputes the block's CID from its fields and compares it
// against the stored CID, failing closed on any mismatch.
func (b *Block) Verify() error {
	recomputed, err := ComputeCID(b.CID.Codec, b.CID.HashAlg, b.Data, b.Links, b.Timestamp, b.Author, b.Signature, b.Scope)
	if err != nil {
		return err
	}
	if recomputed != b.CID {
		return coordcore.New(coordcore.KindInvalidOperation, "block CID does not match its contents")
	}
	return nil
}

// Clone returns a deep copy, used when handing blocks out of a store; the
// store keeps ownership of its internal pointers.
func (b *Block) Clone() *Block {
	data := make([]byte, len(b.Data))
	copy(data, b.Data)
	links := make([]Link, len(b.Links))
	copy(links, b.Links)
	sig := make(coordcore.Signature, len(b.Signature))
	copy(sig, b.Signature)
	return &Block{
		CID:       b.CID,
		Data:      data,
		Links:     links,
		Timestamp: b.Timestamp,
		Author:    b.Author,
		Signature: sig,
		Scope:     b.Scope,
	}
}
