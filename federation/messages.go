// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import (
	"encoding/json"

	"github.com/InterCooperative-Network/icn-coord/codec"
	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
)

// Envelope wraps every wire-level sync message with its routing and
// authentication metadata.
// Version is the codec.CodecVersion the envelope (and everything nested
// inside Payload) was serialized with.
type Envelope struct {
	Version      codec.CodecVersion  `json:"version"`
	PayloadType  string              `json:"payload_type"`
	Payload      json.RawMessage     `json:"payload"`
	SenderDID    coordcore.DID       `json:"sender_did"`
	RecipientDID *coordcore.DID      `json:"recipient_did,omitempty"`
	Timestamp    int64               `json:"timestamp"`
	Signature    coordcore.Signature `json:"signature,omitempty"`
}

// SignableBytes renders the fields an Envelope's signature covers.
func (e *Envelope) SignableBytes() []byte {
	buf := make([]byte, 0, len(e.Payload)+64)
	buf = append(buf, []byte(e.PayloadType)...)
	buf = append(buf, e.Payload...)
	buf = append(buf, []byte(e.SenderDID)...)
	if e.RecipientDID != nil {
		buf = append(buf, []byte(*e.RecipientDID)...)
	}
	return buf
}

// EncodeEnvelope marshals payload into an Envelope of the named type at the
// current codec version, ready to hand to a netsvc.NetworkService.
func EncodeEnvelope(payloadType string, payload any, sender coordcore.DID, ts int64) (*Envelope, error) {
	raw, err := codec.Codec.Marshal(codec.CurrentVersion, payload)
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindSerializationError, "federation: encode "+payloadType, err)
	}
	return &Envelope{
		Version:     codec.CurrentVersion,
		PayloadType: payloadType,
		Payload:     raw,
		SenderDID:   sender,
		Timestamp:   ts,
	}, nil
}

// DecodePayload unmarshals e.Payload into out, rejecting an envelope
// serialized with a codec version this build does not understand.
func DecodePayload(e *Envelope, out any) error {
	if e.Version != codec.CurrentVersion {
		return coordcore.New(coordcore.KindDeserializationErr, "federation: unsupported codec version for "+e.PayloadType)
	}
	if _, err := codec.Codec.Unmarshal(e.Payload, out); err != nil {
		return coordcore.Wrap(coordcore.KindDeserializationErr, "federation: decode "+e.PayloadType, err)
	}
	return nil
}

// Payload type tags, one per message variant. Unknown tags are ignored
// with a debug log.
const (
	PayloadSyncStatusRequest  = "sync_status_request"
	PayloadSyncStatusResponse = "sync_status_response"
	PayloadBlockRequest       = "block_request"
	PayloadBlockResponse      = "block_response"
	PayloadBlockAnnouncement  = "block_announcement"
	PayloadDeltaSyncRequest   = "delta_sync_request"
	PayloadDeltaSyncResponse  = "delta_sync_response"
	PayloadConflictReport     = "conflict_report"
	PayloadConflictResolution = "conflict_resolution"
)

// SyncStatusRequest asks a peer for its current sync status.
type SyncStatusRequest struct{}

// SyncStatusResponse answers a SyncStatusRequest.
type SyncStatusResponse struct {
	CurrentRoot      coordcore.CID `json:"current_root"`
	BlockCount       uint64        `json:"block_count"`
	LastUpdate       int64         `json:"last_update"`
	AvailableBlocks  []coordcore.CID `json:"available_blocks"`
}

// BlockRequest asks for specific blocks by CID.
type BlockRequest struct {
	CIDs     []coordcore.CID    `json:"cids"`
	Priority coordcore.Priority `json:"priority"`
}

// BlockResponse answers a BlockRequest; Missing lists CIDs the responder
// did not have.
type BlockResponse struct {
	Blocks  []*dag.Block    `json:"blocks"`
	Missing []coordcore.CID `json:"missing"`
}

// BlockAnnouncement proactively tells a peer about newly created blocks.
type BlockAnnouncement struct {
	NewBlocks []coordcore.CID    `json:"new_blocks"`
	Priority  coordcore.Priority `json:"priority"`
}

// DeltaSyncRequest asks for everything since a checkpoint or timestamp.
type DeltaSyncRequest struct {
	SinceRoot      *coordcore.CID `json:"since_root,omitempty"`
	SinceTimestamp *int64         `json:"since_timestamp,omitempty"`
	MaxBlocks      uint32         `json:"max_blocks"`
}

// DeltaSyncResponse answers a DeltaSyncRequest.
type DeltaSyncResponse struct {
	Blocks        []*dag.Block  `json:"blocks"`
	NewRoot       coordcore.CID `json:"new_root"`
	MoreAvailable bool          `json:"more_available"`
}

// ConflictReport flags blocks a peer believes conflict, with supporting
// evidence.
type ConflictReport struct {
	ConflictID string          `json:"conflict_id"`
	Blocks     []coordcore.CID `json:"blocks"`
	Evidence   string          `json:"evidence"`
}

// ConflictResolution announces the winner of a previously reported
// conflict and which nodes support it.
type ConflictResolution struct {
	ConflictID      string          `json:"conflict_id"`
	Winner          coordcore.CID   `json:"winner"`
	SupportingNodes []coordcore.NodeID `json:"supporting_nodes"`
}
