// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
)

// Receipt is the executor's signed attestation of a job's outcome.
type Receipt struct {
	JobID           coordcore.JobID     `json:"job_id"`
	ExecutorDID     coordcore.DID       `json:"executor_did"`
	ResultCID       coordcore.CID       `json:"result_cid"`
	CPUMS           uint64              `json:"cpu_ms"`
	Success         bool                `json:"success"`
	InputCIDs       []coordcore.CID     `json:"input_cids"`
	ManaUsed        uint64              `json:"mana_used"`
	Timestamp       int64               `json:"timestamp"`
	FederationScope string              `json:"federation_scope,omitempty"`
	Signature       coordcore.Signature `json:"signature,omitempty"`
}

// SignableBytes renders the fields an executor signs over.
func (r *Receipt) SignableBytes() []byte {
	buf := append([]byte{}, r.JobID.Bytes()...)
	buf = append(buf, []byte(r.ExecutorDID)...)
	buf = append(buf, r.ResultCID.Bytes()...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], r.CPUMS)
	buf = append(buf, b[:]...)
	if r.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// ReputationRecorder is the narrow slice of reputation.Store that receipt
// anchoring touches.
type ReputationRecorder interface {
	RecordExecution(did coordcore.DID, success bool, cpuMS uint64)
}

// AnchorReceipt verifies the receipt signature via resolver, encodes the
// receipt as a DAG block, and puts it in store. The reputation update runs
// only after the block is durably anchored: an anchoring failure must
// leave reputation untouched.
func AnchorReceipt(ctx context.Context, resolver coordcore.DIDResolver, store dag.Store, reputation ReputationRecorder, receipt *Receipt) (*dag.Block, error) {
	pub, err := resolver.Resolve(ctx, receipt.ExecutorDID)
	if err != nil {
		return nil, err
	}
	if len(receipt.Signature) == 0 || !ed25519.Verify(pub, receipt.SignableBytes(), receipt.Signature) {
		return nil, coordcore.New(coordcore.KindIdentityError, "mesh: receipt signature verification failed")
	}

	data, err := json.Marshal(receipt)
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindSerializationError, "mesh: marshal receipt", err)
	}

	block, err := dag.NewBlock(data, nil, time.Unix(receipt.Timestamp, 0).UTC(), receipt.ExecutorDID,
		dag.WithCodec(coordcore.CodecJSON), dag.WithSignature(receipt.Signature), dag.WithScope(receipt.FederationScope))
	if err != nil {
		return nil, err
	}

	if err := store.Put(block); err != nil {
		return nil, coordcore.Wrap(coordcore.KindDagOperationFailed, "mesh: anchor receipt", err)
	}

	reputation.RecordExecution(receipt.ExecutorDID, receipt.Success, receipt.CPUMS)
	return block, nil
}
