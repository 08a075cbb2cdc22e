// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mesh implements the job pipeline: submission, bidding,
// reputation-weighted executor selection, sandboxed execution, and receipt
// anchoring with mana accounting.
package mesh

import (
	"encoding/json"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Kind names the executable shape of a job.
type Kind string

const (
	KindEcho    Kind = "echo"
	KindCclWasm Kind = "ccl_wasm"
)

// RequiredResources describes the resource footprint a job declares at
// submission and a bid must satisfy.
type RequiredResources struct {
	CPUCores  uint32 `json:"cpu_cores"`
	MemoryMB  uint64 `json:"memory_mb"`
	StorageMB uint64 `json:"storage_mb"`
}

// Spec is the job's executable description.
type Spec struct {
	Kind              Kind              `json:"kind"`
	RequiredResources RequiredResources `json:"required_resources"`
	// Args carries kind-specific input, e.g. the echo payload or the
	// arguments passed to a CclWasm entry point.
	Args json.RawMessage `json:"args,omitempty"`
}

// State is a job's position in its lifecycle.
type State string

const (
	StateQueued    State = "queued"
	StateBidding   State = "bidding"
	StateSelected  State = "selected"
	StateExecuting State = "executing"
	StateReceipted State = "receipted"
	StateSettled   State = "settled"
	StateTimedOut  State = "timed_out"
	StateRefunded  State = "refunded"
	StateFailed    State = "failed"
)

// Job is a submitted unit of mesh work.
type Job struct {
	ID          coordcore.JobID     `json:"id"`
	ManifestCID coordcore.CID       `json:"manifest_cid"`
	Spec        Spec                `json:"spec"`
	CreatorDID  coordcore.DID       `json:"creator_did"`
	CostMana    uint64              `json:"cost_mana"`
	MaxWaitMS   *uint64             `json:"max_wait_ms,omitempty"`
	Signature   coordcore.Signature `json:"signature,omitempty"`

	State State `json:"state"`
}

// SignableBytes renders the fields a submitter signs over.
func (j *Job) SignableBytes() []byte {
	buf := append([]byte{}, j.ManifestCID.Bytes()...)
	buf = append(buf, []byte(j.Spec.Kind)...)
	buf = append(buf, []byte(j.CreatorDID)...)
	return buf
}

// ParseJob decodes a submitted job manifest from JSON.
func ParseJob(raw []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, coordcore.Wrap(coordcore.KindDeserializationErr, "mesh: parse job", err)
	}
	if j.Spec.Kind == "" {
		return nil, coordcore.New(coordcore.KindInvalidOperation, "mesh: job spec missing kind")
	}
	j.State = StateQueued
	return &j, nil
}
