// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package mesh

import (
	"context"
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
	"github.com/InterCooperative-Network/icn-coord/ledger"
	"github.com/InterCooperative-Network/icn-coord/log"
)

// Config tunes the bidding window, timeouts, and selection weights for a
// Manager.
type Config struct {
	BiddingWindowMS    uint64
	BiddingQuorum      int
	MaxExecutionWaitMS uint64
	ManaReserve        uint64
	Weights            SelectionWeights
	MaxConcurrentExecs int
}

// DefaultConfig returns the production pipeline defaults.
func DefaultConfig() Config {
	return Config{
		BiddingWindowMS:    2000,
		BiddingQuorum:      3,
		MaxExecutionWaitMS: 30000,
		ManaReserve:        5,
		Weights:            DefaultSelectionWeights(),
		MaxConcurrentExecs: 8,
	}
}

// Manager orchestrates the full job lifecycle: submit, bid, select,
// execute, anchor, settle. It depends only on the narrow trait surfaces
// (ledger.ManaLedger, dag.Store, ReputationRecorder+ReputationSource,
// coordcore.DIDResolver, Sandbox), never on another component's concrete
// type.
type Manager struct {
	cfg        Config
	mana       ledger.ManaLedger
	store      dag.Store
	reputation interface {
		ReputationRecorder
		ReputationSource
	}
	resolver coordcore.DIDResolver
	signer   ReceiptSigner
	sandbox  Sandbox
	log      log.Logger

	mu      sync.Mutex
	jobs    map[coordcore.JobID]*Job
	windows map[coordcore.JobID]*BiddingWindow
	sem     chan struct{}
}

// NewManager wires a mesh Manager.
func NewManager(cfg Config, mana ledger.ManaLedger, store dag.Store, reputation interface {
	ReputationRecorder
	ReputationSource
}, resolver coordcore.DIDResolver, signer ReceiptSigner, sandbox Sandbox, logger log.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		mana:       mana,
		store:      store,
		reputation: reputation,
		resolver:   resolver,
		signer:     signer,
		sandbox:    sandbox,
		log:        logger,
		jobs:       make(map[coordcore.JobID]*Job),
		windows:    make(map[coordcore.JobID]*BiddingWindow),
		sem:        make(chan struct{}, maxInt(cfg.MaxConcurrentExecs, 1)),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Submit charges the job's cost from the submitter, durably enqueues the
// job by anchoring its manifest, and opens a bidding window.
func (m *Manager) Submit(ctx context.Context, raw []byte) (*Job, error) {
	job, err := ParseJob(raw)
	if err != nil {
		return nil, err
	}

	if err := m.mana.Spend(job.CreatorDID, job.CostMana); err != nil {
		return nil, coordcore.Wrap(coordcore.KindInsufficientFunds, "mesh: submit job", err)
	}

	manifest, err := dag.NewBlock(raw, nil, time.Now(), job.CreatorDID, dag.WithCodec(coordcore.CodecJSON))
	if err != nil {
		_ = m.mana.Credit(job.CreatorDID, job.CostMana)
		return nil, err
	}
	if err := m.store.Put(manifest); err != nil {
		_ = m.mana.Credit(job.CreatorDID, job.CostMana)
		return nil, coordcore.Wrap(coordcore.KindDagOperationFailed, "mesh: anchor job manifest", err)
	}
	job.ID = manifest.CID
	job.ManifestCID = manifest.CID
	job.State = StateBidding

	m.mu.Lock()
	m.jobs[job.ID] = job
	window := NewBiddingWindow(job.ID, m.cfg.BiddingWindowMS, m.cfg.BiddingQuorum)
	m.windows[job.ID] = window
	m.mu.Unlock()

	m.log.Info("mesh: job submitted", "job", job.ID, "creator", job.CreatorDID, "cost_mana", job.CostMana)
	return job, nil
}

// SubmitBid forwards bid into the job's open bidding window after checking
// the executor holds the configured mana reserve.
func (m *Manager) SubmitBid(bid *Bid) error {
	if m.mana.GetBalance(bid.ExecutorDID) < m.cfg.ManaReserve {
		return coordcore.New(coordcore.KindPolicyDenied, "mesh: executor below mana reserve")
	}
	m.mu.Lock()
	window, ok := m.windows[bid.JobID]
	m.mu.Unlock()
	if !ok {
		return coordcore.New(coordcore.KindInvalidOperation, "mesh: unknown job or window closed")
	}
	return window.Submit(bid)
}

// RunToCompletion waits for the bidding window, selects an executor,
// executes the job in the sandbox, anchors the receipt, and settles mana.
// On timeout (no valid bid, or no anchored receipt within
// MaxExecutionWaitMS) the job is marked TimedOut and its cost is credited
// back to the submitter.
func (m *Manager) RunToCompletion(ctx context.Context, jobID coordcore.JobID) (*Receipt, error) {
	m.mu.Lock()
	job := m.jobs[jobID]
	window := m.windows[jobID]
	m.mu.Unlock()
	if job == nil || window == nil {
		return nil, coordcore.New(coordcore.KindInvalidOperation, "mesh: unknown job")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.MaxExecutionWaitMS)*time.Millisecond)
	defer cancel()

	var bids []*Bid
	select {
	case <-window.Done():
		bids = window.Wait()
	case <-ctx.Done():
		return nil, m.timeoutRefund(job)
	}

	remaining := append([]*Bid(nil), bids...)
	for len(remaining) > 0 {
		selected, err := SelectExecutor(remaining, m.cfg.Weights, m.reputation, m.mana, m.cfg.ManaReserve, job.Spec.RequiredResources)
		if err != nil {
			return nil, m.timeoutRefund(job)
		}
		if m.mana.GetBalance(selected.ExecutorDID) < selected.PriceMana {
			remaining = dropBid(remaining, selected)
			continue
		}

		m.setState(job, StateSelected)
		receipt, err := m.executeAndAnchor(ctx, job, selected)
		if err != nil {
			if coordcore.KindOf(err) == coordcore.KindTimeout {
				return nil, m.timeoutRefund(job)
			}
			remaining = dropBid(remaining, selected)
			continue
		}
		m.setState(job, StateSettled)
		return receipt, nil
	}
	return nil, m.timeoutRefund(job)
}

func dropBid(bids []*Bid, target *Bid) []*Bid {
	out := make([]*Bid, 0, len(bids))
	for _, b := range bids {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

func (m *Manager) setState(job *Job, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.State = s
}

func (m *Manager) timeoutRefund(job *Job) error {
	_ = m.mana.Credit(job.CreatorDID, job.CostMana)
	m.setState(job, StateTimedOut)
	return coordcore.New(coordcore.KindTimeout, "mesh: job timed out waiting for a valid bid or receipt")
}

// executeAndAnchor runs the sandbox, signs the receipt as the executor,
// anchors it, then settles mana between submitter and executor.
func (m *Manager) executeAndAnchor(ctx context.Context, job *Job, bid *Bid) (*Receipt, error) {
	m.sem <- struct{}{}
	defer func() { <-m.sem }()

	m.setState(job, StateExecuting)
	limits := LimitsFor(bid.Resources, time.Duration(m.cfg.MaxExecutionWaitMS)*time.Millisecond)
	result, err := m.sandbox.Run(ctx, job.Spec.Kind, Input{Data: job.Spec.Args}, limits, DefaultSecurityProfile())
	if err != nil {
		return nil, err
	}

	resultCID, err := hashArtifact(result.Stdout)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{
		JobID:       job.ID,
		ExecutorDID: bid.ExecutorDID,
		ResultCID:   resultCID,
		CPUMS:       result.ResourceUsage.CPUMS,
		Success:     result.ExitCode == 0 && !result.TimedOut,
		ManaUsed:    bid.PriceMana,
		Timestamp:   time.Now().Unix(),
	}

	sig, err := m.signer.SignReceipt(receipt)
	if err != nil {
		return nil, err
	}
	receipt.Signature = sig

	if _, err := AnchorReceipt(ctx, m.resolver, m.store, m.reputation, receipt); err != nil {
		return nil, err
	}
	m.setState(job, StateReceipted)

	if err := m.settle(job, bid, receipt.Success); err != nil {
		return nil, err
	}
	return receipt, nil
}

// settle spends the executor's bid price from the submitter's already-
// debited escrow and refunds the unused remainder, or refunds the
// submitter in full on permanent failure.
func (m *Manager) settle(job *Job, bid *Bid, success bool) error {
	if !success {
		return m.mana.Credit(job.CreatorDID, job.CostMana)
	}
	if err := m.mana.Credit(bid.ExecutorDID, bid.PriceMana); err != nil {
		return coordcore.Wrap(coordcore.KindInternal, "mesh: settle executor payment", err)
	}
	if job.CostMana > bid.PriceMana {
		return m.mana.Credit(job.CreatorDID, job.CostMana-bid.PriceMana)
	}
	return nil
}

// hashArtifact is a small helper turning sandbox output bytes into a
// content identifier, the same derivation dag.ComputeCID uses for an
// ordinary raw-codec block with no links.
func hashArtifact(data []byte) (coordcore.CID, error) {
	return dag.ComputeCID(coordcore.CodecRaw, coordcore.HashAlgXXHash64, data, nil, time.Unix(0, 0), "", nil, "")
}
