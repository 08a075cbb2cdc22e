// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import (
	"context"
	"sort"
	"time"

	"github.com/InterCooperative-Network/icn-coord/codec"
	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
	"github.com/InterCooperative-Network/icn-coord/netsvc"
)

// Serve subscribes to every sync topic and dispatches inbound envelopes
// until ctx is canceled. One goroutine per topic; each handler finishes
// before the next message on that topic is taken, so per-peer state updates
// for one topic are ordered.
func (m *Manager) Serve(ctx context.Context) {
	topics := []string{
		PayloadSyncStatusRequest,
		PayloadSyncStatusResponse,
		PayloadBlockRequest,
		PayloadBlockResponse,
		PayloadBlockAnnouncement,
		PayloadDeltaSyncRequest,
		PayloadDeltaSyncResponse,
		PayloadConflictReport,
		PayloadConflictResolution,
	}
	for _, topic := range topics {
		sub := m.net.Subscribe(topic)
		go func() {
			defer sub.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-sub.Messages():
					if !ok {
						return
					}
					m.dispatch(ctx, msg)
				}
			}
		}()
	}
}

func (m *Manager) dispatch(ctx context.Context, msg netsvc.Message) {
	var env Envelope
	if _, err := codec.Codec.Unmarshal(msg.Payload, &env); err != nil {
		m.log.Debug("federation: undecodable envelope", "from", msg.From, "err", err)
		return
	}
	if env.Version != codec.CurrentVersion {
		m.log.Debug("federation: envelope from unknown codec version", "from", msg.From, "version", env.Version)
		return
	}

	switch env.PayloadType {
	case PayloadSyncStatusRequest:
		m.handleStatusRequest(ctx, msg.From)
	case PayloadSyncStatusResponse:
		var resp SyncStatusResponse
		if DecodePayload(&env, &resp) == nil {
			m.handleStatusResponse(ctx, msg.From, &resp)
		}
	case PayloadBlockRequest:
		var req BlockRequest
		if DecodePayload(&env, &req) == nil {
			m.handleBlockRequest(ctx, msg.From, &req)
		}
	case PayloadBlockResponse:
		var resp BlockResponse
		if DecodePayload(&env, &resp) == nil {
			m.handleBlockResponse(msg.From, &resp)
		}
	case PayloadBlockAnnouncement:
		var ann BlockAnnouncement
		if DecodePayload(&env, &ann) == nil {
			m.handleAnnouncement(ctx, msg.From, &ann)
		}
	case PayloadDeltaSyncRequest:
		var req DeltaSyncRequest
		if DecodePayload(&env, &req) == nil {
			m.handleDeltaRequest(ctx, msg.From, &req)
		}
	case PayloadDeltaSyncResponse:
		var resp DeltaSyncResponse
		if DecodePayload(&env, &resp) == nil {
			m.handleDeltaResponse(msg.From, &resp)
		}
	case PayloadConflictReport:
		var rep ConflictReport
		if DecodePayload(&env, &rep) == nil {
			m.handleConflictReport(ctx, msg.From, &rep)
		}
	case PayloadConflictResolution:
		var res ConflictResolution
		if DecodePayload(&env, &res) == nil {
			m.log.Info("federation: conflict resolved", "conflict", res.ConflictID, "winner", res.Winner.String(), "supporters", len(res.SupportingNodes))
		}
	default:
		m.log.Debug("federation: ignoring unknown payload type", "from", msg.From, "type", env.PayloadType)
	}
}

func (m *Manager) send(ctx context.Context, peer coordcore.NodeID, payloadType string, payload any) error {
	env, err := EncodeEnvelope(payloadType, payload, coordcore.DID(m.self), time.Now().Unix())
	if err != nil {
		return err
	}
	buf, err := marshalEnvelope(env)
	if err != nil {
		return err
	}
	return m.net.Send(ctx, peer, payloadType, buf, coordcore.PriorityNormal)
}

// currentRoot computes the canonical root of the local DAG: among blocks
// nothing links to, the one with the longest main-parent chain, smallest
// CID bytes on ties.
func (m *Manager) currentRoot() (coordcore.CID, []*dag.Block, error) {
	blocks, err := m.store.ListBlocks()
	if err != nil {
		return coordcore.CID{}, nil, err
	}
	linked := make(map[coordcore.CID]bool, len(blocks))
	for _, b := range blocks {
		for _, l := range b.Links {
			linked[l.CID] = true
		}
	}
	var candidates []dag.CandidateRoot
	for _, b := range blocks {
		if linked[b.CID] {
			continue
		}
		chain, err := dag.ChainFrom(m.store, b.CID)
		if err != nil {
			return coordcore.CID{}, nil, err
		}
		candidates = append(candidates, dag.CandidateRoot{CID: b.CID, Height: uint64(len(chain))})
	}
	root, _ := dag.CanonicalRoot(candidates)
	return root, blocks, nil
}

func (m *Manager) handleStatusRequest(ctx context.Context, from coordcore.NodeID) {
	root, blocks, err := m.currentRoot()
	if err != nil {
		m.log.Error("federation: status request", "peer", from, "err", err)
		return
	}
	var lastUpdate int64
	available := make([]coordcore.CID, 0, len(blocks))
	for _, b := range blocks {
		if ts := b.Timestamp.Unix(); ts > lastUpdate {
			lastUpdate = ts
		}
		available = append(available, b.CID)
	}
	sort.Slice(available, func(i, j int) bool { return available[i].Less(available[j]) })
	if len(available) > m.cfg.MaxBlocksPerRequest {
		available = available[:m.cfg.MaxBlocksPerRequest]
	}
	resp := SyncStatusResponse{
		CurrentRoot:     root,
		BlockCount:      uint64(len(blocks)),
		LastUpdate:      lastUpdate,
		AvailableBlocks: available,
	}
	if err := m.send(ctx, from, PayloadSyncStatusResponse, resp); err != nil {
		m.log.Debug("federation: status response undeliverable", "peer", from, "err", err)
	}
}

func (m *Manager) handleStatusResponse(ctx context.Context, from coordcore.NodeID, resp *SyncStatusResponse) {
	p := m.peers.Upsert(from)

	var missing []coordcore.CID
	for _, cid := range resp.AvailableBlocks {
		have, err := m.store.Contains(cid)
		if err != nil {
			m.log.Error("federation: local store lookup", "err", err)
			return
		}
		if !have {
			missing = append(missing, cid)
		}
	}
	if len(missing) > m.cfg.MaxBlocksPerRequest {
		missing = missing[:m.cfg.MaxBlocksPerRequest]
	}

	m.peers.mu.Lock()
	root := resp.CurrentRoot
	p.LastKnownRoot = &root
	p.KnownBlocks.Add(resp.AvailableBlocks...)
	if len(missing) == 0 {
		p.Op = OpIdle
	} else {
		p.Op = OpRequestingBlocks
		p.RequestedBlocks.Add(missing...)
	}
	m.peers.mu.Unlock()

	if len(missing) == 0 {
		return
	}
	if err := m.send(ctx, from, PayloadBlockRequest, BlockRequest{CIDs: missing, Priority: coordcore.PriorityNormal}); err != nil {
		m.peers.RecordSyncFailure(from)
	}
}

func (m *Manager) handleBlockRequest(ctx context.Context, from coordcore.NodeID, req *BlockRequest) {
	cids := req.CIDs
	if len(cids) > m.cfg.MaxBlocksPerRequest {
		cids = cids[:m.cfg.MaxBlocksPerRequest]
	}
	resp := BlockResponse{}
	for _, cid := range cids {
		b, ok, err := m.store.Get(cid)
		if err != nil {
			m.log.Error("federation: block lookup", "cid", cid.String(), "err", err)
			continue
		}
		if ok {
			resp.Blocks = append(resp.Blocks, b)
		} else {
			resp.Missing = append(resp.Missing, cid)
		}
	}
	if err := m.send(ctx, from, PayloadBlockResponse, resp); err != nil {
		m.log.Debug("federation: block response undeliverable", "peer", from, "err", err)
	}
}

func (m *Manager) handleBlockResponse(from coordcore.NodeID, resp *BlockResponse) {
	stored := 0
	for _, b := range resp.Blocks {
		if err := m.store.Put(b); err != nil {
			m.log.Warn("federation: rejected peer block", "peer", from, "cid", b.CID.String(), "err", err)
			continue
		}
		stored++
	}

	p := m.peers.Upsert(from)
	m.peers.mu.Lock()
	for _, b := range resp.Blocks {
		p.RequestedBlocks.Remove(b.CID)
	}
	p.RequestedBlocks.Remove(resp.Missing...)
	if p.RequestedBlocks.Len() == 0 {
		p.Op = OpIdle
	}
	m.peers.mu.Unlock()

	if stored > 0 {
		m.peers.RecordSyncSuccess(from)
	}
}

func (m *Manager) handleAnnouncement(ctx context.Context, from coordcore.NodeID, ann *BlockAnnouncement) {
	p := m.peers.Upsert(from)
	m.peers.mu.Lock()
	p.KnownBlocks.Add(ann.NewBlocks...)
	m.peers.mu.Unlock()

	var missing []coordcore.CID
	for _, cid := range ann.NewBlocks {
		have, err := m.store.Contains(cid)
		if err != nil {
			return
		}
		if !have {
			missing = append(missing, cid)
		}
	}
	if len(missing) == 0 {
		return
	}
	m.peers.mu.Lock()
	p.Op = OpRequestingBlocks
	p.RequestedBlocks.Add(missing...)
	m.peers.mu.Unlock()
	if err := m.send(ctx, from, PayloadBlockRequest, BlockRequest{CIDs: missing, Priority: ann.Priority}); err != nil {
		m.peers.RecordSyncFailure(from)
	}
}

func (m *Manager) handleDeltaRequest(ctx context.Context, from coordcore.NodeID, req *DeltaSyncRequest) {
	root, blocks, err := m.currentRoot()
	if err != nil {
		m.log.Error("federation: delta request", "peer", from, "err", err)
		return
	}

	var since int64
	if req.SinceTimestamp != nil {
		since = *req.SinceTimestamp
	}
	var matched []*dag.Block
	for _, b := range blocks {
		if b.Timestamp.Unix() > since {
			matched = append(matched, b)
		}
	}
	// Oldest first so the requester can apply parents before children.
	sort.Slice(matched, func(i, j int) bool { return matched[i].Timestamp.Before(matched[j].Timestamp) })

	limit := int(req.MaxBlocks)
	if limit <= 0 || limit > m.cfg.MaxBlocksPerRequest {
		limit = m.cfg.MaxBlocksPerRequest
	}
	more := len(matched) > limit
	if more {
		matched = matched[:limit]
	}
	resp := DeltaSyncResponse{Blocks: matched, NewRoot: root, MoreAvailable: more}
	if err := m.send(ctx, from, PayloadDeltaSyncResponse, resp); err != nil {
		m.log.Debug("federation: delta response undeliverable", "peer", from, "err", err)
	}
}

func (m *Manager) handleDeltaResponse(from coordcore.NodeID, resp *DeltaSyncResponse) {
	for _, b := range resp.Blocks {
		if err := m.store.Put(b); err != nil {
			m.log.Warn("federation: rejected delta block", "peer", from, "cid", b.CID.String(), "err", err)
		}
	}
	p := m.peers.Upsert(from)
	m.peers.mu.Lock()
	root := resp.NewRoot
	p.LastKnownRoot = &root
	if !resp.MoreAvailable {
		p.Op = OpIdle
	}
	m.peers.mu.Unlock()
	m.peers.RecordSyncSuccess(from)
}

// handleConflictReport votes for a winner among the reported blocks using
// the same rule canonical-root selection uses: longest main-parent chain,
// smallest CID bytes on ties. Blocks we do not hold locally get height 0,
// so a node only ever supports history it can verify.
func (m *Manager) handleConflictReport(ctx context.Context, from coordcore.NodeID, rep *ConflictReport) {
	p := m.peers.Upsert(from)
	m.peers.mu.Lock()
	p.Op = OpResolvingConflicts
	m.peers.mu.Unlock()

	candidates := make([]dag.CandidateRoot, 0, len(rep.Blocks))
	for _, cid := range rep.Blocks {
		chain, err := dag.ChainFrom(m.store, cid)
		if err != nil {
			m.log.Error("federation: conflict scan", "err", err)
			return
		}
		candidates = append(candidates, dag.CandidateRoot{CID: cid, Height: uint64(len(chain))})
	}
	winner, ok := dag.CanonicalRoot(candidates)
	if !ok {
		return
	}
	res := ConflictResolution{
		ConflictID:      rep.ConflictID,
		Winner:          winner,
		SupportingNodes: []coordcore.NodeID{m.self},
	}
	err := m.send(ctx, from, PayloadConflictResolution, res)
	m.peers.mu.Lock()
	p.Op = OpIdle
	m.peers.mu.Unlock()
	if err != nil {
		m.log.Debug("federation: conflict resolution undeliverable", "peer", from, "err", err)
	}
}
