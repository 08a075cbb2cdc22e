// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package coordinator wires every other component behind the narrow
// interfaces they expose, owning none of them. It provides priority-aware
// DAG operations that announce or fetch blocks over the network, aggregate
// component health, and track per-peer performance telemetry for adaptive
// selection.
package coordinator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
	"github.com/InterCooperative-Network/icn-coord/log"
	"github.com/InterCooperative-Network/icn-coord/netsvc"
)

// Topic tags used for the coordinator's own DAG-retrieval protocol,
// distinct from federation sync's topic namespace.
const (
	TopicBlockAnnounce = "coordinator.block.announce"
	TopicBlockRequest  = "coordinator.block.request"
	TopicBlockResponse = "coordinator.block.response"
)

// blockRequestMsg/blockResponseMsg are the wire payloads for an ad hoc
// single-block fetch, distinct from federation sync's batched
// BlockRequest/BlockResponse.
type blockRequestMsg struct {
	CID coordcore.CID `json:"cid"`
}

type blockResponseMsg struct {
	Block *dag.Block `json:"block"`
}

// Coordinator is the cross-component coordinator. It depends only on
// dag.Store and netsvc.NetworkService trait handles; callers
// construct it once per node and pass it by reference, never by value.
type Coordinator struct {
	self  coordcore.NodeID
	store dag.Store
	net   netsvc.NetworkService
	log   log.Logger

	mu      sync.Mutex
	waiters map[coordcore.CID][]chan *dag.Block

	health    *HealthMonitor
	telemetry *Telemetry
}

// New wires a Coordinator around store and net. It subscribes to no topic;
// call ListenForBlocks so incoming fetches can satisfy outstanding waiters.
func New(self coordcore.NodeID, store dag.Store, net netsvc.NetworkService, logger log.Logger) *Coordinator {
	c := &Coordinator{
		self:      self,
		store:     store,
		net:       net,
		log:       logger,
		waiters:   make(map[coordcore.CID][]chan *dag.Block),
		health:    NewHealthMonitor(),
		telemetry: NewTelemetry(),
	}
	return c
}

// Health returns the coordinator's health monitor.
func (c *Coordinator) Health() *HealthMonitor { return c.health }

// Telemetry returns the coordinator's performance telemetry tracker.
func (c *Coordinator) Telemetry() *Telemetry { return c.telemetry }

// ListenForBlocks subscribes to the coordinator's announce, request, and
// response topics and services them until ctx is canceled. Requests are
// answered from the local store; announced and fetched blocks are stored
// locally and satisfy any registered waiters.
func (c *Coordinator) ListenForBlocks(ctx context.Context) {
	requests := c.net.Subscribe(TopicBlockRequest)
	responses := c.net.Subscribe(TopicBlockResponse)
	announces := c.net.Subscribe(TopicBlockAnnounce)

	go func() {
		defer requests.Close()
		defer responses.Close()
		defer announces.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-requests.Messages():
				if !ok {
					return
				}
				c.handleBlockRequest(ctx, msg)
			case msg, ok := <-responses.Messages():
				if !ok {
					return
				}
				c.handleBlockResponse(msg)
			case msg, ok := <-announces.Messages():
				if !ok {
					return
				}
				c.handleBlockResponse(msg)
			}
		}
	}()
}

func (c *Coordinator) handleBlockRequest(ctx context.Context, msg netsvc.Message) {
	var req blockRequestMsg
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.log.Debug("coordinator: ignoring malformed block request", "err", err)
		return
	}
	block, ok, err := c.store.Get(req.CID)
	if err != nil || !ok {
		return
	}
	resp, err := json.Marshal(blockResponseMsg{Block: block})
	if err != nil {
		return
	}
	_ = c.net.Send(ctx, msg.From, TopicBlockResponse, resp, coordcore.PriorityNormal)
}

func (c *Coordinator) handleBlockResponse(msg netsvc.Message) {
	var resp blockResponseMsg
	if err := json.Unmarshal(msg.Payload, &resp); err != nil || resp.Block == nil {
		return
	}
	if err := c.store.Put(resp.Block); err != nil {
		c.log.Debug("coordinator: rejecting fetched block", "cid", resp.Block.CID, "err", err)
		return
	}

	c.mu.Lock()
	waiters := c.waiters[resp.Block.CID]
	delete(c.waiters, resp.Block.CID)
	c.mu.Unlock()
	for _, ch := range waiters {
		ch <- resp.Block
		close(ch)
	}
}

// Store writes data locally as a new DAG block, then announces it over the
// network with priority controlling propagation urgency only; priority
// never affects storage durability.
func (c *Coordinator) Store(ctx context.Context, data []byte, author coordcore.DID, priority coordcore.Priority) (coordcore.CID, error) {
	start := time.Now()
	block, err := dag.NewBlock(data, nil, time.Now(), author, dag.WithCodec(coordcore.CodecRaw))
	if err != nil {
		c.telemetry.Record("store", time.Since(start), false)
		return coordcore.CID{}, err
	}
	if err := c.store.Put(block); err != nil {
		c.telemetry.Record("store", time.Since(start), false)
		return coordcore.CID{}, coordcore.Wrap(coordcore.KindDagOperationFailed, "coordinator: store block", err)
	}

	announce, _ := json.Marshal(blockResponseMsg{Block: block})
	if err := c.net.Broadcast(ctx, TopicBlockAnnounce, announce, priority); err != nil {
		c.log.Debug("coordinator: announce failed", "cid", block.CID, "err", err)
	}
	c.telemetry.Record("store", time.Since(start), true)
	return block.CID, nil
}

// Retrieve checks the local store first; on a miss it broadcasts a
// request, registers a single-shot waiter keyed by cid, and blocks until a
// response arrives or timeout elapses. On timeout the waiter is cleaned up
// and a Timeout-kind error wrapping coordcore.ErrNotFound is returned.
func (c *Coordinator) Retrieve(ctx context.Context, cid coordcore.CID, timeout time.Duration) (*dag.Block, error) {
	start := time.Now()
	if block, ok, err := c.store.Get(cid); err == nil && ok {
		c.telemetry.Record("retrieve", time.Since(start), true)
		return block, nil
	}

	ch := make(chan *dag.Block, 1)
	c.mu.Lock()
	c.waiters[cid] = append(c.waiters[cid], ch)
	c.mu.Unlock()

	req, _ := json.Marshal(blockRequestMsg{CID: cid})
	if err := c.net.Broadcast(ctx, TopicBlockRequest, req, coordcore.PriorityNormal); err != nil {
		c.cleanupWaiter(cid, ch)
		c.telemetry.Record("retrieve", time.Since(start), false)
		return nil, coordcore.Wrap(coordcore.KindNetworkError, "coordinator: broadcast retrieve request", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case block := <-ch:
		c.telemetry.Record("retrieve", time.Since(start), true)
		return block, nil
	case <-timer.C:
		c.cleanupWaiter(cid, ch)
		c.telemetry.Record("retrieve", time.Since(start), false)
		return nil, coordcore.Wrap(coordcore.KindTimeout, "coordinator: retrieve timed out waiting for "+cid.String(), coordcore.ErrNotFound)
	case <-ctx.Done():
		c.cleanupWaiter(cid, ch)
		c.telemetry.Record("retrieve", time.Since(start), false)
		return nil, coordcore.Wrap(coordcore.KindTimeout, "coordinator: retrieve canceled", ctx.Err())
	}
}

func (c *Coordinator) cleanupWaiter(cid coordcore.CID, target chan *dag.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	waiters := c.waiters[cid]
	out := waiters[:0]
	for _, ch := range waiters {
		if ch != target {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		delete(c.waiters, cid)
	} else {
		c.waiters[cid] = out
	}
}
