// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package federation

import (
	"context"
	"sync"
	"time"

	"github.com/InterCooperative-Network/icn-coord/codec"
	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/dag"
	"github.com/InterCooperative-Network/icn-coord/log"
	"github.com/InterCooperative-Network/icn-coord/netsvc"
)

// Config tunes the sync loop's backpressure and trust gating.
type Config struct {
	PeerTimeout        time.Duration
	MaxPeers           int
	SyncBatchSize      int
	ParallelSyncs      int
	TrustDecayRate     time.Duration
	MinTrustThreshold  float64
	CheckpointInterval time.Duration
	MaxBlocksPerRequest int
	MaxConcurrentSyncs  int
}

// DefaultConfig returns production defaults: 100-block request batches and
// at most 5 concurrent peer syncs.
func DefaultConfig() Config {
	return Config{
		PeerTimeout:         30 * time.Second,
		MaxPeers:            50,
		SyncBatchSize:       100,
		ParallelSyncs:       5,
		TrustDecayRate:      time.Hour,
		MinTrustThreshold:   0.2,
		CheckpointInterval:  5 * time.Minute,
		MaxBlocksPerRequest: 100,
		MaxConcurrentSyncs:  5,
	}
}

// Manager runs the background sync loop against the node's federation and
// mediates between PeerStore, a dag.Store, and a netsvc.NetworkService.
type Manager struct {
	self    coordcore.NodeID
	cfg     Config
	peers   *PeerStore
	store   dag.Store
	net     netsvc.NetworkService
	log     log.Logger
	source  PeerSource
	analyzer PartitionAnalyzer

	mu        sync.Mutex
	semaphore chan struct{}
	cancel    context.CancelFunc
}

// NewManager wires a federation Manager for node self.
func NewManager(self coordcore.NodeID, cfg Config, peers *PeerStore, store dag.Store, net netsvc.NetworkService, logger log.Logger, source PeerSource, analyzer PartitionAnalyzer) *Manager {
	return &Manager{
		self:      self,
		cfg:       cfg,
		peers:     peers,
		store:     store,
		net:       net,
		log:       logger,
		source:    source,
		analyzer:  analyzer,
		semaphore: make(chan struct{}, maxInt(cfg.MaxConcurrentSyncs, 1)),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func marshalEnvelope(e *Envelope) ([]byte, error) {
	buf, err := codec.Codec.Marshal(codec.CurrentVersion, e)
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindSerializationError, "federation: marshal envelope", err)
	}
	return buf, nil
}

// Start launches the inbound message handlers and the background sync
// loop, polling every interval until ctx is canceled or Stop is called.
func (m *Manager) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	m.Serve(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.runSyncPass(ctx)
			}
		}
	}()

	for _, p := range m.source.BootstrapPeers() {
		m.peers.Upsert(p)
	}
}

// Stop cancels the background loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
}

// runSyncPass contacts every reachable, sufficiently trusted peer, at most
// MaxConcurrentSyncs at a time; ParallelSyncs is not consulted.
func (m *Manager) runSyncPass(ctx context.Context) {
	m.peers.DecayTrust(m.cfg.TrustDecayRate)

	var wg sync.WaitGroup
	for _, p := range m.peers.Reachable() {
		if !m.peers.ShouldContact(p.PeerID, m.cfg.MinTrustThreshold) {
			continue
		}
		p := p
		wg.Add(1)
		m.semaphore <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-m.semaphore }()
			m.syncWithPeer(ctx, p.PeerID)
		}()
	}
	wg.Wait()

	if m.analyzer != nil && PartitionDetected(len(m.peers.Reachable()), len(m.peers.All())) {
		m.log.Warn("federation sync: partition suspected", "reachable", len(m.peers.Reachable()), "known", len(m.peers.All()))
	}
}

// syncWithPeer opens one sync round: it sends a status request and leaves
// the rest of the exchange (status response, block requests, delta sync)
// to the inbound handlers. Transport failures mark the peer unreachable
// after repeated attempts and decrement its trust score.
func (m *Manager) syncWithPeer(ctx context.Context, peer coordcore.NodeID) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.PeerTimeout)
	defer cancel()

	p := m.peers.Upsert(peer)
	m.peers.mu.Lock()
	p.Op = OpRequestingStatus
	m.peers.mu.Unlock()

	if err := m.send(ctx, peer, PayloadSyncStatusRequest, SyncStatusRequest{}); err != nil {
		m.peers.RecordSyncFailure(peer)
		m.peers.mu.Lock()
		p.Op = OpFailed
		if p.FailedAttempts > 3 {
			p.Status = StatusUnreachable
		}
		m.peers.mu.Unlock()
		m.log.Debug("federation sync: peer unreachable", "peer", peer, "err", err)
		return
	}
	m.peers.RecordSyncSuccess(peer)
}
