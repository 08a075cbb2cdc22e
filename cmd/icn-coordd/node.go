// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/InterCooperative-Network/icn-coord/adversarial"
	"github.com/InterCooperative-Network/icn-coord/config"
	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/coordinator"
	"github.com/InterCooperative-Network/icn-coord/dag"
	"github.com/InterCooperative-Network/icn-coord/dag/pebblestore"
	"github.com/InterCooperative-Network/icn-coord/federation"
	"github.com/InterCooperative-Network/icn-coord/ledger"
	"github.com/InterCooperative-Network/icn-coord/ledger/pebbleledger"
	"github.com/InterCooperative-Network/icn-coord/log"
	"github.com/InterCooperative-Network/icn-coord/mesh"
	"github.com/InterCooperative-Network/icn-coord/metrics"
	"github.com/InterCooperative-Network/icn-coord/netsvc"
	"github.com/InterCooperative-Network/icn-coord/reputation"
	"github.com/InterCooperative-Network/icn-coord/trust"
)

// node bundles every component a single icn-coordd process runs. It owns
// all of them and hands narrow interfaces around; no component owns
// another.
type node struct {
	cfg   config.Config
	log   log.Logger
	store dag.Store
	mana  ledger.ManaLedger
	rep   *reputation.Store
	trust *trust.Engine
	net   netsvc.NetworkService

	federation  *federation.Manager
	mesh        *mesh.Manager
	resilient   *adversarial.ResilientLedger
	coordinator *coordinator.Coordinator
	health      *coordinator.HealthMonitor
	telemetry   *coordinator.Telemetry
}

// localPartitionAnalyzer derives this node's PartitionCheckpoint from its
// own dag.Store, the contract federation.PartitionAnalyzer leaves open for
// integrators to define.
type localPartitionAnalyzer struct {
	store dag.Store
}

func (a localPartitionAnalyzer) AnalyzeOurPartition() (federation.PartitionCheckpoint, error) {
	blocks, err := a.store.ListBlocks()
	if err != nil {
		return federation.PartitionCheckpoint{}, err
	}
	return federation.PartitionCheckpoint{
		ChainLength: uint64(len(blocks)),
		Timestamp:   time.Now(),
	}, nil
}

// newStores constructs the DAG store and mana ledger backend cfg selects:
// in-memory by default, or a pair of pebble-backed embedded-KV stores under
// cfg.DataDir when an operator wants durable balances and blocks without a
// separate database process.
func newStores(cfg config.StorageConfig) (dag.Store, ledger.ManaLedger, error) {
	switch cfg.Backend {
	case config.StoragePebble:
		store, err := pebblestore.Open(filepath.Join(cfg.DataDir, "dag"))
		if err != nil {
			return nil, nil, fmt.Errorf("icn-coordd: open pebble dag store: %w", err)
		}
		mana, err := pebbleledger.Open(filepath.Join(cfg.DataDir, "mana"))
		if err != nil {
			return nil, nil, fmt.Errorf("icn-coordd: open pebble mana ledger: %w", err)
		}
		return store, mana, nil
	default:
		return dag.NewMemStore(), ledger.NewMemManaLedger(), nil
	}
}

// newNode wires every component for cfg. The DID resolver starts empty;
// an operator registers peer/executor keys onto it out of band before
// trust or mesh operations involving those DIDs are attempted.
func newNode(cfg config.Config, logger log.Logger) (*node, error) {
	var net netsvc.NetworkService
	switch cfg.Network.Transport {
	case config.TransportWS:
		net = netsvc.NewWSHub(cfg.NodeID, logger)
	case config.TransportNATS:
		n, err := netsvc.NewNATSNetwork(cfg.Network.NATSURL, cfg.NodeID)
		if err != nil {
			return nil, fmt.Errorf("icn-coordd: connect nats: %w", err)
		}
		net = n
	default:
		net = netsvc.NewMemBus().NewNetwork(cfg.NodeID)
	}

	store, mana, err := newStores(cfg.Storage)
	if err != nil {
		return nil, err
	}
	rep := reputation.New(cfg.NodeID, cfg.Reputation)
	trustEngine := trust.NewEngine(func() int64 { return time.Now().Unix() })

	peers := federation.NewPeerStore()
	fedMgr := federation.NewManager(cfg.NodeID, cfg.Federation, peers, store, net, logger,
		federation.StaticPeerSource{Peers: cfg.Network.Bootstrap},
		localPartitionAnalyzer{store: store})

	resolver := coordcore.NewStaticResolver(nil)
	meshMgr := mesh.NewManager(cfg.Mesh, mana, store, rep, resolver, mesh.NewKeyStore(), mesh.InProcessSandbox{}, logger)

	byzantine := adversarial.NewByzantineValidator(resolver, nil)
	gaming := adversarial.NewAntiGamingDetector(time.Now)
	emergency := adversarial.NewEmergencyCoordinator(time.Now)
	resilient := adversarial.NewResilientLedger(mana, byzantine, gaming, emergency)

	coord := coordinator.New(cfg.NodeID, store, net, logger)
	health := coordinator.NewHealthMonitor().WithThresholds(cfg.Health)
	health.RegisterComponent("federation", func() coordinator.ComponentHealth {
		if federation.PartitionDetected(len(peers.Reachable()), len(peers.All())) {
			return coordinator.HealthDegraded
		}
		return coordinator.HealthHealthy
	})
	telemetry := coordinator.NewTelemetryWithRegistry(metrics.NewPrometheusRegistry(prometheus.DefaultRegisterer))

	return &node{
		cfg:         cfg,
		log:         logger,
		store:       store,
		mana:        mana,
		rep:         rep,
		trust:       trustEngine,
		net:         net,
		federation:  fedMgr,
		mesh:        meshMgr,
		resilient:   resilient,
		coordinator: coord,
		health:      health,
		telemetry:   telemetry,
	}, nil
}

// run boots every background loop and blocks until ctx is canceled.
func (n *node) run(ctx context.Context) {
	n.coordinator.ListenForBlocks(ctx)
	n.federation.Start(ctx, n.cfg.SyncInterval)
	n.health.Start(ctx, n.cfg.HealthInterval, func() coordinator.Metrics {
		return coordinator.Metrics{
			OverallHealth: healthScore(n.health.Overall()),
			Timestamp:     time.Now(),
		}
	}, func(a coordinator.Alert) {
		n.log.Warn("health alert", "alert", a.String())
	})

	n.log.Info("icn-coordd started", "node_id", string(n.cfg.NodeID), "transport", string(n.cfg.Network.Transport))
	<-ctx.Done()
	n.federation.Stop()
	n.log.Info("icn-coordd stopped")
}

func healthScore(h coordinator.ComponentHealth) float64 {
	switch h {
	case coordinator.HealthHealthy:
		return 1.0
	case coordinator.HealthDegraded:
		return 0.5
	default:
		return 0.0
	}
}
