// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config aggregates every component's tunables into a single
// structured object a runtime boots from, with one Default/Test preset
// pair and a Valid method checking one constraint at a time.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/coordinator"
	"github.com/InterCooperative-Network/icn-coord/federation"
	"github.com/InterCooperative-Network/icn-coord/mesh"
	"github.com/InterCooperative-Network/icn-coord/reputation"
)

// Sentinel validation errors, one per violated constraint.
var (
	ErrMissingNodeID     = errors.New("config: node id is required")
	ErrMissingListenAddr = errors.New("config: listen address is required when websocket transport is enabled")
	ErrInvalidTransport  = errors.New("config: transport must be \"mem\", \"ws\", or \"nats\"")
	ErrMissingDataDir        = errors.New("config: storage.data_dir is required when storage backend is \"pebble\"")
	ErrInvalidStorageBackend = errors.New("config: storage.backend must be \"mem\" or \"pebble\"")
)

// Transport names which netsvc.NetworkService backend a node boots with.
type Transport string

const (
	TransportMem  Transport = "mem"
	TransportWS   Transport = "ws"
	TransportNATS Transport = "nats"
)

// NetworkConfig selects and tunes a node's netsvc backend.
type NetworkConfig struct {
	Transport  Transport             `yaml:"transport"`
	ListenAddr string                `yaml:"listen_addr"`
	NATSURL    string                `yaml:"nats_url"`
	Bootstrap  []coordcore.NodeID    `yaml:"bootstrap"`
}

// StorageBackend names which dag.Store/ledger.ManaLedger implementation a
// node boots with.
type StorageBackend string

const (
	StorageMem    StorageBackend = "mem"
	StoragePebble StorageBackend = "pebble"
)

// StorageConfig selects and tunes a node's DAG/ledger persistence backend.
// Pebble is an embedded-KV option for operators who want durable balances
// and blocks without running a separate database process.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"`
	DataDir string         `yaml:"data_dir"`
}

// Config is the complete set of parameters a node runtime needs.
type Config struct {
	NodeID      coordcore.NodeID    `yaml:"node_id"`
	Network     NetworkConfig       `yaml:"network"`
	Storage     StorageConfig       `yaml:"storage"`
	Federation  federation.Config   `yaml:"federation"`
	Mesh        mesh.Config         `yaml:"mesh"`
	Reputation  reputation.Config   `yaml:"reputation"`
	Health      coordinator.Thresholds `yaml:"health"`
	SyncInterval   time.Duration    `yaml:"sync_interval"`
	HealthInterval time.Duration    `yaml:"health_interval"`
}

// DefaultConfig returns a production-leaning configuration for nodeID,
// pulling each component's own defaults (mirrors DefaultParams composing
// sub-defaults rather than redeclaring them).
func DefaultConfig(nodeID coordcore.NodeID) Config {
	return Config{
		NodeID: nodeID,
		Network: NetworkConfig{
			Transport:  TransportWS,
			ListenAddr: ":7946",
		},
		Storage:        StorageConfig{Backend: StorageMem},
		Federation:     federation.DefaultConfig(),
		Mesh:           mesh.DefaultConfig(),
		Reputation:     reputation.DefaultConfig(),
		Health:         coordinator.DefaultThresholds(),
		SyncInterval:   30 * time.Second,
		HealthInterval: 30 * time.Second,
	}
}

// TestConfig returns a fast-cycling configuration suitable for local
// multi-node tests.
func TestConfig(nodeID coordcore.NodeID) Config {
	cfg := DefaultConfig(nodeID)
	cfg.Network.Transport = TransportMem
	cfg.Federation.PeerTimeout = time.Second
	cfg.Federation.CheckpointInterval = time.Second
	cfg.SyncInterval = 50 * time.Millisecond
	cfg.HealthInterval = 50 * time.Millisecond
	return cfg
}

// Valid validates cfg: one named error per violated constraint, checked
// in a fixed order.
func (c Config) Valid() error {
	if c.NodeID == "" {
		return ErrMissingNodeID
	}
	switch c.Network.Transport {
	case TransportMem, TransportNATS:
	case TransportWS:
		if c.Network.ListenAddr == "" {
			return ErrMissingListenAddr
		}
	default:
		return ErrInvalidTransport
	}
	switch c.Storage.Backend {
	case "", StorageMem:
	case StoragePebble:
		if c.Storage.DataDir == "" {
			return ErrMissingDataDir
		}
	default:
		return ErrInvalidStorageBackend
	}
	if c.Federation.MaxConcurrentSyncs < 1 {
		return fmt.Errorf("config: federation.max_concurrent_syncs must be >= 1")
	}
	if c.Mesh.MaxConcurrentExecs < 1 {
		return fmt.Errorf("config: mesh.max_concurrent_execs must be >= 1")
	}
	return nil
}

// Load reads a YAML configuration file from path, applying DefaultConfig(nodeID)
// as the base before unmarshaling overrides on top of it.
func Load(path string, nodeID coordcore.NodeID) (Config, error) {
	cfg := DefaultConfig(nodeID)
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Valid(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
