// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package netsvc

import (
	"context"
	"sync"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// MemNetwork is an in-process NetworkService: every node sharing a MemBus
// can Send/Broadcast/Subscribe to each other without any real transport,
// the backend used by tests and single-process multi-node simulations.
type MemNetwork struct {
	self coordcore.NodeID
	bus  *MemBus
}

// MemBus fans messages out to every node's MemNetwork handle registered on
// it, guarded by a single lock.
type MemBus struct {
	mu sync.RWMutex
	// nodeSubs lets Send target a specific node even though the bus is
	// topic-addressed.
	nodeSubs map[coordcore.NodeID][]*memSub
}

type memSub struct {
	topic string
	ch    chan Message
}

// NewMemBus returns an empty bus.
func NewMemBus() *MemBus {
	return &MemBus{nodeSubs: make(map[coordcore.NodeID][]*memSub)}
}

// NewNetwork returns a NetworkService for node self, wired into bus.
func (b *MemBus) NewNetwork(self coordcore.NodeID) *MemNetwork {
	return &MemNetwork{self: self, bus: b}
}

func (n *MemNetwork) Self() coordcore.NodeID { return n.self }

// Send delivers payload only to subscriptions registered by peer.
func (n *MemNetwork) Send(_ context.Context, peer coordcore.NodeID, topic string, payload []byte, priority coordcore.Priority) error {
	n.bus.mu.RLock()
	defer n.bus.mu.RUnlock()
	msg := Message{From: n.self, Topic: topic, Payload: payload, Priority: priority}
	delivered := false
	for _, s := range n.bus.nodeSubs[peer] {
		if s.topic != topic {
			continue
		}
		select {
		case s.ch <- msg:
			delivered = true
		default:
			delivered = true
		}
	}
	if !delivered {
		return coordcore.New(coordcore.KindNetworkError, "no subscriber for peer "+string(peer))
	}
	return nil
}

// Broadcast delivers payload to every subscriber of topic regardless of
// node.
func (n *MemNetwork) Broadcast(_ context.Context, topic string, payload []byte, priority coordcore.Priority) error {
	n.bus.mu.RLock()
	defer n.bus.mu.RUnlock()
	msg := Message{From: n.self, Topic: topic, Payload: payload, Priority: priority}
	for _, subs := range n.bus.nodeSubs {
		for _, s := range subs {
			if s.topic != topic {
				continue
			}
			select {
			case s.ch <- msg:
			default:
			}
		}
	}
	return nil
}

type memSubscription struct {
	ch     chan Message
	closed chan struct{}
	once   sync.Once
}

func (s *memSubscription) Messages() <-chan Message { return s.ch }

// Close marks the subscription closed. It does not unregister it from the
// bus or close the Messages channel: the bus keeps filling the 64-slot
// buffer and drops further messages once it is full.
func (s *memSubscription) Close() {
	s.once.Do(func() { close(s.closed) })
}

// Subscribe registers n's node as a listener on topic. The channel is
// buffered so Broadcast/Send never block on a slow subscriber.
func (n *MemNetwork) Subscribe(topic string) Subscription {
	ch := make(chan Message, 64)
	sub := &memSub{topic: topic, ch: ch}

	n.bus.mu.Lock()
	n.bus.nodeSubs[n.self] = append(n.bus.nodeSubs[n.self], sub)
	n.bus.mu.Unlock()

	return &memSubscription{ch: ch, closed: make(chan struct{})}
}

var _ NetworkService = (*MemNetwork)(nil)
