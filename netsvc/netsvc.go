// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package netsvc defines the narrow NetworkService trait that federation
// sync and the cross-component coordinator send messages through, plus the
// backends that implement it: an in-memory bus for tests, a websocket peer
// transport, and a NATS-backed pub/sub bus. The mesh package does not use
// it.
package netsvc

import (
	"context"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// Message is one delivered payload: an opaque byte blob plus the routing
// metadata a subscriber needs to decide what it is.
type Message struct {
	From     coordcore.NodeID
	Topic    string
	Payload  []byte
	Priority coordcore.Priority
}

// Subscription is returned by Subscribe; Close stops delivery and releases
// the subscriber's channel.
type Subscription interface {
	Messages() <-chan Message
	Close()
}

// NetworkService is the transport abstraction every networked component
// depends on instead of owning a concrete transport. Callers never hold a
// component lock across Send/Broadcast.
type NetworkService interface {
	// Send delivers payload to a single peer on topic. Returns
	// coordcore.KindNetworkError if the peer is unreachable.
	Send(ctx context.Context, peer coordcore.NodeID, topic string, payload []byte, priority coordcore.Priority) error
	// Broadcast delivers payload to every subscriber of topic.
	Broadcast(ctx context.Context, topic string, payload []byte, priority coordcore.Priority) error
	// Subscribe registers interest in topic; messages arrive on the
	// returned Subscription until it is closed.
	Subscribe(topic string) Subscription
	// Self returns the node ID this service sends messages as.
	Self() coordcore.NodeID
}
