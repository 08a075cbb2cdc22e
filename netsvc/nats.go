// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package netsvc

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
)

// NATSNetwork implements NetworkService over a NATS connection, fanning
// broadcasts out to every subscriber without each node tracking peer
// sockets itself.
type NATSNetwork struct {
	self coordcore.NodeID
	conn *nats.Conn
}

// NewNATSNetwork connects to url and returns a NetworkService sending as
// self.
func NewNATSNetwork(url string, self coordcore.NodeID) (*NATSNetwork, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, coordcore.Wrap(coordcore.KindNetworkError, "nats connect "+url, err)
	}
	return &NATSNetwork{self: self, conn: conn}, nil
}

func (n *NATSNetwork) Self() coordcore.NodeID { return n.self }

// Close drains and closes the underlying connection.
func (n *NATSNetwork) Close() {
	n.conn.Drain() //nolint:errcheck
}

type natsEnvelope struct {
	From     coordcore.NodeID   `json:"from"`
	Payload  []byte             `json:"payload"`
	Priority coordcore.Priority `json:"priority"`
}

// Send publishes to a per-peer subject ("<topic>.<peer>"); NATS subjects
// have no reachability guarantee, so a missing subscriber is not reported
// as an error here (unlike MemNetwork/WSHub, which know their peer set).
func (n *NATSNetwork) Send(_ context.Context, peer coordcore.NodeID, topic string, payload []byte, priority coordcore.Priority) error {
	if n.conn.Status() != nats.CONNECTED {
		return coordcore.New(coordcore.KindNetworkError, "nats connection not ready")
	}
	env := natsEnvelope{From: n.self, Payload: payload, Priority: priority}
	buf, err := json.Marshal(env)
	if err != nil {
		return coordcore.Wrap(coordcore.KindSerializationError, "nats: marshal envelope", err)
	}
	if err := n.conn.Publish(topic+"."+string(peer), buf); err != nil {
		return coordcore.Wrap(coordcore.KindNetworkError, "nats publish", err)
	}
	return nil
}

// Broadcast publishes to the bare topic subject.
func (n *NATSNetwork) Broadcast(_ context.Context, topic string, payload []byte, priority coordcore.Priority) error {
	if n.conn.Status() != nats.CONNECTED {
		return coordcore.New(coordcore.KindNetworkError, "nats connection not ready")
	}
	env := natsEnvelope{From: n.self, Payload: payload, Priority: priority}
	buf, err := json.Marshal(env)
	if err != nil {
		return coordcore.Wrap(coordcore.KindSerializationError, "nats: marshal envelope", err)
	}
	if err := n.conn.Publish(topic, buf); err != nil {
		return coordcore.Wrap(coordcore.KindNetworkError, "nats publish", err)
	}
	return nil
}

type natsSubscription struct {
	subs []*nats.Subscription
	ch   chan Message
}

func (s *natsSubscription) Messages() <-chan Message { return s.ch }
func (s *natsSubscription) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	close(s.ch)
}

// Subscribe listens on both the bare topic (broadcasts) and the
// self-addressed per-peer subject (direct sends), merging both into one
// channel so callers don't need to know which path a message arrived on.
func (n *NATSNetwork) Subscribe(topic string) Subscription {
	ch := make(chan Message, 64)
	handler := func(m *nats.Msg) {
		var env natsEnvelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			return
		}
		select {
		case ch <- Message{From: env.From, Topic: topic, Payload: env.Payload, Priority: env.Priority}:
		default:
		}
	}

	result := &natsSubscription{ch: ch}
	if sub, err := n.conn.Subscribe(topic, handler); err == nil {
		result.subs = append(result.subs, sub)
	}
	if sub, err := n.conn.Subscribe(topic+"."+string(n.self), handler); err == nil {
		result.subs = append(result.subs, sub)
	}
	return result
}

var _ NetworkService = (*NATSNetwork)(nil)
