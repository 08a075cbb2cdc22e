// Copyright (C) 2020-2026, InterCooperative Network Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package netsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/InterCooperative-Network/icn-coord/coordcore"
	"github.com/InterCooperative-Network/icn-coord/log"
)

// wireMessage is the JSON envelope written to and read from each peer
// connection.
type wireMessage struct {
	From     coordcore.NodeID   `json:"from"`
	Topic    string             `json:"topic"`
	Payload  []byte             `json:"payload"`
	Priority coordcore.Priority `json:"priority"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHub maintains one websocket connection per peer and dispatches inbound
// frames to topic subscribers, the federation-sync transport named in
// DESIGN.md. It mirrors the connect/broadcast/reap lifecycle of a typical
// websocket hub, generalized from a single-room broadcast to a topic-keyed
// peer mesh.
type WSHub struct {
	self coordcore.NodeID
	log  log.Logger

	mu    sync.RWMutex
	peers map[coordcore.NodeID]*websocket.Conn
	subs  map[string][]chan Message
}

// NewWSHub returns a hub that sends as self.
func NewWSHub(self coordcore.NodeID, logger log.Logger) *WSHub {
	return &WSHub{
		self:  self,
		log:   logger,
		peers: make(map[coordcore.NodeID]*websocket.Conn),
		subs:  make(map[string][]chan Message),
	}
}

func (h *WSHub) Self() coordcore.NodeID { return h.self }

// Upgrade accepts an inbound HTTP connection as a peer stream identified by
// peerID, starting its read loop in the background.
func (h *WSHub) Upgrade(w http.ResponseWriter, r *http.Request, peerID coordcore.NodeID) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return coordcore.Wrap(coordcore.KindNetworkError, "websocket upgrade", err)
	}
	h.register(peerID, conn)
	go h.readLoop(peerID, conn)
	return nil
}

// Dial opens an outbound peer stream to url, registering it as peerID.
func (h *WSHub) Dial(ctx context.Context, url string, peerID coordcore.NodeID) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return coordcore.Wrap(coordcore.KindNetworkError, "websocket dial "+url, err)
	}
	h.register(peerID, conn)
	go h.readLoop(peerID, conn)
	return nil
}

func (h *WSHub) register(peerID coordcore.NodeID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.peers[peerID]; ok {
		old.Close()
	}
	h.peers[peerID] = conn
}

func (h *WSHub) readLoop(peerID coordcore.NodeID, conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		if h.peers[peerID] == conn {
			delete(h.peers, peerID)
		}
		h.mu.Unlock()
		conn.Close()
	}()
	for {
		var wm wireMessage
		if err := conn.ReadJSON(&wm); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket peer closed unexpectedly", "peer", peerID, "err", err)
			}
			return
		}
		h.dispatch(Message{From: wm.From, Topic: wm.Topic, Payload: wm.Payload, Priority: wm.Priority})
	}
}

func (h *WSHub) dispatch(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[msg.Topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *WSHub) Send(_ context.Context, peer coordcore.NodeID, topic string, payload []byte, priority coordcore.Priority) error {
	h.mu.RLock()
	conn, ok := h.peers[peer]
	h.mu.RUnlock()
	if !ok {
		return coordcore.New(coordcore.KindNetworkError, "no connection to peer "+string(peer))
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := conn.WriteJSON(wireMessage{From: h.self, Topic: topic, Payload: payload, Priority: priority}); err != nil {
		return coordcore.Wrap(coordcore.KindNetworkError, "websocket write to "+string(peer), err)
	}
	return nil
}

func (h *WSHub) Broadcast(ctx context.Context, topic string, payload []byte, priority coordcore.Priority) error {
	h.mu.RLock()
	peers := make([]coordcore.NodeID, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	var errs coordcore.Errs
	for _, p := range peers {
		errs.Add(h.Send(ctx, p, topic, payload, priority))
	}
	return errs.Err()
}

type wsSubscription struct {
	hub   *WSHub
	topic string
	ch    chan Message
}

func (s *wsSubscription) Messages() <-chan Message { return s.ch }

func (s *wsSubscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	subs := s.hub.subs[s.topic]
	for i, ch := range subs {
		if ch == s.ch {
			s.hub.subs[s.topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(s.ch)
}

func (h *WSHub) Subscribe(topic string) Subscription {
	ch := make(chan Message, 64)
	h.mu.Lock()
	h.subs[topic] = append(h.subs[topic], ch)
	h.mu.Unlock()
	return &wsSubscription{hub: h, topic: topic, ch: ch}
}

// marshalForWire is a small helper kept for callers that build payloads
// from structured data rather than raw bytes.
func marshalForWire(v any) ([]byte, error) {
	return json.Marshal(v)
}

var _ NetworkService = (*WSHub)(nil)
