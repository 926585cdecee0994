// Package roomhub is the per-room subscriber fan-out of spec.md §4.5,
// generalising the teacher's role-keyed broadcast/broadcastWithOptions pair
// (internal/v1/session/room.go) from a map-of-roles to a flat subscriber
// set: every accepted command produces at most one broadcast, delivered to
// every live subscriber with the same select/default drop-on-full
// discipline, and every subscribe/unsubscribe triggers a presence
// broadcast.
package roomhub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const sendBufferSize = 64

// Subscription is the push channel returned by Hub.Subscribe. The caller
// reads Messages until it closes (the hub closed it because the subscriber
// was dropped or the hub itself was closed) and calls Unsubscribe exactly
// once when it is done.
type Subscription struct {
	id       uint64
	Messages <-chan []byte
	hub      *Hub
}

// Unsubscribe removes the subscription from the hub and triggers a
// presence broadcast. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.remove(s.id)
}

type subscriber struct {
	id   uint64
	send chan []byte
}

// Hub is one room's subscriber set. It never holds a reference to any
// snapshot or state — callers pass in already-serialised payloads.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
	log    *zap.Logger
}

func New(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: make(map[uint64]*subscriber), log: log}
}

// Subscribe registers a new subscriber and returns its channel. Any preload
// messages (the actor passes `connected` and `snapshot`) are queued on the
// channel before the subscriber is registered and before the presence
// broadcast, so they are always the first messages it reads.
func (h *Hub) Subscribe(preload ...[]byte) *Subscription {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	sub := &subscriber{id: id, send: make(chan []byte, sendBufferSize)}
	for _, raw := range preload {
		sub.send <- raw
	}
	h.subs[id] = sub
	h.mu.Unlock()

	h.broadcastPresence()
	return &Subscription{id: id, Messages: sub.send, hub: h}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	h.mu.Unlock()
	if ok {
		close(sub.send)
		h.broadcastPresence()
	}
}

type presenceEnvelope struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// broadcastPresence sends {type:"presence", count} to every remaining
// subscriber (spec.md §4.5: "presence is broadcast whenever the subscriber
// count changes"). If broadcastRaw drops a slow subscriber it calls
// broadcastPresence again; each such call has removed at least one
// subscriber, so the recursion ends once no send overflows.
func (h *Hub) broadcastPresence() {
	raw, err := json.Marshal(presenceEnvelope{Type: "presence", Count: h.Count()})
	if err != nil {
		return
	}
	h.broadcastRaw(raw)
}

// Count returns the current subscriber count.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast delivers payload (any JSON-marshalable envelope) to every live
// subscriber. A subscriber whose buffer is full is dropped rather than
// allowed to stall the broadcast (spec.md §5): "Subscriber writes use a
// bounded outbound buffer; a slow subscriber is dropped after overflow".
func (h *Hub) Broadcast(payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to marshal broadcast payload", zap.Error(err))
		return
	}
	h.broadcastRaw(raw)
}

func (h *Hub) broadcastRaw(raw []byte) {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	var dropped []uint64
	for _, s := range targets {
		select {
		case s.send <- raw:
		default:
			dropped = append(dropped, s.id)
		}
	}

	if len(dropped) == 0 {
		return
	}

	h.mu.Lock()
	for _, id := range dropped {
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.send)
		}
	}
	h.mu.Unlock()

	h.log.Warn("dropped slow subscribers", zap.Int("count", len(dropped)))
	h.broadcastPresence()
}

// Close closes every live subscriber's channel. Used when a room is torn
// down by the registry.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[uint64]*subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		close(s.send)
	}
}
