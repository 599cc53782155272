package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSubscriberGone is returned when sending to a dropped subscriber.
var ErrSubscriberGone = errors.New("subscriber dropped")

// Subscriber is one live streaming client. Frames are queued on a bounded
// buffer drained by the connection's writer.
type Subscriber struct {
	ID uuid.UUID

	mu     sync.Mutex
	out    chan []byte
	closed bool
}

// Out is closed when the hub drops the subscriber.
func (s *Subscriber) Out() <-chan []byte { return s.out }

// Send queues v as a JSON frame without blocking.
func (s *Subscriber) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !s.offer(b) {
		return ErrSubscriberGone
	}
	return nil
}

func (s *Subscriber) offer(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.out <- b:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

// Hub is the registry of live subscribers. Connections register on open and
// deregister on close; broadcasting never blocks on a slow subscriber.
type Hub struct {
	buffer int
	log    *zap.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]*Subscriber
}

// NewHub returns a hub whose subscribers buffer up to buffer frames.
func NewHub(buffer int, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{buffer: buffer, log: log, subs: map[uuid.UUID]*Subscriber{}}
}

// Add registers a new subscriber.
func (h *Hub) Add() *Subscriber {
	s := &Subscriber{ID: uuid.New(), out: make(chan []byte, h.buffer)}
	h.mu.Lock()
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Info("ws_subscriber_added", zap.String("id", s.ID.String()), zap.Int("subscribers", n))
	return s
}

// Remove deregisters id and closes its queue. Unknown ids are ignored.
func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	s, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		s.close()
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Notify queues ev for every subscriber. A subscriber whose buffer is full is
// dropped rather than waited on.
func (h *Hub) Notify(_ context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if s.offer(b) {
			continue
		}
		h.Remove(s.ID)
		h.log.Warn("ws_subscriber_dropped", zap.String("id", s.ID.String()))
	}
	return nil
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = map[uuid.UUID]*Subscriber{}
	h.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
}
