// Package feed delivers order changes to admin views. Sources turn some
// transport (LISTEN/NOTIFY, Kafka, polling, in-process calls) into Events
// and push them into a Hub; consumers subscribe to the Hub.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

type Event struct {
	Type  EventType    `json:"type"`
	Order models.Order `json:"order"`
	At    time.Time    `json:"at"`
}

// Sink receives events from a Source.
type Sink interface {
	Publish(ev Event)
}

// Source runs until ctx is cancelled or the transport fails for good.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	buffer int
	log    *slog.Logger
	closed bool
}

func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{subs: make(map[chan Event]struct{}), buffer: buffer, log: log}
}

// Subscribe returns a channel that receives every event published after
// the call. The channel is closed when ctx ends or the hub closes.
func (h *Hub) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}()
	return ch
}

// Publish fans ev out without blocking. A subscriber whose buffer is full
// misses the event.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("feed_event_dropped", "type", ev.Type, "order_id", ev.Order.ID)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
