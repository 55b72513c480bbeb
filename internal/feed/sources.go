package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

type OrderGetter interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// NotifySource listens on a Postgres channel fed by the orders trigger.
// Payloads carry only the id; the row is re-read for inserts and updates.
type NotifySource struct {
	DSN     string
	Channel string
	Orders  OrderGetter

	// nil means pq.NewListener
	listen func(dsn string) notifyListener
}

type notifyListener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

type notifyPayload struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

func (s *NotifySource) Run(ctx context.Context, sink Sink) error {
	l := logging.FromContext(ctx).With("source", "notify", "channel", s.Channel)

	var listener notifyListener
	if s.listen != nil {
		listener = s.listen(s.DSN)
	} else {
		listener = pq.NewListener(s.DSN, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
			if err != nil {
				l.Warn("feed_listener_event", "event", ev, "error", err)
			}
		})
	}
	defer listener.Close()

	if err := listener.Listen(s.Channel); err != nil {
		return fmt.Errorf("listen %s: %w", s.Channel, err)
	}
	l.Info("feed_source_started")

	idle := time.NewTicker(90 * time.Second)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-idle.C:
			if err := listener.Ping(); err != nil {
				l.Warn("feed_listener_ping_failed", "error", err)
			}
		case n, ok := <-listener.NotificationChannel():
			if !ok {
				return errors.New("notify listener closed")
			}
			if n == nil {
				// reconnected; notifications sent meanwhile are lost
				l.Warn("feed_listener_reconnected")
				continue
			}
			ev, err := s.decode(ctx, n.Extra)
			if err != nil {
				l.Warn("feed_notify_decode_failed", "payload", n.Extra, "error", err)
				continue
			}
			sink.Publish(ev)
		}
	}
}

func (s *NotifySource) decode(ctx context.Context, payload string) (Event, error) {
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return Event{}, err
	}
	switch EventType(p.Type) {
	case EventDelete:
		return Event{Type: EventDelete, Order: models.Order{ID: p.ID}}, nil
	case EventInsert, EventUpdate:
		o, err := s.Orders.GetOrder(ctx, p.ID)
		if err != nil {
			return Event{}, fmt.Errorf("load order %s: %w", p.ID, err)
		}
		return Event{Type: EventType(p.Type), Order: *o}, nil
	}
	return Event{}, fmt.Errorf("unknown notify type %q", p.Type)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaSource consumes the order_events topic written by the order service.
// Every replica needs the whole stream, so GroupID should be private to the
// process (see InstanceGroupID). A new group starts at the newest offset; the
// board is seeded from the database before the source runs.
type KafkaSource struct {
	Brokers []string
	Topic   string
	GroupID string

	reader messageReader
}

// InstanceGroupID returns a consumer group id no other process shares.
func InstanceGroupID(service string) string {
	return service + "-feed-" + uuid.NewString()
}

func (s *KafkaSource) readerConfig() kafka.ReaderConfig {
	group := s.GroupID
	if group == "" {
		group = InstanceGroupID("orders")
	}
	return kafka.ReaderConfig{
		Brokers:     s.Brokers,
		Topic:       s.Topic,
		GroupID:     group,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
	}
}

func (s *KafkaSource) Run(ctx context.Context, sink Sink) error {
	l := logging.FromContext(ctx).With("source", "kafka", "topic", s.Topic)

	r := s.reader
	if r == nil {
		cfg := s.readerConfig()
		l = l.With("group", cfg.GroupID)
		r = kafka.NewReader(cfg)
	}
	defer r.Close()
	l.Info("feed_source_started")

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}
		var ev Event
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			l.Warn("feed_kafka_decode_failed", "offset", m.Offset, "error", err)
			continue
		}
		sink.Publish(ev)
	}
}

type OrderLister interface {
	ListOrdersUpdatedSince(ctx context.Context, since time.Time) ([]models.Order, error)
	ListOrderIDs(ctx context.Context) ([]uuid.UUID, error)
}

// PollSource diffs the orders table on an interval.
type PollSource struct {
	Orders   OrderLister
	Interval time.Duration
}

func (s *PollSource) Run(ctx context.Context, sink Sink) error {
	l := logging.FromContext(ctx).With("source", "poll")
	interval := s.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	cur := newPollCursor(time.Now().UTC())
	ids, err := s.Orders.ListOrderIDs(ctx)
	if err != nil {
		return fmt.Errorf("seed order ids: %w", err)
	}
	known := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	l.Info("feed_source_started", "known", len(known), "interval", interval)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if err := s.poll(ctx, cur, known, sink); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.Warn("feed_poll_failed", "error", err)
		}
	}
}

// pollCursor is the newest updated_at emitted so far and the orders emitted
// at exactly that instant. Rows stamped at the cursor can still commit after
// a poll has read it, so the next poll reads from the cursor inclusively and
// skips only what it already sent.
type pollCursor struct {
	at   time.Time
	seen map[uuid.UUID]struct{}
}

func newPollCursor(at time.Time) *pollCursor {
	return &pollCursor{at: at, seen: map[uuid.UUID]struct{}{}}
}

func (c *pollCursor) sent(o models.Order) bool {
	if !o.UpdatedAt.Equal(c.at) {
		return false
	}
	_, ok := c.seen[o.ID]
	return ok
}

func (c *pollCursor) advance(o models.Order) {
	switch {
	case o.UpdatedAt.After(c.at):
		c.at = o.UpdatedAt
		c.seen = map[uuid.UUID]struct{}{o.ID: {}}
	case o.UpdatedAt.Equal(c.at):
		c.seen[o.ID] = struct{}{}
	}
}

func (s *PollSource) poll(ctx context.Context, cur *pollCursor, known map[uuid.UUID]struct{}, sink Sink) error {
	changed, err := s.Orders.ListOrdersUpdatedSince(ctx, cur.at)
	if err != nil {
		return err
	}
	ids, err := s.Orders.ListOrderIDs(ctx)
	if err != nil {
		return err
	}

	for _, o := range changed {
		if cur.sent(o) {
			continue
		}
		typ := EventUpdate
		if _, ok := known[o.ID]; !ok {
			typ = EventInsert
			known[o.ID] = struct{}{}
		}
		sink.Publish(Event{Type: typ, Order: o})
		cur.advance(o)
	}

	present := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		present[id] = struct{}{}
	}
	for id := range known {
		if _, ok := present[id]; !ok {
			delete(known, id)
			sink.Publish(Event{Type: EventDelete, Order: models.Order{ID: id}})
		}
	}
	return nil
}
