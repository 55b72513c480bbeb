package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/balkan_kitchen/internal/apperr"
	"github.com/Skotchmaster/balkan_kitchen/internal/events"
	"github.com/Skotchmaster/balkan_kitchen/internal/feed"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
	"github.com/Skotchmaster/balkan_kitchen/internal/util"
)

const CodeInvalidStatus = "invalid_status"

type OrderService struct {
	Repo    *repo.GormRepo
	Events  events.Publisher
	Timeout time.Duration

	// Feed receives every change directly when no external feed source
	// is running.
	Feed feed.Sink
}

func NewOrderService(r *repo.GormRepo, pub events.Publisher, timeout time.Duration) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &OrderService{Repo: r, Events: pub, Timeout: timeout}
}

// CreateOrder stores a checked-out cart.
func (s *OrderService) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	ctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	stored, err := s.Repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	logging.FromContext(ctx).Info("order_created", "order_id", stored.ID, "total", stored.TotalAmount.StringFixed(2))
	s.notify(ctx, feed.EventInsert, *stored)
	return stored, nil
}

// List returns one page of orders, newest first.
func (s *OrderService) List(ctx context.Context, page, size int) (int64, []models.Order, error) {
	ctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	offset, limit := util.Calculate(page, size)
	total, orders, err := s.Repo.ListOrders(ctx, offset, limit)
	if err != nil {
		return 0, nil, apperr.Classify(err)
	}
	return total, orders, nil
}

// All returns every order, newest first. It seeds the admin board.
func (s *OrderService) All(ctx context.Context) ([]models.Order, error) {
	ctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	_, orders, err := s.Repo.ListOrders(ctx, 0, 0)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	ctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	o, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	return o, nil
}

// UpdateStatus moves an order along its lifecycle. The write only lands if
// the order still has the status the transition was checked against.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.update_status", "order_id", id)

	to, err := models.ParseOrderStatus(raw)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, CodeInvalidStatus, err)
	}

	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	cur, err := s.Repo.GetOrder(sctx, id)
	if err != nil {
		return nil, apperr.Classify(err)
	}
	if !cur.Status.CanTransition(to) {
		l.Warn("order_status_rejected", "from", cur.Status, "to", to)
		return nil, apperr.New(apperr.KindValidation, CodeInvalidStatus,
			fmt.Errorf("%s -> %s", cur.Status, to))
	}
	if cur.Status == to {
		return cur, nil
	}

	updated, err := s.Repo.UpdateOrderStatus(sctx, id, cur.Status, to)
	if errors.Is(err, repo.ErrStatusChanged) {
		l.Warn("order_status_rejected", "from", cur.Status, "to", to, "reason", "changed_concurrently")
		return nil, apperr.New(apperr.KindValidation, CodeInvalidStatus, err)
	}
	if err != nil {
		return nil, apperr.Classify(err)
	}
	l.Info("order_status_updated", "from", cur.Status, "to", to)
	s.notify(ctx, feed.EventUpdate, *updated)
	return updated, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	sctx, cancel := withStoreTimeout(ctx, s.Timeout)
	defer cancel()

	if err := s.Repo.DeleteOrder(sctx, id); err != nil {
		return apperr.Classify(err)
	}
	logging.FromContext(ctx).Info("order_deleted", "order_id", id)
	s.notify(ctx, feed.EventDelete, models.Order{ID: id})
	return nil
}

func (s *OrderService) notify(ctx context.Context, typ feed.EventType, o models.Order) {
	ev := feed.Event{Type: typ, Order: o, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, events.TopicOrderEvents, o.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("order_event_publish_failed", "type", typ, "order_id", o.ID, "error", err)
	}
	if s.Feed != nil {
		s.Feed.Publish(ev)
	}
}
