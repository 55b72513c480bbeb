package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/balkan_kitchen/internal/apperr"
	"github.com/Skotchmaster/balkan_kitchen/internal/events"
	"github.com/Skotchmaster/balkan_kitchen/internal/feed"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

func newTestOrders(t *testing.T) (*OrderService, *recordingPublisher, *[]feed.Event) {
	t.Helper()
	pub := &recordingPublisher{}
	s := NewOrderService(newTestRepo(t), pub, time.Second)
	var got []feed.Event
	s.Feed = sinkFunc(func(ev feed.Event) { got = append(got, ev) })
	return s, pub, &got
}

func newOrder(name string) *models.Order {
	return &models.Order{
		CustomerName:  name,
		CustomerPhone: "+47 900 00 000",
		Items:         []models.OrderLine{{ID: 1, Name: "Kebab", Price: price("149"), Quantity: 2}},
		TotalAmount:   price("298"),
		Status:        models.StatusPending,
		PaymentMethod: models.PaymentVipps,
	}
}

func TestOrders_CreateNotifies(t *testing.T) {
	s, pub, got := newTestOrders(t)
	ctx := context.Background()

	o, err := s.CreateOrder(ctx, newOrder("Ana"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, o.ID)

	require.Len(t, *got, 1)
	assert.Equal(t, feed.EventInsert, (*got)[0].Type)
	assert.Equal(t, o.ID, (*got)[0].Order.ID)
	assert.Equal(t, []string{events.TopicOrderEvents}, pub.topics())
	assert.Equal(t, o.ID.String(), pub.sent[0].key)
}

func TestOrders_ListNewestFirst(t *testing.T) {
	s, _, _ := newTestOrders(t)
	ctx := context.Background()

	for _, n := range []string{"a", "b", "c"} {
		_, err := s.CreateOrder(ctx, newOrder(n))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	total, page, err := s.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].CustomerName)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestOrders_UpdateStatus(t *testing.T) {
	s, _, got := newTestOrders(t)
	ctx := context.Background()

	o, err := s.CreateOrder(ctx, newOrder("Ana"))
	require.NoError(t, err)

	up, err := s.UpdateStatus(ctx, o.ID, "preparing")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, up.Status)

	same, err := s.UpdateStatus(ctx, o.ID, "preparing")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, same.Status)

	_, err = s.UpdateStatus(ctx, o.ID, "pending")
	assert.Equal(t, CodeInvalidStatus, apperr.Classify(err).Code)

	_, err = s.UpdateStatus(ctx, o.ID, "eaten")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.UpdateStatus(ctx, uuid.New(), "ready")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.UpdateStatus(ctx, o.ID, "cancelled")
	require.NoError(t, err)
	_, err = s.UpdateStatus(ctx, o.ID, "ready")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var types []feed.EventType
	for _, ev := range *got {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []feed.EventType{feed.EventInsert, feed.EventUpdate, feed.EventUpdate}, types)
}

func TestOrders_UpdateStatus_LosesRaceToConcurrentWriter(t *testing.T) {
	s, _, got := newTestOrders(t)
	ctx := context.Background()

	o, err := s.CreateOrder(ctx, newOrder("Ana"))
	require.NoError(t, err)

	// another admin cancels the order between the transition check and
	// the write
	fired := false
	err = s.Repo.DB.Callback().Update().Before("gorm:update").Register("test:cancel_first", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "orders" {
			return
		}
		fired = true
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE orders SET status = ? WHERE id = ?", models.StatusCancelled, o.ID)
		require.NoError(t, err)
	})
	require.NoError(t, err)

	_, err = s.UpdateStatus(ctx, o.ID, "preparing")
	require.True(t, fired)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, CodeInvalidStatus, apperr.Classify(err).Code)

	stored, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Len(t, *got, 1)
}

func TestOrders_Delete(t *testing.T) {
	s, _, got := newTestOrders(t)
	ctx := context.Background()

	o, err := s.CreateOrder(ctx, newOrder("Ana"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, o.ID))
	assert.Equal(t, feed.EventDelete, (*got)[len(*got)-1].Type)

	_, err = s.Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, o.ID), apperr.ErrNotFound)
}
