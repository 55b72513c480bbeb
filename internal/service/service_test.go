package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/balkan_kitchen/internal/db/dbtest"
	"github.com/Skotchmaster/balkan_kitchen/internal/feed"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
	"github.com/Skotchmaster/balkan_kitchen/internal/transport"
)

type published struct {
	topic, key string
	event      any
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic, key, event})
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.topic)
	}
	return out
}

type sinkFunc func(feed.Event)

func (f sinkFunc) Publish(ev feed.Event) { f(ev) }

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return repo.New(dbtest.Open(t))
}

func ptr[T any](v T) *T { return &v }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedMenu(t *testing.T, s *CatalogService) (mains, grill uint, kebab uint) {
	t.Helper()
	ctx := context.Background()

	m, err := s.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Mains", DisplayOrder: 1})
	require.NoError(t, err)
	g, err := s.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Grill", ParentID: &m.ID})
	require.NoError(t, err)
	k, err := s.CreateMenuItem(ctx, transport.CreateMenuItemRequest{
		Name:       "Kebab",
		Price:      price("149"),
		CategoryID: g.ID,
		Calories:   ptr(800),
	})
	require.NoError(t, err)
	return m.ID, g.ID, k.ID
}
