package feed

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

// Board is the admin's live order list, newest first.
type Board struct {
	mu     sync.RWMutex
	orders []models.Order
}

func NewBoard() *Board { return &Board{} }

// Replace loads a full listing.
func (b *Board) Replace(orders []models.Order) {
	cp := append([]models.Order(nil), orders...)
	sortNewestFirst(cp)

	b.mu.Lock()
	b.orders = cp
	b.mu.Unlock()
}

// Apply folds one event into the list and reports whether it changed.
// Updates for unknown orders are treated as inserts.
func (b *Board) Apply(ev Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexLocked(ev.Order.ID)
	switch ev.Type {
	case EventInsert, EventUpdate:
		if i >= 0 {
			b.orders[i] = ev.Order
			return true
		}
		b.orders = append([]models.Order{ev.Order}, b.orders...)
		sortNewestFirst(b.orders)
		return true
	case EventDelete:
		if i < 0 {
			return false
		}
		b.orders = append(b.orders[:i], b.orders[i+1:]...)
		return true
	}
	return false
}

func (b *Board) Orders() []models.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Order(nil), b.orders...)
}

func (b *Board) Get(id uuid.UUID) (models.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.orders[i], true
	}
	return models.Order{}, false
}

func (b *Board) indexLocked(id uuid.UUID) int {
	for i := range b.orders {
		if b.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// Follow keeps b in sync with the hub until ctx ends.
func (b *Board) Follow(ctx context.Context, h *Hub) {
	for ev := range h.Subscribe(ctx) {
		b.Apply(ev)
	}
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
