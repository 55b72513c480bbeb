package catalog

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

var ErrSettled = errors.New("pending change already settled")

type Op int

const (
	OpUpsertCategory Op = iota + 1
	OpDeleteCategory
	OpUpsertItem
	OpDeleteItem
)

// Change is one local edit. Upserts with ID 0 are creates.
type Change struct {
	Op       Op
	Category models.Category
	Item     models.MenuItem
	ID       uint
}

// layer is one staged edit on top of an entry's stored value. Layers settle
// in any order; committed layers fold into the base only once every layer
// below them has settled.
type layer[T any] struct {
	stage     uint64
	val       T
	deleted   bool
	committed bool
}

type entry[T any] struct {
	base   T
	stored bool // false while the entry is an unconfirmed create
	layers []layer[T]
}

func (e *entry[T]) current() (T, bool) {
	if n := len(e.layers); n > 0 {
		top := e.layers[n-1]
		return top.val, !top.deleted
	}
	return e.base, e.stored
}

func (e *entry[T]) push(stage uint64, val T, deleted bool) {
	e.layers = append(e.layers, layer[T]{stage: stage, val: val, deleted: deleted})
}

// settle commits or drops the layer staged as stage. stored replaces the
// staged value on commit when non-nil.
func (e *entry[T]) settle(stage uint64, commit bool, stored *T) {
	for i := range e.layers {
		if e.layers[i].stage != stage {
			continue
		}
		if !commit {
			e.layers = append(e.layers[:i], e.layers[i+1:]...)
			break
		}
		e.layers[i].committed = true
		if stored != nil && !e.layers[i].deleted {
			e.layers[i].val = *stored
		}
		break
	}
	for len(e.layers) > 0 && e.layers[0].committed {
		bottom := e.layers[0]
		e.base, e.stored = bottom.val, !bottom.deleted
		e.layers = e.layers[1:]
	}
}

func (e *entry[T]) alive() bool { return e.stored || len(e.layers) > 0 }

type (
	catEntry  = entry[models.Category]
	itemEntry = entry[models.MenuItem]
)

// Snapshot is the cached catalog. Reads see staged edits immediately; each
// staged edit is later committed with the stored record or rolled back.
type Snapshot struct {
	mu    sync.RWMutex
	cats  []*catEntry
	items []*itemEntry
	seq   uint64
	tree  *Tree
}

func NewSnapshot() *Snapshot { return &Snapshot{} }

// Replace swaps the whole catalog for freshly loaded data. Outstanding
// pending changes become no-ops.
func (s *Snapshot) Replace(categories []models.Category, items []models.MenuItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cats = make([]*catEntry, 0, len(categories))
	for _, c := range categories {
		s.cats = append(s.cats, &catEntry{base: c, stored: true})
	}
	s.items = make([]*itemEntry, 0, len(items))
	for _, it := range items {
		s.items = append(s.items, &itemEntry{base: it, stored: true})
	}
	s.tree = nil
}

// Categories returns visible categories ordered by display order.
func (s *Snapshot) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoriesLocked()
}

func (s *Snapshot) categoriesLocked() []models.Category {
	out := make([]models.Category, 0, len(s.cats))
	for _, e := range s.cats {
		if c, ok := e.current(); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Items returns visible menu items ordered by name.
func (s *Snapshot) Items() []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.MenuItem, 0, len(s.items))
	for _, e := range s.items {
		if it, ok := e.current(); ok {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (s *Snapshot) Tree() *Tree {
	s.mu.RLock()
	if t := s.tree; t != nil {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		s.tree = NewTree(s.categoriesLocked())
	}
	return s.tree
}

// HasPending reports whether any staged change is still unsettled.
func (s *Snapshot) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.cats {
		if len(e.layers) > 0 {
			return true
		}
	}
	for _, e := range s.items {
		if len(e.layers) > 0 {
			return true
		}
	}
	return false
}

// Pending is a staged change awaiting the store's answer.
type Pending struct {
	s     *Snapshot
	stage uint64
	once  sync.Once
}

// Stage applies c locally and returns its handle. Deleting a category also
// hides the items it holds.
func (s *Snapshot) Stage(c Change) *Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stage := s.seq
	s.tree = nil

	switch c.Op {
	case OpUpsertCategory:
		if e := s.findCat(c.Category.ID); e != nil && c.Category.ID != 0 {
			e.push(stage, c.Category, false)
		} else {
			e := &catEntry{}
			e.push(stage, c.Category, false)
			s.cats = append(s.cats, e)
		}
	case OpDeleteCategory:
		if e := s.findCat(c.ID); e != nil {
			cur, _ := e.current()
			e.push(stage, cur, true)
		}
		for _, e := range s.items {
			if it, ok := e.current(); ok && it.CategoryID == c.ID {
				e.push(stage, it, true)
			}
		}
	case OpUpsertItem:
		if e := s.findItem(c.Item.ID); e != nil && c.Item.ID != 0 {
			e.push(stage, c.Item, false)
		} else {
			e := &itemEntry{}
			e.push(stage, c.Item, false)
			s.items = append(s.items, e)
		}
	case OpDeleteItem:
		if e := s.findItem(c.ID); e != nil {
			cur, _ := e.current()
			e.push(stage, cur, true)
		}
	}
	return &Pending{s: s, stage: stage}
}

func (s *Snapshot) findCat(id uint) *catEntry {
	for _, e := range s.cats {
		if c, ok := e.current(); ok && c.ID == id {
			return e
		}
	}
	return nil
}

func (s *Snapshot) findItem(id uint) *itemEntry {
	for _, e := range s.items {
		if it, ok := e.current(); ok && it.ID == id {
			return e
		}
	}
	return nil
}

// Commit confirms the change. For upserts stored is the record returned by
// the store (*models.Category or *models.MenuItem); deletes pass nil.
func (p *Pending) Commit(stored any) error {
	cat, _ := stored.(*models.Category)
	item, _ := stored.(*models.MenuItem)
	return p.settle(func(s *Snapshot) {
		s.cats = settleAll(s.cats, p.stage, true, cat)
		s.items = settleAll(s.items, p.stage, true, item)
	})
}

// Rollback drops the change. Edits staged on top of it on the same record
// stay visible; once none remain the record shows its last stored value.
func (p *Pending) Rollback() error {
	return p.settle(func(s *Snapshot) {
		s.cats = settleAll[models.Category](s.cats, p.stage, false, nil)
		s.items = settleAll[models.MenuItem](s.items, p.stage, false, nil)
	})
}

func settleAll[T any](entries []*entry[T], stage uint64, commit bool, stored *T) []*entry[T] {
	kept := entries[:0]
	for _, e := range entries {
		e.settle(stage, commit, stored)
		if e.alive() {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(entries); i++ {
		entries[i] = nil
	}
	return kept
}

func (p *Pending) settle(fn func(s *Snapshot)) error {
	err := ErrSettled
	p.once.Do(func() {
		p.s.mu.Lock()
		defer p.s.mu.Unlock()
		fn(p.s)
		p.s.tree = nil
		err = nil
	})
	return err
}
