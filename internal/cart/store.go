// Package cart is the per-session shopping cart: an ordered list of line
// items with totals derived on every read.
package cart

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidOption   = errors.New("invalid option")
	ErrLineNotFound    = errors.New("line item not found")
)

type SpicyLevel string

const (
	SpicyRegular SpicyLevel = "regular"
	SpicyMedium  SpicyLevel = "medium"
	SpicyHot     SpicyLevel = "hot"
)

type KebabSauceLevel string

const (
	SauceRegular KebabSauceLevel = "regular"
	SauceExtra   KebabSauceLevel = "extra"
)

// Options are the per-line choices made when adding an item.
type Options struct {
	SelectedOptions []string         `json:"selected_options,omitempty"`
	SpicyLevel      *SpicyLevel      `json:"spicy_level,omitempty"`
	KebabSauceLevel *KebabSauceLevel `json:"kebab_sauce_level,omitempty"`
}

func (o Options) Validate() error {
	if o.SpicyLevel != nil {
		switch *o.SpicyLevel {
		case SpicyRegular, SpicyMedium, SpicyHot:
		default:
			return fmt.Errorf("spicy level %q: %w", *o.SpicyLevel, ErrInvalidOption)
		}
	}
	if o.KebabSauceLevel != nil {
		switch *o.KebabSauceLevel {
		case SauceRegular, SauceExtra:
		default:
			return fmt.Errorf("kebab sauce level %q: %w", *o.KebabSauceLevel, ErrInvalidOption)
		}
	}
	return nil
}

func (o Options) clone() Options {
	out := Options{}
	if o.SelectedOptions != nil {
		out.SelectedOptions = append([]string(nil), o.SelectedOptions...)
	}
	if o.SpicyLevel != nil {
		v := *o.SpicyLevel
		out.SpicyLevel = &v
	}
	if o.KebabSauceLevel != nil {
		v := *o.KebabSauceLevel
		out.KebabSauceLevel = &v
	}
	return out
}

// Key identifies an item+options combination. Two lines with equal keys
// are the same purchase intent.
func (o Options) Key() string {
	var b strings.Builder
	b.WriteString(strings.Join(o.SelectedOptions, ","))
	b.WriteByte('|')
	if o.SpicyLevel != nil {
		b.WriteString(string(*o.SpicyLevel))
	}
	b.WriteByte('|')
	if o.KebabSauceLevel != nil {
		b.WriteString(string(*o.KebabSauceLevel))
	}
	return b.String()
}

// ItemSnapshot is the part of a menu item copied into the cart.
type ItemSnapshot struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func SnapshotOf(it models.MenuItem) ItemSnapshot {
	return ItemSnapshot{ID: it.ID, Name: it.Name, Description: it.Description, Price: it.Price}
}

type LineItem struct {
	LineID      uuid.UUID       `json:"line_id"`
	ItemID      uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Options
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l LineItem) clone() LineItem {
	l.Options = l.Options.clone()
	return l
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeRemoved  ChangeKind = "removed"
	ChangeQuantity ChangeKind = "quantity"
	ChangeOptions  ChangeKind = "options"
	ChangeCleared  ChangeKind = "cleared"
)

// Change describes one mutation. Line is the zero value for ChangeCleared.
type Change struct {
	Kind ChangeKind
	Line LineItem
}

type Listener func(Change)

// Store is one session's cart. All methods are safe for concurrent use;
// listeners run after the lock is released, in mutation order per caller.
type Store struct {
	mu        sync.Mutex
	lines     []LineItem
	listeners map[int]Listener
	nextSub   int
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// Subscribe registers fn for every subsequent mutation.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = make(map[int]Listener)
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotListenersLocked() []Listener {
	if len(s.listeners) == 0 {
		return nil
	}
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

func notify(ls []Listener, ch Change) {
	for _, fn := range ls {
		fn(ch)
	}
}

// AddItem appends a new line with quantity 1. It never merges with an
// existing line, even one with the same item and options.
func (s *Store) AddItem(item ItemSnapshot, opts Options) (LineItem, error) {
	if err := opts.Validate(); err != nil {
		return LineItem{}, err
	}
	line := LineItem{
		LineID:      uuid.New(),
		ItemID:      item.ID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Quantity:    1,
		Options:     opts.clone(),
	}

	s.mu.Lock()
	s.lines = append(s.lines, line)
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()

	notify(ls, Change{Kind: ChangeAdded, Line: line.clone()})
	return line.clone(), nil
}

// RemoveItem deletes the line; unknown ids are a no-op.
func (s *Store) RemoveItem(lineID uuid.UUID) {
	s.mu.Lock()
	i := s.indexLocked(lineID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()

	notify(ls, Change{Kind: ChangeRemoved, Line: removed})
}

// UpdateQuantity sets the quantity of a line. Values <= 0 behave exactly
// like RemoveItem.
func (s *Store) UpdateQuantity(lineID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		s.RemoveItem(lineID)
		return nil
	}

	s.mu.Lock()
	i := s.indexLocked(lineID)
	if i < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	s.lines[i].Quantity = quantity
	line := s.lines[i].clone()
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()

	notify(ls, Change{Kind: ChangeQuantity, Line: line})
	return nil
}

// SetOptions replaces a line's options in place, keeping its position and
// quantity.
func (s *Store) SetOptions(lineID uuid.UUID, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	i := s.indexLocked(lineID)
	if i < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	s.lines[i].Options = opts.clone()
	line := s.lines[i].clone()
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()

	notify(ls, Change{Kind: ChangeOptions, Line: line})
	return nil
}

// RemoveLines drops every listed line under one lock and reports how many
// were present. Lines added meanwhile are kept.
func (s *Store) RemoveLines(lineIDs []uuid.UUID) int {
	if len(lineIDs) == 0 {
		return 0
	}
	drop := make(map[uuid.UUID]struct{}, len(lineIDs))
	for _, id := range lineIDs {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	var removed []LineItem
	kept := s.lines[:0]
	for _, l := range s.lines {
		if _, ok := drop[l.LineID]; ok {
			removed = append(removed, l)
			continue
		}
		kept = append(kept, l)
	}
	for i := len(kept); i < len(s.lines); i++ {
		s.lines[i] = LineItem{}
	}
	s.lines = kept
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()

	for _, l := range removed {
		notify(ls, Change{Kind: ChangeRemoved, Line: l})
	}
	return len(removed)
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	ls := s.snapshotListenersLocked()
	s.mu.Unlock()

	notify(ls, Change{Kind: ChangeCleared})
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LineItem, 0, len(s.lines))
	for _, l := range s.lines {
		out = append(out, l.clone())
	}
	return out
}

func (s *Store) Line(lineID uuid.UUID) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(lineID); i >= 0 {
		return s.lines[i].clone(), true
	}
	return LineItem{}, false
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) indexLocked(lineID uuid.UUID) int {
	for i := range s.lines {
		if s.lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}

// ParseQuantity decodes a quantity coming from a request. Non-integers fail
// with ErrInvalidQuantity; zero and negatives are valid and mean removal.
func ParseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, ErrInvalidQuantity)
	}
	return q, nil
}
