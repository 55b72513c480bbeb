package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

type SpecialTag string

const (
	TagPopular    SpecialTag = "popular"
	TagVegetarian SpecialTag = "vegetarian"
	TagSpicy      SpecialTag = "spicy"
)

func (t SpecialTag) matches(it models.MenuItem) bool {
	switch t {
	case TagPopular:
		return it.IsPopular
	case TagVegetarian:
		return it.IsVegetarian
	case TagSpicy:
		return it.IsSpicy
	}
	return false
}

// Scope selects either a category subtree or a special tag, never both.
// The zero Scope selects everything.
type Scope struct {
	CategoryID uint
	Special    SpecialTag
}

func ScopeCategory(id uint) Scope      { return Scope{CategoryID: id} }
func ScopeSpecial(tag SpecialTag) Scope { return Scope{Special: tag} }

func (s Scope) IsAll() bool { return s.CategoryID == 0 && s.Special == "" }

func (s Scope) String() string {
	switch {
	case s.Special != "":
		return string(s.Special)
	case s.CategoryID != 0:
		return strconv.FormatUint(uint64(s.CategoryID), 10)
	}
	return "all"
}

// ParseScope accepts "", "all", a special tag or a category id.
func ParseScope(raw string) (Scope, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", "all":
		return Scope{}, nil
	case string(TagPopular), string(TagVegetarian), string(TagSpicy):
		return ScopeSpecial(SpecialTag(raw)), nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return Scope{}, fmt.Errorf("invalid scope %q", raw)
	}
	return ScopeCategory(uint(id)), nil
}

type Filter struct {
	Scope          Scope
	MaxCalories    *int
	MaxPrepMinutes *int
	Query          string

	// ExcludeUndeclared drops items that do not declare calories or prep
	// time while the matching limit is set.
	ExcludeUndeclared bool
	AvailableOnly     bool
}

// Apply narrows items to the visible list. Input order is preserved.
func (f Filter) Apply(tree *Tree, items []models.MenuItem) []models.MenuItem {
	var inScope map[uint]bool
	if f.Scope.Special == "" && f.Scope.CategoryID != 0 {
		inScope = make(map[uint]bool)
		if tree != nil {
			for _, id := range tree.DescendantIDs(f.Scope.CategoryID) {
				inScope[id] = true
			}
		}
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]models.MenuItem, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		switch {
		case f.Scope.Special != "":
			if !f.Scope.Special.matches(it) {
				continue
			}
		case inScope != nil:
			if !inScope[it.CategoryID] {
				continue
			}
		}
		if !withinLimit(it.Calories, f.MaxCalories, f.ExcludeUndeclared) {
			continue
		}
		if !withinLimit(it.PreparationTime, f.MaxPrepMinutes, f.ExcludeUndeclared) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(it.Name), q) &&
			!strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		if f.AvailableOnly && !it.IsAvailable {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out
}

func withinLimit(v, limit *int, excludeUndeclared bool) bool {
	if limit == nil {
		return true
	}
	if v == nil {
		return !excludeUndeclared
	}
	return *v <= *limit
}
