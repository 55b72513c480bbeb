package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

func itemIDs(items []models.MenuItem) []uint {
	out := make([]uint, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func sampleItems() []models.MenuItem {
	return []models.MenuItem{
		{ID: 10, Name: "Adana kebab", Description: "Spicy minced lamb", CategoryID: 4, Price: decimal.NewFromInt(189), IsSpicy: true, IsPopular: true, IsAvailable: true, Calories: ptr(820), PreparationTime: ptr(20)},
		{ID: 11, Name: "Burek", Description: "Cheese pastry", CategoryID: 2, Price: decimal.NewFromInt(95), IsVegetarian: true, IsAvailable: true, Calories: ptr(540)},
		{ID: 12, Name: "Cevapi", Description: "Grilled sausages", CategoryID: 3, Price: decimal.NewFromInt(169), IsPopular: true, IsAvailable: true, PreparationTime: ptr(15)},
		{ID: 13, Name: "Pljeskavica", Description: "Balkan burger", CategoryID: 4, Price: decimal.NewFromInt(179), IsAvailable: false},
		{ID: 14, Name: "Ayran", Description: "Yoghurt drink", CategoryID: 5, Price: decimal.NewFromInt(35), IsVegetarian: true, IsAvailable: true, Calories: ptr(90), PreparationTime: ptr(1)},
	}
}

func TestFilter_CategorySubtree(t *testing.T) {
	tr := sampleTree()
	items := sampleItems()

	assert.Equal(t, []uint{10, 11, 12, 13}, itemIDs(Filter{Scope: ScopeCategory(1)}.Apply(tr, items)))
	assert.Equal(t, []uint{10, 11, 13}, itemIDs(Filter{Scope: ScopeCategory(2)}.Apply(tr, items)))
	assert.Equal(t, []uint{12}, itemIDs(Filter{Scope: ScopeCategory(3)}.Apply(tr, items)))
	assert.Empty(t, Filter{Scope: ScopeCategory(999)}.Apply(tr, items))
}

func TestFilter_SpecialTagNeverLeaks(t *testing.T) {
	tr := sampleTree()
	items := sampleItems()

	for _, f := range []Filter{
		{Scope: ScopeSpecial(TagVegetarian)},
		{Scope: Scope{CategoryID: 2, Special: TagVegetarian}},
		{Scope: ScopeSpecial(TagVegetarian), Query: "a"},
	} {
		got := f.Apply(tr, items)
		require.NotEmpty(t, got)
		for _, it := range got {
			assert.True(t, it.IsVegetarian, "item %d leaked into vegetarian scope", it.ID)
		}
	}

	assert.Equal(t, []uint{10, 12}, itemIDs(Filter{Scope: ScopeSpecial(TagPopular)}.Apply(tr, items)))
	assert.Equal(t, []uint{10}, itemIDs(Filter{Scope: ScopeSpecial(TagSpicy)}.Apply(tr, items)))
}

func TestFilter_NumericLimits(t *testing.T) {
	tr := sampleTree()
	items := sampleItems()

	got := Filter{MaxCalories: ptr(600)}.Apply(tr, items)
	assert.Equal(t, []uint{11, 12, 13, 14}, itemIDs(got))

	got = Filter{MaxCalories: ptr(600), ExcludeUndeclared: true}.Apply(tr, items)
	assert.Equal(t, []uint{11, 14}, itemIDs(got))

	got = Filter{MaxPrepMinutes: ptr(15)}.Apply(tr, items)
	assert.Equal(t, []uint{11, 12, 13, 14}, itemIDs(got))

	got = Filter{MaxPrepMinutes: ptr(15), MaxCalories: ptr(100), ExcludeUndeclared: true}.Apply(tr, items)
	assert.Equal(t, []uint{14}, itemIDs(got))
}

func TestFilter_QueryAndAvailability(t *testing.T) {
	tr := sampleTree()
	items := sampleItems()

	assert.Equal(t, []uint{10}, itemIDs(Filter{Query: "  LAMB "}.Apply(tr, items)))
	assert.Equal(t, []uint{13}, itemIDs(Filter{Query: "burger"}.Apply(tr, items)))
	assert.Empty(t, Filter{Query: "burger", AvailableOnly: true}.Apply(tr, items))
}

func TestFilter_NoDuplicates(t *testing.T) {
	items := sampleItems()
	items = append(items, items[0])

	got := Filter{}.Apply(sampleTree(), items)
	assert.Len(t, got, 5)
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
		err  bool
	}{
		{"", Scope{}, false},
		{"all", Scope{}, false},
		{"Vegetarian", ScopeSpecial(TagVegetarian), false},
		{"12", ScopeCategory(12), false},
		{"0", Scope{}, true},
		{"soup", Scope{}, true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
