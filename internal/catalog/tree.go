// Package catalog holds the in-memory menu model: the category tree, the
// visible-item filter and the admin snapshot with staged edits.
package catalog

import (
	"sort"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

type node struct {
	cat      models.Category
	parent   int // -1 for roots and orphans
	children []int
}

// Tree is an immutable parent/child index over a flat category list.
// Build a new one on every data refresh.
type Tree struct {
	nodes []node
	index map[uint]int
	roots []int
}

func NewTree(categories []models.Category) *Tree {
	t := &Tree{
		nodes: make([]node, 0, len(categories)),
		index: make(map[uint]int, len(categories)),
	}
	for _, c := range categories {
		if _, dup := t.index[c.ID]; dup {
			continue
		}
		t.index[c.ID] = len(t.nodes)
		t.nodes = append(t.nodes, node{cat: c, parent: -1})
	}

	for i := range t.nodes {
		p := t.nodes[i].cat.ParentID
		if p == nil {
			t.roots = append(t.roots, i)
			continue
		}
		pi, ok := t.index[*p]
		if !ok || pi == i {
			// unknown or self parent: keep it reachable as a root
			t.roots = append(t.roots, i)
			continue
		}
		t.nodes[i].parent = pi
		t.nodes[pi].children = append(t.nodes[pi].children, i)
	}

	t.sortIdx(t.roots)
	for i := range t.nodes {
		t.sortIdx(t.nodes[i].children)
	}
	return t
}

func (t *Tree) sortIdx(idx []int) {
	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := t.nodes[idx[a]].cat, t.nodes[idx[b]].cat
		if ca.DisplayOrder != cb.DisplayOrder {
			return ca.DisplayOrder < cb.DisplayOrder
		}
		return ca.ID < cb.ID
	})
}

func (t *Tree) collect(idx []int) []models.Category {
	out := make([]models.Category, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.nodes[i].cat)
	}
	return out
}

func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Get(id uint) (models.Category, bool) {
	i, ok := t.index[id]
	if !ok {
		return models.Category{}, false
	}
	return t.nodes[i].cat, true
}

// Roots returns the top-level categories ordered by display order.
func (t *Tree) Roots() []models.Category {
	return t.collect(t.roots)
}

// Children returns the direct children of id ordered by display order.
func (t *Tree) Children(id uint) []models.Category {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	return t.collect(t.nodes[i].children)
}

// DescendantIDs returns id followed by every category below it. Unknown ids
// yield nil.
func (t *Tree) DescendantIDs(id uint) []uint {
	start, ok := t.index[id]
	if !ok {
		return nil
	}
	seen := make(map[int]bool)
	var out []uint
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, t.nodes[i].cat.ID)
		ch := t.nodes[i].children
		for k := len(ch) - 1; k >= 0; k-- {
			stack = append(stack, ch[k])
		}
	}
	return out
}

// Contains reports whether candidate lies in the subtree rooted at id.
func (t *Tree) Contains(id, candidate uint) bool {
	for _, d := range t.DescendantIDs(id) {
		if d == candidate {
			return true
		}
	}
	return false
}

// Depth counts ancestor hops from id to a root. A cycle ends the walk at the
// first repeated node.
func (t *Tree) Depth(id uint) int {
	i, ok := t.index[id]
	if !ok {
		return 0
	}
	seen := map[int]bool{i: true}
	depth := 0
	for p := t.nodes[i].parent; p >= 0; p = t.nodes[p].parent {
		if seen[p] {
			break
		}
		seen[p] = true
		depth++
	}
	return depth
}

// Path returns the breadcrumb from the root down to id.
func (t *Tree) Path(id uint) []models.Category {
	i, ok := t.index[id]
	if !ok {
		return nil
	}
	seen := map[int]bool{}
	var rev []int
	for ; i >= 0 && !seen[i]; i = t.nodes[i].parent {
		seen[i] = true
		rev = append(rev, i)
	}
	out := make([]models.Category, 0, len(rev))
	for k := len(rev) - 1; k >= 0; k-- {
		out = append(out, t.nodes[rev[k]].cat)
	}
	return out
}

// WouldCycle reports whether re-parenting id under parent would make id its
// own ancestor.
func (t *Tree) WouldCycle(id, parent uint) bool {
	if id == parent {
		return true
	}
	return t.Contains(id, parent)
}

// Expansion is the caller-owned set of expanded category ids.
type Expansion struct {
	open map[uint]struct{}
}

func NewExpansion(ids ...uint) *Expansion {
	e := &Expansion{open: make(map[uint]struct{}, len(ids))}
	for _, id := range ids {
		e.open[id] = struct{}{}
	}
	return e
}

// Toggle flips id and reports its new state.
func (e *Expansion) Toggle(id uint) bool {
	if e.open == nil {
		e.open = make(map[uint]struct{})
	}
	if _, ok := e.open[id]; ok {
		delete(e.open, id)
		return false
	}
	e.open[id] = struct{}{}
	return true
}

func (e *Expansion) IsExpanded(id uint) bool {
	_, ok := e.open[id]
	return ok
}

func (e *Expansion) Expanded() []uint {
	out := make([]uint, 0, len(e.open))
	for id := range e.open {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
