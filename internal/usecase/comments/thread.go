// Package comments indexes the flat comment table, where replies reference their parent by id.
package comments

import (
	"sort"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

// Thread is an arena of comments with id and parent indexes.
type Thread struct {
	rows     []domain.Comment
	byID     map[int64]int
	children map[int64][]int
	byItem   map[int64][]int
}

// NewThread indexes rows. Rows are kept in creation order.
func NewThread(rows []domain.Comment) *Thread {
	sorted := make([]domain.Comment, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })

	t := &Thread{
		rows:     sorted,
		byID:     make(map[int64]int, len(sorted)),
		children: make(map[int64][]int),
		byItem:   make(map[int64][]int),
	}
	for i, c := range sorted {
		t.byID[c.ID] = i
		t.byItem[c.ItemID] = append(t.byItem[c.ItemID], i)
		if c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], i)
		}
	}
	return t
}

// FindByID returns the comment with id.
func (t *Thread) FindByID(id int64) (domain.Comment, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return domain.Comment{}, false
	}
	return t.rows[idx], true
}

// Children returns direct replies to id.
func (t *Thread) Children(id int64) []domain.Comment {
	return t.collect(t.children[id])
}

// Roots returns the top-level comments of an item. A reply whose parent is missing
// counts as top-level.
func (t *Thread) Roots(itemID int64) []domain.Comment {
	var idxs []int
	for _, idx := range t.byItem[itemID] {
		c := t.rows[idx]
		if c.ParentID == nil {
			idxs = append(idxs, idx)
			continue
		}
		if _, ok := t.byID[*c.ParentID]; !ok {
			idxs = append(idxs, idx)
		}
	}
	return t.collect(idxs)
}

// CountDescendants counts all replies below id at any depth. It walks iteratively
// and visits each comment once, so cycles in bad data terminate.
func (t *Thread) CountDescendants(id int64) int {
	visited := map[int64]struct{}{id: {}}
	stack := append([]int(nil), t.children[id]...)
	count := 0
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := t.rows[idx]
		if _, seen := visited[c.ID]; seen {
			continue
		}
		visited[c.ID] = struct{}{}
		count++
		stack = append(stack, t.children[c.ID]...)
	}
	return count
}

// CountForItem counts every comment of an item, nested replies included.
func (t *Thread) CountForItem(itemID int64) int {
	return len(t.byItem[itemID])
}

func (t *Thread) collect(idxs []int) []domain.Comment {
	out := make([]domain.Comment, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, t.rows[idx])
	}
	return out
}
