package comments

import (
	"testing"
	"time"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
)

func ptr(v int64) *int64 { return &v }

func sampleThread() *Thread {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewThread([]domain.Comment{
		{ID: 1, ItemID: 100, CreatedAt: base},
		{ID: 2, ItemID: 100, ParentID: ptr(1), CreatedAt: base.Add(time.Minute)},
		{ID: 3, ItemID: 100, ParentID: ptr(2), CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, ItemID: 100, ParentID: ptr(1), CreatedAt: base.Add(3 * time.Minute)},
		{ID: 5, ItemID: 100, CreatedAt: base.Add(4 * time.Minute)},
		{ID: 6, ItemID: 200, CreatedAt: base},
		{ID: 7, ItemID: 100, ParentID: ptr(999), CreatedAt: base.Add(5 * time.Minute)},
	})
}

func TestFindByID(t *testing.T) {
	th := sampleThread()
	c, ok := th.FindByID(3)
	if !ok || c.ParentID == nil || *c.ParentID != 2 {
		t.Fatalf("unexpected comment %+v, ok=%v", c, ok)
	}
	if _, ok := th.FindByID(42); ok {
		t.Fatalf("expected missing comment")
	}
}

func TestCountDescendants(t *testing.T) {
	th := sampleThread()
	tests := map[int64]int{1: 3, 2: 1, 3: 0, 5: 0, 42: 0}
	for id, want := range tests {
		if got := th.CountDescendants(id); got != want {
			t.Fatalf("comment %d: expected %d descendants, got %d", id, want, got)
		}
	}
}

func TestCountDescendantsSurvivesCycles(t *testing.T) {
	th := NewThread([]domain.Comment{
		{ID: 1, ItemID: 1, ParentID: ptr(2)},
		{ID: 2, ItemID: 1, ParentID: ptr(1)},
	})
	if got := th.CountDescendants(1); got != 1 {
		t.Fatalf("expected 1 descendant in a two-node cycle, got %d", got)
	}
}

func TestCountForItemIncludesReplies(t *testing.T) {
	th := sampleThread()
	if got := th.CountForItem(100); got != 6 {
		t.Fatalf("expected 6 comments, got %d", got)
	}
	if got := th.CountForItem(300); got != 0 {
		t.Fatalf("expected 0 comments, got %d", got)
	}
}

func TestRootsAndChildren(t *testing.T) {
	th := sampleThread()
	roots := th.Roots(100)
	if len(roots) != 3 || roots[0].ID != 1 || roots[1].ID != 5 || roots[2].ID != 7 {
		t.Fatalf("unexpected roots %+v", roots)
	}
	children := th.Children(1)
	if len(children) != 2 || children[0].ID != 2 || children[1].ID != 4 {
		t.Fatalf("unexpected children %+v", children)
	}
}
