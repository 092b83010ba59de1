// Package guard wraps read repositories with circuit breakers so a failing store
// fails fast instead of stalling feed and suggestion requests.
package guard

import (
	"context"
	"time"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/breaker"
)

// Content guards a ContentRepo.
type Content struct {
	next domain.ContentRepo
	b    *breaker.Breaker
}

var _ domain.ContentRepo = (*Content)(nil)

// NewContent wraps next with b.
func NewContent(next domain.ContentRepo, b *breaker.Breaker) *Content {
	return &Content{next: next, b: b}
}

func (c *Content) ListByAuthors(ctx context.Context, kind domain.ContentKind, authorIDs []int64, since time.Time, limit int) ([]domain.ContentItem, error) {
	return breaker.Do(c.b, func() ([]domain.ContentItem, error) {
		return c.next.ListByAuthors(ctx, kind, authorIDs, since, limit)
	})
}

func (c *Content) ListRecent(ctx context.Context, kind domain.ContentKind, since time.Time, excludeAuthorID int64, limit int) ([]domain.ContentItem, error) {
	return breaker.Do(c.b, func() ([]domain.ContentItem, error) {
		return c.next.ListRecent(ctx, kind, since, excludeAuthorID, limit)
	})
}

func (c *Content) ListByCity(ctx context.Context, kind domain.ContentKind, city string, limit int) ([]domain.ContentItem, error) {
	return breaker.Do(c.b, func() ([]domain.ContentItem, error) {
		return c.next.ListByCity(ctx, kind, city, limit)
	})
}

func (c *Content) ListTrending(ctx context.Context, kind domain.ContentKind, since time.Time, limit int) ([]domain.ContentItem, error) {
	return breaker.Do(c.b, func() ([]domain.ContentItem, error) {
		return c.next.ListTrending(ctx, kind, since, limit)
	})
}

// Follows guards a FollowRepo.
type Follows struct {
	next domain.FollowRepo
	b    *breaker.Breaker
}

var _ domain.FollowRepo = (*Follows)(nil)

// NewFollows wraps next with b.
func NewFollows(next domain.FollowRepo, b *breaker.Breaker) *Follows {
	return &Follows{next: next, b: b}
}

func (f *Follows) ListFollowing(ctx context.Context, userID int64) ([]int64, error) {
	return breaker.Do(f.b, func() ([]int64, error) {
		return f.next.ListFollowing(ctx, userID)
	})
}

// Profiles guards a ProfileRepo. Configure its breaker with domain.ErrProfileNotFound as expected.
type Profiles struct {
	next domain.ProfileRepo
	b    *breaker.Breaker
}

var _ domain.ProfileRepo = (*Profiles)(nil)

// NewProfiles wraps next with b.
func NewProfiles(next domain.ProfileRepo, b *breaker.Breaker) *Profiles {
	return &Profiles{next: next, b: b}
}

func (p *Profiles) GetProfile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	return breaker.Do(p.b, func() (domain.UserProfile, error) {
		return p.next.GetProfile(ctx, userID)
	})
}

func (p *Profiles) GetProfiles(ctx context.Context, userIDs []int64) ([]domain.UserProfile, error) {
	return breaker.Do(p.b, func() ([]domain.UserProfile, error) {
		return p.next.GetProfiles(ctx, userIDs)
	})
}

func (p *Profiles) ListPopular(ctx context.Context, q domain.PopularQuery) ([]domain.UserProfile, error) {
	return breaker.Do(p.b, func() ([]domain.UserProfile, error) {
		return p.next.ListPopular(ctx, q)
	})
}

// Stories guards a StoryRepo.
type Stories struct {
	next domain.StoryRepo
	b    *breaker.Breaker
}

var _ domain.StoryRepo = (*Stories)(nil)

// NewStories wraps next with b.
func NewStories(next domain.StoryRepo, b *breaker.Breaker) *Stories {
	return &Stories{next: next, b: b}
}

func (s *Stories) ListActiveStories(ctx context.Context, authorIDs []int64, since time.Time) ([]domain.Story, error) {
	return breaker.Do(s.b, func() ([]domain.Story, error) {
		return s.next.ListActiveStories(ctx, authorIDs, since)
	})
}

func (s *Stories) ListViewedStoryIDs(ctx context.Context, viewerID int64) ([]int64, error) {
	return breaker.Do(s.b, func() ([]int64, error) {
		return s.next.ListViewedStoryIDs(ctx, viewerID)
	})
}

func (s *Stories) AddStoryView(ctx context.Context, viewerID, storyID int64) error {
	return breaker.Run(s.b, func() error {
		return s.next.AddStoryView(ctx, viewerID, storyID)
	})
}
