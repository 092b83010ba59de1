package repo

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinesh-basnet/Naaya-sub000/internal/domain"
	"github.com/jinesh-basnet/Naaya-sub000/internal/infra/metrics"
)

// Schema creates every table the repositories read and write. It is idempotent.
//
//go:embed schema.sql
var Schema string

// Postgres implements the domain repositories on top of pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ContentRepo     = (*Postgres)(nil)
	_ domain.ScoreWriter     = (*Postgres)(nil)
	_ domain.FollowRepo      = (*Postgres)(nil)
	_ domain.ProfileRepo     = (*Postgres)(nil)
	_ domain.InteractionRepo = (*Postgres)(nil)
	_ domain.CommentRepo     = (*Postgres)(nil)
	_ domain.StoryRepo       = (*Postgres)(nil)
)

// NewPostgres creates the database adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, Schema)
	metrics.ObserveNetworkRequest("postgres", "migrate", "schema", start, err)
	return err
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// connCtxWithParent bounds a query by five seconds unless the caller already
// set a deadline, in which case that deadline wins and cancel is a no-op.
// A nil ctx falls back to a fresh background timeout.
func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

func locationFromColumns(city, district, province *string) *domain.Location {
	if city == nil && district == nil && province == nil {
		return nil
	}
	loc := &domain.Location{}
	if city != nil {
		loc.City = *city
	}
	if district != nil {
		loc.District = *district
	}
	if province != nil {
		loc.Province = *province
	}
	return loc
}
