package review

import (
	"context"
)

// Repository is the corpus store.
type Repository interface {
	// RandomItem picks a uniformly random row for reviewer (any reviewer
	// when empty), never one of skip. Rows known to be unresolvable are
	// only returned when nothing else is left.
	RandomItem(ctx context.Context, reviewer string, skip []int64) (Item, error)
	MarkResolvability(ctx context.Context, id int64, resolvable bool) error
	// ListForAudit pages rows by id after afterID. Unless all is set only
	// rows never checked are listed.
	ListForAudit(ctx context.Context, all bool, afterID int64, limit int) ([]Item, error)
	Upsert(ctx context.Context, item *Item) error
	Ping(ctx context.Context) error
}

// RunRepository stores audit run bookkeeping.
type RunRepository interface {
	CreateRun(ctx context.Context, run *AuditRun) error
	UpdateRun(ctx context.Context, run *AuditRun) error
}
