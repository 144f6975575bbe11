package review

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const pgItemColumns = `id, reviewer, name, creator, service, review_url, resolvable, metadata, created_at`

func scanPgItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Reviewer, &it.Name, &it.Creator, &it.Service, &it.ReviewURL, &it.Resolvable, &it.Metadata, &it.CreatedAt)
	return it, err
}

func (r *PostgresRepo) RandomItem(ctx context.Context, reviewer string, skip []int64) (Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if skip == nil {
		skip = []int64{}
	}
	const sql = `
		SELECT ` + pgItemColumns + `
		FROM reviews
		WHERE ($1 = '' OR reviewer = $1)
		  AND NOT (id = ANY($2))
		ORDER BY (resolvable IS FALSE), random()
		LIMIT 1`

	it, err := scanPgItem(r.db.QueryRow(ctx, sql, reviewer, skip))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, ErrEmpty
	}
	return it, err
}

func (r *PostgresRepo) MarkResolvability(ctx context.Context, id int64, resolvable bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `UPDATE reviews SET resolvable = $1, checked_at = now() WHERE id = $2`
	tag, err := r.db.Exec(ctx, sql, resolvable, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmpty
	}
	return nil
}

func (r *PostgresRepo) ListForAudit(ctx context.Context, all bool, afterID int64, limit int) ([]Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		SELECT ` + pgItemColumns + `
		FROM reviews
		WHERE id > $1 AND ($2 OR resolvable IS NULL)
		ORDER BY id
		LIMIT $3`

	rows, err := r.db.Query(ctx, sql, afterID, all, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanPgItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepo) Upsert(ctx context.Context, item *Item) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if item.Metadata == nil {
		item.Metadata = map[string]string{}
	}
	const sql = `
		INSERT INTO reviews (reviewer, name, creator, service, review_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reviewer, creator, name) DO UPDATE SET
			review_url = EXCLUDED.review_url,
			metadata = EXCLUDED.metadata
		RETURNING id, created_at`

	return r.db.QueryRow(ctx, sql, item.Reviewer, item.Name, item.Creator, item.Service, item.ReviewURL, item.Metadata).
		Scan(&item.ID, &item.CreatedAt)
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.Ping(ctx)
}

func (r *PostgresRepo) CreateRun(ctx context.Context, run *AuditRun) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		INSERT INTO audit_runs (id, started_at, status, scope)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.Exec(ctx, sql, run.ID, run.StartedAt, run.Status, run.Scope)
	return err
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *AuditRun) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		UPDATE audit_runs SET
			finished_at = $1,
			status = $2,
			rows_checked = $3,
			rows_resolvable = $4,
			rows_unresolvable = $5,
			rows_errored = $6,
			error = $7
		WHERE id = $8`
	_, err := r.db.Exec(ctx, sql, run.FinishedAt, run.Status, run.RowsChecked, run.RowsResolvable,
		run.RowsUnresolvable, run.RowsErrored, run.Error, run.ID)
	return err
}
