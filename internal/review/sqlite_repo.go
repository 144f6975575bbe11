package review

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var sqliteMigrations embed.FS

const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteRepo is the embedded corpus store used for local runs and tests.
type SQLiteRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenSQLite opens (and creates) the database at dsn and applies the
// embedded schema. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, dsn string, timeout time.Duration) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepo{db: db, timeout: timeout}
	if err := repo.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepo) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(sqliteMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, r.db, fsys)
	if err != nil {
		return fmt.Errorf("init sqlite migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply sqlite migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) Close() error { return r.db.Close() }

func (r *SQLiteRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const sqliteItemColumns = `id, reviewer, name, creator, service, review_url, resolvable, metadata, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row rowScanner) (Item, error) {
	var (
		it         Item
		resolvable sql.NullBool
		metadata   string
		createdAt  string
	)
	if err := row.Scan(&it.ID, &it.Reviewer, &it.Name, &it.Creator, &it.Service, &it.ReviewURL, &resolvable, &metadata, &createdAt); err != nil {
		return Item{}, err
	}
	if resolvable.Valid {
		v := resolvable.Bool
		it.Resolvable = &v
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &it.Metadata); err != nil {
			return Item{}, fmt.Errorf("decode metadata for review %d: %w", it.ID, err)
		}
	}
	it.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	return it, nil
}

func (r *SQLiteRepo) RandomItem(ctx context.Context, reviewer string, skip []int64) (Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	clauses := []string{"(? = '' OR reviewer = ?)"}
	args := []any{reviewer, reviewer}
	if len(skip) > 0 {
		clauses = append(clauses, "id NOT IN (?"+strings.Repeat(",?", len(skip)-1)+")")
		for _, id := range skip {
			args = append(args, id)
		}
	}
	query := `SELECT ` + sqliteItemColumns + ` FROM reviews WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY (COALESCE(resolvable, 1) = 0), random() LIMIT 1`

	it, err := scanSQLiteItem(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrEmpty
	}
	return it, err
}

func (r *SQLiteRepo) MarkResolvability(ctx context.Context, id int64, resolvable bool) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET resolvable = ?, checked_at = CURRENT_TIMESTAMP WHERE id = ?`, resolvable, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEmpty
	}
	return nil
}

func (r *SQLiteRepo) ListForAudit(ctx context.Context, all bool, afterID int64, limit int) ([]Item, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteItemColumns+` FROM reviews WHERE id > ? AND (? OR resolvable IS NULL) ORDER BY id LIMIT ?`,
		afterID, all, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SQLiteRepo) Upsert(ctx context.Context, item *Item) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if item.Metadata == nil {
		item.Metadata = map[string]string{}
	}
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}
	if item.Service == "" {
		item.Service = "spotify"
	}

	var createdAt string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (reviewer, name, creator, service, review_url, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (reviewer, creator, name) DO UPDATE SET
			review_url = excluded.review_url,
			metadata = excluded.metadata
		RETURNING id, created_at`,
		item.Reviewer, item.Name, item.Creator, item.Service, item.ReviewURL, string(metadata)).
		Scan(&item.ID, &createdAt)
	if err != nil {
		return err
	}
	item.CreatedAt, _ = time.Parse(sqliteTimeLayout, createdAt)
	return nil
}

func (r *SQLiteRepo) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepo) CreateRun(ctx context.Context, run *AuditRun) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_runs (id, started_at, status, scope) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Status, run.Scope)
	return err
}

func (r *SQLiteRepo) UpdateRun(ctx context.Context, run *AuditRun) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var finished any
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE audit_runs SET
			finished_at = ?,
			status = ?,
			rows_checked = ?,
			rows_resolvable = ?,
			rows_unresolvable = ?,
			rows_errored = ?,
			error = ?
		WHERE id = ?`,
		finished, run.Status, run.RowsChecked, run.RowsResolvable, run.RowsUnresolvable, run.RowsErrored, run.Error, run.ID)
	return err
}
