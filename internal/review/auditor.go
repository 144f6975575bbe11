package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crateapi/internal/logging"
	"crateapi/internal/metrics"
	"crateapi/internal/platform/catalog"

	"github.com/google/uuid"
)

// ItemResolver resolves a corpus row against the catalog.
type ItemResolver interface {
	Resolve(ctx context.Context, it Item) (catalog.Item, error)
}

type AuditConfig struct {
	// All re-checks rows that already carry a verdict.
	All       bool
	BatchSize int
	// MaxRows stops the run early; zero means no limit.
	MaxRows int
}

// Auditor is the offline job that writes resolvability verdicts.
type Auditor struct {
	repo     Repository
	runs     RunRepository
	resolver ItemResolver
	cfg      AuditConfig
}

func NewAuditor(repo Repository, runs RunRepository, resolver ItemResolver, cfg AuditConfig) *Auditor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Auditor{repo: repo, runs: runs, resolver: resolver, cfg: cfg}
}

func (a *Auditor) Run(ctx context.Context) (run *AuditRun, err error) {
	run = &AuditRun{
		ID:        uuid.NewString(),
		Status:    RunStatusRunning,
		Scope:     "unchecked",
		StartedAt: time.Now(),
	}
	if a.cfg.All {
		run.Scope = "all"
	}
	if err := a.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create audit run: %w", err)
	}

	defer func() {
		now := time.Now()
		run.FinishedAt = &now
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}
		if run.Error != "" {
			run.Status = RunStatusFailed
		} else {
			run.Status = RunStatusCompleted
		}
		// The caller's context may already be cancelled; the run row must still close.
		if updateErr := a.runs.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
			logging.Error().Err(updateErr).Str("run_id", run.ID).Msg("failed to update audit run")
		}
	}()

	var afterID int64
	for {
		items, err := a.repo.ListForAudit(ctx, a.cfg.All, afterID, a.cfg.BatchSize)
		if err != nil {
			return run, fmt.Errorf("list rows after %d: %w", afterID, err)
		}
		if len(items) == 0 {
			break
		}
		for _, it := range items {
			if a.cfg.MaxRows > 0 && run.RowsChecked >= a.cfg.MaxRows {
				return run, nil
			}
			if err := a.check(ctx, run, it); err != nil {
				return run, err
			}
		}
		afterID = items[len(items)-1].ID
	}

	logging.Info().
		Str("run_id", run.ID).
		Int("checked", run.RowsChecked).
		Int("resolvable", run.RowsResolvable).
		Int("unresolvable", run.RowsUnresolvable).
		Int("errored", run.RowsErrored).
		Msg("audit finished")
	return run, nil
}

// check records a verdict for one row. Only cancellation and store
// failures abort the run.
func (a *Auditor) check(ctx context.Context, run *AuditRun, it Item) error {
	run.RowsChecked++

	_, err := a.resolver.Resolve(ctx, it)
	switch {
	case err == nil:
		if err := a.repo.MarkResolvability(ctx, it.ID, true); err != nil {
			return fmt.Errorf("mark review %d: %w", it.ID, err)
		}
		run.RowsResolvable++
		metrics.AuditRows.WithLabelValues("resolvable").Inc()
	case errors.Is(err, ErrUnresolvable):
		if err := a.repo.MarkResolvability(ctx, it.ID, false); err != nil {
			return fmt.Errorf("mark review %d: %w", it.ID, err)
		}
		run.RowsUnresolvable++
		metrics.AuditRows.WithLabelValues("unresolvable").Inc()
		metrics.UnresolvableItems.WithLabelValues(it.Reviewer).Inc()
		logging.Warn().Int64("review_id", it.ID).Str("name", it.Name).Str("creator", it.Creator).Msg("review unresolvable")
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		run.RowsErrored++
		metrics.AuditRows.WithLabelValues("error").Inc()
		logging.Warn().Err(err).Int64("review_id", it.ID).Msg("resolve failed, verdict left unchanged")
	}
	return nil
}
