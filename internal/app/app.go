// Package app wires configuration into the engine's collaborators. It is
// shared by the HTTP server and the crate CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crateapi/internal/config"
	"crateapi/internal/editorial"
	"crateapi/internal/logging"
	"crateapi/internal/platform/catalog"
	"crateapi/internal/recommend"
	"crateapi/internal/review"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the corpus store with audit bookkeeping.
type Store interface {
	review.Repository
	review.RunRepository
}

// OpenStore opens the configured corpus store. The returned func releases it.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (Store, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		repo, err := review.OpenSQLite(ctx, cfg.DSN, cfg.QueryTimeout)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	default:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database (%s): %w", RedactDSN(cfg.DSN), err)
		}
		logging.Info().Str("driver", "postgres").Msg("database connection OK")
		return review.NewPostgresRepo(pool, cfg.QueryTimeout), pool.Close, nil
	}
}

// NewCatalogClient builds the app-credentials catalog client.
func NewCatalogClient(ctx context.Context, cfg config.CatalogConfig) *catalog.Client {
	opts := []catalog.Option{
		catalog.WithBaseURL(cfg.BaseURL),
		catalog.WithTimeout(cfg.Timeout),
		catalog.WithRateLimit(cfg.RequestsPerSec, cfg.Burst),
		catalog.WithBreaker(catalog.BreakerSettings{
			MinRequests:  10,
			FailureRatio: cfg.BreakerFailRatio,
			OpenTimeout:  cfg.BreakerTimeout,
		}),
		catalog.WithDefaultMarket(cfg.DefaultMarket),
	}
	if ts := catalog.NewAppTokenSource(ctx, cfg.ClientID, cfg.ClientSecret, cfg.TokenURL); ts != nil {
		opts = append(opts, catalog.WithTokenSource(ts))
	} else {
		logging.Warn().Msg("catalog client id not set, upstream calls are unauthenticated")
	}
	return catalog.NewClient(opts...)
}

// NewEditorialSource returns nil when no feeds are configured.
func NewEditorialSource(cfg config.EditorialConfig, timeout time.Duration) *editorial.Source {
	if len(cfg.Feeds) == 0 {
		return nil
	}
	return editorial.NewSource(cfg.Feeds, &http.Client{Timeout: timeout}, 0)
}

// NewRecommendService assembles the router, retry loop and service.
func NewRecommendService(cfg config.RecommendConfig, client *catalog.Client, publications review.Repository, feeds *editorial.Source) *recommend.Service {
	var editorialCorpus recommend.Corpus
	if feeds != nil {
		editorialCorpus = feeds
	}
	var publicationCorpus recommend.Corpus
	if publications != nil {
		publicationCorpus = publications
	}

	router := recommend.NewRouter(
		recommend.NewSampler(cfg.ProbeSize, nil),
		recommend.PoolCaps{
			Broad:        cfg.PoolCapBroad,
			Label:        cfg.PoolCapLabel,
			GenreArtists: cfg.PoolCapGenreArtists,
		},
		publicationCorpus,
		editorialCorpus,
	)
	retrier := recommend.NewRetrier(recommend.RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		Jitter:         cfg.BackoffJitter,
		RateLimitFloor: cfg.RateLimitFloor,
	})
	return recommend.NewService(router, retrier, client, func(token string) recommend.Catalog {
		return client.ForUser(token)
	})
}

// RedactDSN hides the credentials part of a connection string.
func RedactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
