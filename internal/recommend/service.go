package recommend

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"crateapi/internal/logging"
	"crateapi/internal/metrics"
	"crateapi/internal/platform/catalog"
)

// User identifies a signed-in listener. AccessToken is their catalog
// provider token.
type User struct {
	ID          string
	AccessToken string
}

// UserCatalogFunc returns a catalog scoped to a listener's access token.
type UserCatalogFunc func(accessToken string) Catalog

// Result is a served recommendation.
type Result struct {
	Candidate Candidate `json:"candidate"`
	Mode      Mode      `json:"mode"`
	Family    Family    `json:"family"`
	Attempts  int       `json:"attempts"`
}

// Service runs sourcing requests end to end.
type Service struct {
	router  *Router
	retrier *Retrier
	catalog Catalog
	forUser UserCatalogFunc
}

// NewService creates a recommendation service. forUser may be nil when no
// user-scoped modes are served.
func NewService(router *Router, retrier *Retrier, cat Catalog, forUser UserCatalogFunc) *Service {
	return &Service{router: router, retrier: retrier, catalog: cat, forUser: forUser}
}

// Modes returns the policy table.
func (s *Service) Modes() map[Mode]Policy {
	return s.router.Policies()
}

// Recommend produces one candidate for req. user may be nil. The returned
// error is one of ErrInvalidRequest, ErrUnauthenticated, ErrEmptyPool, a
// *RetriesExhaustedError or a context error.
func (s *Service) Recommend(ctx context.Context, req SourcingRequest, user *User) (Result, error) {
	start := time.Now()
	req = req.Normalize()

	res, err := s.recommend(ctx, req, user)

	outcome := outcomeLabel(err)
	metrics.RecommendRequests.WithLabelValues(string(req.Mode), outcome).Inc()
	if res.Attempts > 0 {
		metrics.RecommendAttempts.WithLabelValues(string(req.Mode), outcome).Observe(float64(res.Attempts))
	}

	log := logging.Ctx(ctx)
	evt := log.Info()
	if err != nil && outcome == "error" {
		evt = log.Error()
	}
	evt.Str("mode", string(req.Mode)).
		Str("outcome", outcome).
		Int("attempts", res.Attempts).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("recommendation")

	return res, err
}

func (s *Service) recommend(ctx context.Context, req SourcingRequest, user *User) (Result, error) {
	pol, ok := s.router.Policy(req.Mode)
	if !ok {
		return Result{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}
	if err := req.Validate(pol); err != nil {
		return Result{}, err
	}

	cat := s.catalog
	if pol.RequiresUser {
		if user == nil || user.AccessToken == "" || s.forUser == nil {
			return Result{}, fmt.Errorf("%w: mode %s", ErrUnauthenticated, req.Mode)
		}
		cat = s.forUser(user.AccessToken)
	}

	produce, err := s.router.Producer(req, cat)
	if err != nil {
		return Result{}, err
	}
	if !pol.RequiresUser {
		produce = appCredentials(produce)
	}

	c, attempts, err := s.retrier.Do(ctx, req.ExcludeID, produce, Playable)
	res := Result{Mode: req.Mode, Family: pol.Family, Attempts: attempts}
	switch {
	case err == nil:
	case pol.RequiresUser && errors.Is(err, catalog.ErrUnauthorized):
		return res, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	case errors.Is(err, catalog.ErrInvalidQuery):
		return res, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	default:
		return res, err
	}
	res.Candidate = c
	return res, nil
}

// appCredentials turns a rejected app token into a retryable upstream
// failure. The listener cannot fix it by signing in, and the client
// credentials source fetches a new token on expiry.
func appCredentials(produce Produce) Produce {
	return func(ctx context.Context) (Candidate, error) {
		c, err := produce(ctx)
		if errors.Is(err, catalog.ErrUnauthorized) {
			return Candidate{}, fmt.Errorf("%w: app credentials rejected: %v", ErrUpstream, err)
		}
		return c, err
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrEmptyPool):
		return "empty_pool"
	case errors.Is(err, ErrRetriesExhausted):
		return "exhausted"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// RetryAfterSeconds suggests a client retry delay for an exhausted request.
func RetryAfterSeconds(err error) string {
	if d := catalog.RetryAfter(err); d > 0 {
		return strconv.Itoa(int((d + time.Second - 1) / time.Second))
	}
	return "1"
}
