package recommend

import (
	"errors"
	"fmt"

	"crateapi/internal/platform/catalog"
)

var (
	// ErrEmptyPool means the sampling universe is empty. Never retried.
	ErrEmptyPool = errors.New("nothing matches this request")
	// ErrOffsetMiss covers a page that came back empty at a drawn offset and
	// a drawn item rejected by the mode's post-filter.
	ErrOffsetMiss = errors.New("no item at sampled offset")
	// ErrUnauthenticated means the mode needs a signed-in listener.
	ErrUnauthenticated = errors.New("mode requires an authenticated listener")
	ErrInvalidRequest  = errors.New("invalid sourcing request")
	// ErrExcluded means the draw repeated the last-shown item.
	ErrExcluded = errors.New("candidate was shown last")
	// ErrUnplayable means the candidate has no playable link.
	ErrUnplayable = errors.New("candidate is not playable")
	// ErrUnresolvable means a corpus row matched nothing in the catalog.
	ErrUnresolvable = errors.New("corpus row could not be resolved")
	// ErrRetriesExhausted matches *RetriesExhaustedError.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// Upstream kinds raised by the catalog client.
	ErrRateLimited = catalog.ErrRateLimited
	ErrUpstream    = catalog.ErrUpstream
	ErrNotFound    = catalog.ErrNotFound
)

// RetriesExhaustedError is returned when every attempt failed with a
// retryable error. LastErr is the final attempt's failure.
type RetriesExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.LastErr }

func (e *RetriesExhaustedError) Is(target error) bool { return target == ErrRetriesExhausted }

// isFatal reports errors the retry loop must surface immediately.
func isFatal(err error) bool {
	return errors.Is(err, ErrEmptyPool) ||
		errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, catalog.ErrInvalidQuery) ||
		errors.Is(err, catalog.ErrUnauthorized)
}
