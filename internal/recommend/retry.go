package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crateapi/internal/logging"
	"crateapi/internal/platform/catalog"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the retry loop.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Jitter is the randomization factor in [0, 1).
	Jitter float64
	// RateLimitFloor is added to the regular delay after a rate-limited
	// attempt. An upstream Retry-After hint raises the delay further.
	RateLimitFloor time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     3 * time.Second,
		Jitter:         0.5,
		RateLimitFloor: 2 * time.Second,
	}
}

// Produce yields one candidate per call.
type Produce func(ctx context.Context) (Candidate, error)

// Check validates a candidate beyond exclusion.
type Check func(Candidate) error

// Playable rejects candidates without a playable link.
func Playable(c Candidate) error {
	if c.PlayableURL == "" {
		return fmt.Errorf("%w: %s %s", ErrUnplayable, c.Kind, c.ExternalID)
	}
	switch c.Kind {
	case catalog.KindAlbum, catalog.KindPlaylist, catalog.KindTrack:
		return nil
	}
	return fmt.Errorf("%w: unsupported kind %q", ErrUnplayable, c.Kind)
}

// Retrier runs attempts sequentially with exponential, jittered backoff.
type Retrier struct {
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrier(policy RetryPolicy) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{policy: policy, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Retrier) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialBackoff
	b.MaxInterval = r.policy.MaxBackoff
	b.RandomizationFactor = r.policy.Jitter
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Do calls produce until it returns a candidate that differs from
// excludeID and passes check, or the attempt budget runs out. It returns
// the number of attempts made. Cancellation is honoured between attempts
// and during backoff. With a pool of one item equal to excludeID the loop
// exhausts its budget and fails; the excluded item is never returned.
func (r *Retrier) Do(ctx context.Context, excludeID string, produce Produce, check Check) (Candidate, int, error) {
	b := r.newBackOff()
	log := logging.Ctx(ctx)

	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Candidate{}, attempt - 1, err
		}

		c, err := produce(ctx)
		if err == nil && excludeID != "" && c.ExternalID == excludeID {
			err = fmt.Errorf("%w: %s", ErrExcluded, c.ExternalID)
		}
		if err == nil && check != nil {
			err = check(c)
		}
		if err == nil {
			return c, attempt, nil
		}

		if isFatal(err) {
			return Candidate{}, attempt, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Candidate{}, attempt, ctxErr
		}
		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.delay(b, err)
		log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("candidate attempt failed, retrying")
		if err := r.sleep(ctx, delay); err != nil {
			return Candidate{}, attempt, err
		}
	}
	return Candidate{}, r.policy.MaxAttempts, &RetriesExhaustedError{Attempts: r.policy.MaxAttempts, LastErr: lastErr}
}

func (r *Retrier) delay(b *backoff.ExponentialBackOff, err error) time.Duration {
	d := b.NextBackOff()
	if d == backoff.Stop {
		d = r.policy.MaxBackoff
	}
	if errors.Is(err, ErrRateLimited) {
		d += r.policy.RateLimitFloor
		if hint := catalog.RetryAfter(err); hint > d {
			d = hint
		}
	}
	return d
}
