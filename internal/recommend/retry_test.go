package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"crateapi/internal/platform/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func album(id string) Candidate {
	return Candidate{Kind: catalog.KindAlbum, ExternalID: id, Title: id, PlayableURL: "https://open/" + id}
}

// newTestRetrier records sleeps instead of waiting.
func newTestRetrier(policy RetryPolicy) (*Retrier, *[]time.Duration) {
	r := NewRetrier(policy)
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept
}

// scripted returns the results in order, one per call.
func scripted(results ...any) (Produce, *int) {
	calls := 0
	return func(context.Context) (Candidate, error) {
		res := results[calls%len(results)]
		calls++
		switch v := res.(type) {
		case Candidate:
			return v, nil
		case error:
			return Candidate{}, v
		}
		panic(fmt.Sprintf("unexpected %T", res))
	}, &calls
}

func TestRetrier_FirstAttemptSucceeds(t *testing.T) {
	r, slept := newTestRetrier(DefaultRetryPolicy())
	produce, calls := scripted(album("a1"))

	c, attempts, err := r.Do(context.Background(), "", produce, Playable)
	require.NoError(t, err)
	assert.Equal(t, "a1", c.ExternalID)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, *calls)
	assert.Empty(t, *slept)
}

func TestRetrier_ExclusionHolds(t *testing.T) {
	r, _ := newTestRetrier(DefaultRetryPolicy())
	produce, calls := scripted(album("last"), album("last"), album("fresh"))

	c, attempts, err := r.Do(context.Background(), "last", produce, Playable)
	require.NoError(t, err)
	assert.Equal(t, "fresh", c.ExternalID)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, *calls)
}

func TestRetrier_SingleMemberPoolEqualToExcludedExhausts(t *testing.T) {
	for _, max := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("max=%d", max), func(t *testing.T) {
			policy := DefaultRetryPolicy()
			policy.MaxAttempts = max
			r, slept := newTestRetrier(policy)
			produce, calls := scripted(album("only"))

			c, attempts, err := r.Do(context.Background(), "only", produce, Playable)
			require.Error(t, err)
			assert.Empty(t, c.ExternalID, "the excluded item is never returned")
			assert.Equal(t, max, attempts)
			assert.Equal(t, max, *calls)
			assert.Len(t, *slept, max-1)

			var exhausted *RetriesExhaustedError
			require.ErrorAs(t, err, &exhausted)
			assert.Equal(t, max, exhausted.Attempts)
			assert.ErrorIs(t, err, ErrRetriesExhausted)
			assert.ErrorIs(t, err, ErrExcluded, "last error is carried")
		})
	}
}

func TestRetrier_FatalErrorsShortCircuit(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"empty pool", fmt.Errorf("search: %w", ErrEmptyPool)},
		{"unauthenticated", ErrUnauthenticated},
		{"invalid request", ErrInvalidRequest},
		{"provider unauthorized", &catalog.APIError{Endpoint: "saved_albums", StatusCode: 401}},
		{"invalid query", fmt.Errorf("%w: empty search query", catalog.ErrInvalidQuery)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, slept := newTestRetrier(DefaultRetryPolicy())
			produce, calls := scripted(tt.err)

			_, attempts, err := r.Do(context.Background(), "", produce, Playable)
			assert.ErrorIs(t, err, tt.err)
			assert.False(t, errors.Is(err, ErrRetriesExhausted))
			assert.Equal(t, 1, attempts)
			assert.Equal(t, 1, *calls)
			assert.Empty(t, *slept)
		})
	}
}

func TestRetrier_RetryableKinds(t *testing.T) {
	retryable := []error{
		ErrOffsetMiss,
		ErrUnresolvable,
		&catalog.APIError{Endpoint: "search", StatusCode: 502},
		&catalog.APIError{Endpoint: "get_album", StatusCode: 404},
		&catalog.APIError{Endpoint: "search", StatusCode: 429},
	}
	for _, e := range retryable {
		t.Run(e.Error(), func(t *testing.T) {
			r, _ := newTestRetrier(DefaultRetryPolicy())
			produce, calls := scripted(e, album("ok"))

			c, attempts, err := r.Do(context.Background(), "", produce, Playable)
			require.NoError(t, err)
			assert.Equal(t, "ok", c.ExternalID)
			assert.Equal(t, 2, attempts)
			assert.Equal(t, 2, *calls)
		})
	}
}

func TestRetrier_UnplayableIsRedrawn(t *testing.T) {
	r, _ := newTestRetrier(DefaultRetryPolicy())
	broken := album("broken")
	broken.PlayableURL = ""
	artist := Candidate{Kind: catalog.KindArtist, ExternalID: "art", PlayableURL: "https://open/art"}
	produce, _ := scripted(broken, artist, album("ok"))

	c, attempts, err := r.Do(context.Background(), "", produce, Playable)
	require.NoError(t, err)
	assert.Equal(t, "ok", c.ExternalID)
	assert.Equal(t, 3, attempts)
}

func TestRetrier_RateLimitedDelayExceedsRegularDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:    4,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     3 * time.Second,
		Jitter:         0.5,
		RateLimitFloor: 2 * time.Second,
	}
	rateLimited := &catalog.APIError{Endpoint: "search", StatusCode: 429}

	for i := 0; i < 100; i++ {
		r, slept := newTestRetrier(policy)
		produce, _ := scripted(ErrOffsetMiss, rateLimited, ErrOffsetMiss, album("ok"))

		_, attempts, err := r.Do(context.Background(), "", produce, Playable)
		require.NoError(t, err)
		require.Equal(t, 4, attempts)
		require.Len(t, *slept, 3)

		regular1, limited, regular2 := (*slept)[0], (*slept)[1], (*slept)[2]
		assert.GreaterOrEqual(t, limited, policy.RateLimitFloor)
		assert.Greater(t, limited, regular1)
		assert.Greater(t, limited, regular2)
		assert.LessOrEqual(t, regular1, 300*time.Millisecond)
		assert.GreaterOrEqual(t, regular1, 100*time.Millisecond)
	}
}

func TestRetrier_RetryAfterHintRaisesDelay(t *testing.T) {
	policy := DefaultRetryPolicy()
	r, slept := newTestRetrier(policy)
	hinted := &catalog.APIError{Endpoint: "search", StatusCode: 429, RetryAfter: 7 * time.Second}
	produce, _ := scripted(hinted, album("ok"))

	_, _, err := r.Do(context.Background(), "", produce, Playable)
	require.NoError(t, err)
	require.Len(t, *slept, 1)
	assert.Equal(t, 7*time.Second, (*slept)[0])
}

func TestRetrier_CancelledBeforeFirstAttempt(t *testing.T) {
	r, _ := newTestRetrier(DefaultRetryPolicy())
	produce, calls := scripted(album("a1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, attempts, err := r.Do(ctx, "", produce, Playable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
	assert.Equal(t, 0, *calls)
}

func TestRetrier_CancelledDuringBackoff(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.InitialBackoff = time.Hour
	policy.MaxBackoff = time.Hour
	r := NewRetrier(policy)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	produce := func(context.Context) (Candidate, error) {
		calls++
		time.AfterFunc(10*time.Millisecond, cancel)
		return Candidate{}, ErrOffsetMiss
	}

	start := time.Now()
	_, _, err := r.Do(ctx, "", produce, Playable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPlayable(t *testing.T) {
	assert.NoError(t, Playable(album("a")))
	assert.NoError(t, Playable(Candidate{Kind: catalog.KindPlaylist, ExternalID: "p", PlayableURL: "https://open/p"}))
	assert.ErrorIs(t, Playable(Candidate{Kind: catalog.KindAlbum, ExternalID: "a"}), ErrUnplayable)
	assert.ErrorIs(t, Playable(Candidate{Kind: catalog.KindArtist, ExternalID: "x", PlayableURL: "https://open/x"}), ErrUnplayable)
}
