// Package editorial turns third-party review feeds (RSS/Atom) into corpus
// rows, so the editorial mode can draw from them like the review corpus.
package editorial

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"crateapi/internal/logging"
	"crateapi/internal/review"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCacheTTL = 15 * time.Minute
	// failureTTL holds a failed fetch so retries do not hammer a dead feed.
	failureTTL = time.Minute
)

type cachedFeed struct {
	items     []review.Item
	err       error
	fetchedAt time.Time
}

// Source serves random entries from the configured feeds. Parsed feeds are
// cached for the cache TTL.
type Source struct {
	feeds  map[string]string
	parser *gofeed.Parser
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cachedFeed
}

// NewSource builds a source over feeds (slug -> URL).
func NewSource(feeds map[string]string, client *http.Client, ttl time.Duration) *Source {
	parser := gofeed.NewParser()
	parser.UserAgent = "crate/1.0"
	if client != nil {
		parser.Client = client
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Source{
		feeds:  feeds,
		parser: parser,
		ttl:    ttl,
		cache:  make(map[string]cachedFeed),
	}
}

// Names lists the configured feed slugs in order.
func (s *Source) Names() []string {
	names := make([]string, 0, len(s.feeds))
	for name := range s.feeds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RandomItem picks a uniformly random parsed entry from feed (all feeds
// when empty), skipping the given ids. Across all feeds an unreachable feed
// is skipped; the draw fails only when every feed fails.
func (s *Source) RandomItem(ctx context.Context, feed string, skip []int64) (review.Item, error) {
	names := s.Names()
	if feed != "" {
		if _, ok := s.feeds[feed]; !ok {
			return review.Item{}, fmt.Errorf("%w: unknown editorial feed %q", review.ErrEmpty, feed)
		}
		names = []string{feed}
	}
	if len(names) == 0 {
		return review.Item{}, fmt.Errorf("%w: no editorial feeds configured", review.ErrEmpty)
	}

	perFeed := make([][]review.Item, len(names))
	errs := make([]error, len(names))
	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			perFeed[i], errs[i] = s.items(ctx, name)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		if len(names) == 1 {
			return review.Item{}, err
		}
		failed++
		logging.Ctx(ctx).Warn().Err(err).Str("feed", names[i]).Msg("editorial feed unavailable, skipping")
	}
	if failed == len(names) {
		return review.Item{}, errors.Join(errs...)
	}

	var pool []review.Item
	for _, items := range perFeed {
		for _, it := range items {
			if !slices.Contains(skip, it.ID) {
				pool = append(pool, it)
			}
		}
	}
	if len(pool) == 0 {
		return review.Item{}, review.ErrEmpty
	}
	return pool[rand.IntN(len(pool))], nil
}

func (s *Source) items(ctx context.Context, name string) ([]review.Item, error) {
	s.mu.Lock()
	cached, ok := s.cache[name]
	s.mu.Unlock()
	if ok && cached.err != nil && time.Since(cached.fetchedAt) < failureTTL {
		return nil, cached.err
	}
	if ok && cached.err == nil && time.Since(cached.fetchedAt) < s.ttl {
		return cached.items, nil
	}

	feed, err := s.parser.ParseURLWithContext(s.feeds[name], ctx)
	if err != nil {
		err = fmt.Errorf("fetch editorial feed %s: %w", name, err)
		if ctx.Err() == nil {
			s.mu.Lock()
			s.cache[name] = cachedFeed{err: err, fetchedAt: time.Now()}
			s.mu.Unlock()
		}
		return nil, err
	}

	items := make([]review.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		it, ok := toItem(name, entry)
		if !ok {
			logging.Ctx(ctx).Debug().Str("feed", name).Str("title", entry.Title).Msg("skipping feed entry without artist and title")
			continue
		}
		items = append(items, it)
	}

	s.mu.Lock()
	s.cache[name] = cachedFeed{items: items, fetchedAt: time.Now()}
	s.mu.Unlock()
	return items, nil
}

func toItem(feed string, entry *gofeed.Item) (review.Item, bool) {
	creator, name, ok := ParseTitle(entry.Title)
	if !ok {
		return review.Item{}, false
	}
	it := review.Item{
		ID:        entryID(entry),
		Reviewer:  feed,
		Name:      name,
		Creator:   creator,
		Service:   "spotify",
		ReviewURL: entry.Link,
		Metadata:  map[string]string{},
	}
	if entry.PublishedParsed != nil {
		it.CreatedAt = *entry.PublishedParsed
	}
	return it, true
}

// entryID derives a stable positive id from the entry GUID or link.
func entryID(entry *gofeed.Item) int64 {
	key := entry.GUID
	if key == "" {
		key = entry.Link
	}
	if key == "" {
		key = entry.Title
	}
	sum := sha256.Sum256([]byte(key))
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}

var (
	titleSeparators = []string{" – ", " — ", " - ", ": "}
	reviewSuffix    = regexp.MustCompile(`(?i)\s*[(\[]?\b(?:album\s+)?review[)\]]?\s*$`)
)

// ParseTitle splits a review headline such as `Slowdive – "Souvlaki"` into
// artist and album.
func ParseTitle(title string) (creator, name string, ok bool) {
	title = strings.TrimSpace(reviewSuffix.ReplaceAllString(strings.TrimSpace(title), ""))
	for _, sep := range titleSeparators {
		before, after, found := strings.Cut(title, sep)
		if !found {
			continue
		}
		creator = cleanPart(before)
		name = cleanPart(after)
		if creator != "" && name != "" {
			return creator, name, true
		}
	}
	return "", "", false
}

func cleanPart(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'“”‘’`))
}
