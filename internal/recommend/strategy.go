package recommend

import (
	"context"
	"errors"
	"fmt"

	"crateapi/internal/logging"
	"crateapi/internal/metrics"
	"crateapi/internal/platform/catalog"
	"crateapi/internal/review"

	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=strategy.go -destination=mock_ports_test.go -package=recommend

// Catalog is the slice of the catalog client the router composes.
type Catalog interface {
	Search(ctx context.Context, req catalog.SearchRequest) (catalog.Page, error)
	GetByID(ctx context.Context, kind catalog.Kind, id string) (catalog.Item, error)
	RelatedArtists(ctx context.Context, artistID string) ([]catalog.Item, error)
	ArtistAlbums(ctx context.Context, artistID string, limit, offset int, market string) (catalog.Page, error)
	FeaturedPlaylists(ctx context.Context, limit, offset int, market string) (catalog.Page, error)
	SavedAlbums(ctx context.Context, limit, offset int) (catalog.Page, error)
	TopArtists(ctx context.Context, limit, offset int) (catalog.Page, error)
}

// Corpus supplies random reviewed rows for the corpus-backed modes.
type Corpus interface {
	RandomItem(ctx context.Context, source string, skip []int64) (review.Item, error)
}

// Router maps a sourcing mode onto catalog and corpus calls.
type Router struct {
	sampler      *Sampler
	policies     map[Mode]Policy
	discoCap     int
	publications Corpus
	editorial    Corpus
}

// NewRouter builds a router. Either corpus may be nil, in which case its
// modes report an empty pool.
func NewRouter(sampler *Sampler, caps PoolCaps, publications, editorial Corpus) *Router {
	return &Router{
		sampler:      sampler,
		policies:     Policies(caps),
		discoCap:     caps.withDefaults().Broad,
		publications: publications,
		editorial:    editorial,
	}
}

// Policy returns the policy for m.
func (r *Router) Policy(m Mode) (Policy, bool) {
	p, ok := r.policies[m]
	return p, ok
}

// Policies returns a copy of the mode table.
func (r *Router) Policies() map[Mode]Policy {
	out := make(map[Mode]Policy, len(r.policies))
	for m, p := range r.policies {
		out[m] = p
	}
	return out
}

// Producer returns the attempt function for req. Per-request state that
// must survive between attempts (resolved seeds, corpus rows that failed to
// resolve) lives in the returned closure.
func (r *Router) Producer(req SourcingRequest, cat Catalog) (Produce, error) {
	pol, ok := r.policies[req.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}
	var accept Filter
	if pol.RejectSingles {
		accept = RejectSingles
	}
	q, market := req.Query, req.Market

	switch req.Mode {
	case ModeGenre:
		return func(ctx context.Context) (Candidate, error) {
			artist, err := r.sampler.Sample(ctx, searchPages(cat, catalog.Criteria{Genre: q}, catalog.KindArtist, market), pol.PoolCap, nil)
			if err != nil {
				return Candidate{}, err
			}
			c, err := r.albumOf(ctx, cat, artist, market, accept)
			if err != nil {
				return Candidate{}, err
			}
			c.Genres = r.sampler.shuffleTail(artist.Genres)
			return c, nil
		}, nil

	case ModeArtist:
		return r.sampled(searchPages(cat, catalog.Criteria{Artist: q}, catalog.KindAlbum, market), pol.PoolCap, accept), nil

	case ModeLabel:
		return r.sampled(searchPages(cat, catalog.Criteria{Label: q}, catalog.KindAlbum, market), pol.PoolCap, accept), nil

	case ModeRelatedArtist:
		return r.related(cat, market, accept, func(ctx context.Context) (catalog.Item, []catalog.Item, error) {
			page, err := cat.Search(ctx, catalog.SearchRequest{
				Criteria: catalog.Criteria{Artist: q},
				Type:     catalog.KindArtist,
				Limit:    1,
				Market:   market,
			})
			if err != nil {
				return catalog.Item{}, nil, err
			}
			if len(page.Items) == 0 {
				return catalog.Item{}, nil, fmt.Errorf("%w: no artist named %q", ErrEmptyPool, q)
			}
			seed := page.Items[0]
			related, err := relatedOrEmpty(ctx, cat, seed.ID)
			return seed, related, err
		}), nil

	case ModeRelatedArtistByID:
		return r.related(cat, market, accept, func(ctx context.Context) (catalog.Item, []catalog.Item, error) {
			var (
				seed    catalog.Item
				related []catalog.Item
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				seed, err = cat.GetByID(gctx, catalog.KindArtist, q)
				if errors.Is(err, catalog.ErrNotFound) {
					return fmt.Errorf("%w: no artist with id %q", ErrEmptyPool, q)
				}
				return err
			})
			g.Go(func() error {
				var err error
				related, err = relatedOrEmpty(gctx, cat, q)
				return err
			})
			if err := g.Wait(); err != nil {
				return catalog.Item{}, nil, err
			}
			return seed, related, nil
		}), nil

	case ModeUserLibrary:
		return r.sampled(cat.SavedAlbums, pol.PoolCap, accept), nil

	case ModeTopArtists:
		return func(ctx context.Context) (Candidate, error) {
			artist, err := r.sampler.Sample(ctx, cat.TopArtists, pol.PoolCap, nil)
			if err != nil {
				return Candidate{}, err
			}
			return r.albumOf(ctx, cat, artist, market, accept)
		}, nil

	case ModeTopArtistsRelated:
		return func(ctx context.Context) (Candidate, error) {
			artist, err := r.sampler.Sample(ctx, cat.TopArtists, pol.PoolCap, nil)
			if err != nil {
				return Candidate{}, err
			}
			related, err := relatedOrEmpty(ctx, cat, artist.ID)
			if err != nil {
				return Candidate{}, err
			}
			chosen := r.sampler.pick(withSeed(artist, related))
			return r.albumOf(ctx, cat, chosen, market, accept)
		}, nil

	case ModeFeaturedPlaylist:
		return r.sampled(func(ctx context.Context, limit, offset int) (catalog.Page, error) {
			return cat.FeaturedPlaylists(ctx, limit, offset, market)
		}, pol.PoolCap, nil), nil

	case ModePublication:
		return r.fromCorpus(r.publications, string(FamilyPublication), q, cat, market), nil

	case ModeEditorialFeed:
		return r.fromCorpus(r.editorial, string(FamilyEditorial), q, cat, market), nil
	}
	return nil, fmt.Errorf("%w: mode %q has no strategy", ErrInvalidRequest, req.Mode)
}

func searchPages(cat Catalog, criteria catalog.Criteria, kind catalog.Kind, market string) PageFunc {
	return func(ctx context.Context, limit, offset int) (catalog.Page, error) {
		return cat.Search(ctx, catalog.SearchRequest{
			Criteria: criteria,
			Type:     kind,
			Limit:    limit,
			Offset:   offset,
			Market:   market,
		})
	}
}

// sampled is a single sampling step turned directly into a candidate.
func (r *Router) sampled(fetch PageFunc, poolCap int, accept Filter) Produce {
	return func(ctx context.Context) (Candidate, error) {
		item, err := r.sampler.Sample(ctx, fetch, poolCap, accept)
		if err != nil {
			return Candidate{}, err
		}
		return candidateFromItem(item), nil
	}
}

// albumOf samples one release from the artist's discography. An artist
// without eligible releases is a miss for this attempt, not an empty pool.
func (r *Router) albumOf(ctx context.Context, cat Catalog, artist catalog.Item, market string, accept Filter) (Candidate, error) {
	fetch := func(ctx context.Context, limit, offset int) (catalog.Page, error) {
		return cat.ArtistAlbums(ctx, artist.ID, limit, offset, market)
	}
	album, err := r.sampler.Sample(ctx, fetch, r.discoCap, accept)
	if errors.Is(err, ErrEmptyPool) {
		return Candidate{}, fmt.Errorf("%w: artist %s has no releases", ErrOffsetMiss, artist.ID)
	}
	if err != nil {
		return Candidate{}, err
	}
	c := candidateFromItem(album)
	if c.PrimaryCreator == "" {
		c.PrimaryCreator = artist.Name
	}
	if len(artist.Genres) > 0 {
		c.Genres = append([]string(nil), artist.Genres...)
	}
	return c, nil
}

// related resolves the seed and its neighbours once per request, then on
// every attempt picks uniformly among the seed and its related artists.
func (r *Router) related(cat Catalog, market string, accept Filter, resolve func(ctx context.Context) (catalog.Item, []catalog.Item, error)) Produce {
	var pool []catalog.Item
	return func(ctx context.Context) (Candidate, error) {
		if pool == nil {
			seed, related, err := resolve(ctx)
			if err != nil {
				return Candidate{}, err
			}
			pool = withSeed(seed, related)
		}
		return r.albumOf(ctx, cat, r.sampler.pick(pool), market, accept)
	}
}

// relatedOrEmpty treats a missing adjacency list as no related artists.
func relatedOrEmpty(ctx context.Context, cat Catalog, artistID string) ([]catalog.Item, error) {
	related, err := cat.RelatedArtists(ctx, artistID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, nil
	}
	return related, err
}

// withSeed returns seed followed by the related artists, without duplicates.
func withSeed(seed catalog.Item, related []catalog.Item) []catalog.Item {
	pool := make([]catalog.Item, 0, len(related)+1)
	pool = append(pool, seed)
	seen := map[string]bool{seed.ID: true}
	for _, a := range related {
		if !seen[a.ID] {
			seen[a.ID] = true
			pool = append(pool, a)
		}
	}
	return pool
}

// fromCorpus draws a random row and resolves it against the catalog. Rows
// that fail to resolve are skipped for the rest of the request.
func (r *Router) fromCorpus(corpus Corpus, label, source string, cat Catalog, market string) Produce {
	resolver := review.NewResolver(cat, market)
	var skip []int64
	return func(ctx context.Context) (Candidate, error) {
		if corpus == nil {
			return Candidate{}, fmt.Errorf("%w: %s corpus is not configured", ErrEmptyPool, label)
		}
		row, err := corpus.RandomItem(ctx, source, skip)
		if errors.Is(err, review.ErrEmpty) {
			if len(skip) > 0 {
				return Candidate{}, fmt.Errorf("%w: no resolvable %s rows left", ErrUnresolvable, label)
			}
			return Candidate{}, fmt.Errorf("%w: %w", ErrEmptyPool, err)
		}
		if err != nil {
			return Candidate{}, err
		}

		item, err := resolver.Resolve(ctx, row)
		if errors.Is(err, review.ErrUnresolvable) {
			skip = append(skip, row.ID)
			metrics.UnresolvableItems.WithLabelValues(label).Inc()
			logging.Ctx(ctx).Warn().Int64("review_id", row.ID).Str("reviewer", row.Reviewer).
				Str("name", row.Name).Str("creator", row.Creator).Msg("corpus row unresolvable, skipping")
			return Candidate{}, fmt.Errorf("%w: row %d: %w", ErrUnresolvable, row.ID, err)
		}
		if err != nil {
			return Candidate{}, err
		}

		c := candidateFromItem(item)
		c.ReviewURL = row.ReviewURL
		c.Reviewer = row.Reviewer
		return c, nil
	}
}
