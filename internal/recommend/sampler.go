package recommend

import (
	"context"
	"fmt"
	"math/rand/v2"

	"crateapi/internal/platform/catalog"
)

// PageFunc fetches one window of a paginated listing.
type PageFunc func(ctx context.Context, limit, offset int) (catalog.Page, error)

// Filter reports whether a drawn item is acceptable.
type Filter func(catalog.Item) bool

// RejectSingles drops items the provider labels as singles.
func RejectSingles(it catalog.Item) bool { return it.AlbumType != catalog.AlbumTypeSingle }

// Rand is the random source for draws.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Sampler draws one item uniformly from a listing that only supports
// limit/offset paging, using at most two calls per draw.
type Sampler struct {
	probeSize int
	rnd       Rand
}

// NewSampler returns a sampler whose first call fetches probeSize items.
// A nil rnd uses the process-wide source.
func NewSampler(probeSize int, rnd Rand) *Sampler {
	if probeSize < 1 {
		probeSize = 1
	}
	if probeSize > catalog.MaxPageSize {
		probeSize = catalog.MaxPageSize
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Sampler{probeSize: probeSize, rnd: rnd}
}

// Sample probes the listing for its total, draws an offset in
// [0, min(total, poolCap)-1] and returns the item there. poolCap <= 0
// leaves the range uncapped. A draw rejected by accept is reported as
// ErrOffsetMiss so the caller redraws against a fresh total.
func (s *Sampler) Sample(ctx context.Context, fetch PageFunc, poolCap int, accept Filter) (catalog.Item, error) {
	first, err := fetch(ctx, s.probeSize, 0)
	if err != nil {
		return catalog.Item{}, err
	}
	if first.Total <= 0 {
		return catalog.Item{}, ErrEmptyPool
	}

	n := first.Total
	if poolCap > 0 && n > poolCap {
		n = poolCap
	}
	target := s.rnd.IntN(n)

	var item catalog.Item
	if target < len(first.Items) {
		item = first.Items[target]
	} else {
		page, err := fetch(ctx, 1, target)
		if err != nil {
			return catalog.Item{}, err
		}
		if len(page.Items) == 0 {
			return catalog.Item{}, fmt.Errorf("%w: offset %d of %d", ErrOffsetMiss, target, first.Total)
		}
		item = page.Items[0]
	}

	if accept != nil && !accept(item) {
		return catalog.Item{}, fmt.Errorf("%w: %s %s rejected by filter", ErrOffsetMiss, item.Kind, item.ID)
	}
	return item, nil
}

// pick returns a uniformly chosen element of items.
func (s *Sampler) pick(items []catalog.Item) catalog.Item {
	return items[s.rnd.IntN(len(items))]
}

// shuffleTail keeps the first tag first and randomizes the order of the
// rest. The input is not modified.
func (s *Sampler) shuffleTail(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := append([]string(nil), tags...)
	tail := out[1:]
	for i := len(tail) - 1; i > 0; i-- {
		j := s.rnd.IntN(i + 1)
		tail[i], tail[j] = tail[j], tail[i]
	}
	return out
}
