package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crateapi/internal/platform/catalog"
)

// Lookup is the slice of the catalog client the resolver needs.
type Lookup interface {
	Search(ctx context.Context, req catalog.SearchRequest) (catalog.Page, error)
	GetByID(ctx context.Context, kind catalog.Kind, id string) (catalog.Item, error)
}

// Resolver maps a corpus row onto a catalog object.
type Resolver struct {
	lookup Lookup
	market string
}

func NewResolver(lookup Lookup, market string) *Resolver {
	return &Resolver{lookup: lookup, market: market}
}

// Resolve returns the catalog object for it. A row that matches nothing
// yields ErrUnresolvable; upstream failures are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, it Item) (catalog.Item, error) {
	if id := strings.TrimSpace(it.Metadata[MetaCatalogID]); id != "" {
		kind := catalog.Kind(it.Metadata[MetaCatalogKind])
		if kind == "" {
			kind = catalog.KindAlbum
		}
		found, err := r.lookup.GetByID(ctx, kind, id)
		if errors.Is(err, catalog.ErrNotFound) {
			return catalog.Item{}, fmt.Errorf("%w: %s %s no longer exists", ErrUnresolvable, kind, id)
		}
		return found, err
	}

	attempts := []catalog.Criteria{
		{Artist: it.Creator, Album: it.Name},
		{Text: strings.TrimSpace(it.Name + " " + it.Creator)},
	}
	for _, criteria := range attempts {
		if criteria.Query() == "" {
			continue
		}
		page, err := r.lookup.Search(ctx, catalog.SearchRequest{
			Criteria: criteria,
			Type:     catalog.KindAlbum,
			Limit:    1,
			Market:   r.market,
		})
		if err != nil {
			return catalog.Item{}, err
		}
		if len(page.Items) > 0 {
			return page.Items[0], nil
		}
	}
	return catalog.Item{}, fmt.Errorf("%w: %q by %q", ErrUnresolvable, it.Name, it.Creator)
}
