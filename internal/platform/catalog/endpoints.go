package catalog

import (
	"context"
	"fmt"
	"strconv"
)

type wireImage struct {
	URL string `json:"url"`
}

type wireOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// wireItem covers albums, artists, playlists and tracks.
type wireItem struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	AlbumType    string            `json:"album_type"`
	Artists      []ArtistRef       `json:"artists"`
	Images       []wireImage       `json:"images"`
	Album        *wireItem         `json:"album"`
	Genres       []string          `json:"genres"`
	Popularity   *int              `json:"popularity"`
	ExternalURLs map[string]string `json:"external_urls"`
	Owner        *wireOwner        `json:"owner"`
	Label        string            `json:"label"`
	ReleaseDate  string            `json:"release_date"`
}

// wirePage entries are pointers because the provider sometimes returns null
// entries in playlist listings.
type wirePage struct {
	Items []*wireItem `json:"items"`
	Total int         `json:"total"`
}

func (w *wireItem) toItem() Item {
	it := Item{
		Kind:        Kind(w.Type),
		ID:          w.ID,
		Name:        w.Name,
		AlbumType:   w.AlbumType,
		Artists:     w.Artists,
		Genres:      w.Genres,
		Label:       w.Label,
		ReleaseDate: w.ReleaseDate,
		URL:         externalURL(w.ExternalURLs),
	}
	if w.Popularity != nil {
		it.Popularity = *w.Popularity
	}
	if w.Owner != nil {
		it.Owner = w.Owner.DisplayName
	}
	switch {
	case len(w.Images) > 0:
		it.ImageURL = w.Images[0].URL
	case w.Album != nil && len(w.Album.Images) > 0:
		it.ImageURL = w.Album.Images[0].URL
	}
	return it
}

func externalURL(urls map[string]string) string {
	if u, ok := urls["spotify"]; ok {
		return u
	}
	for _, u := range urls {
		return u
	}
	return ""
}

func (p *wirePage) toPage() Page {
	page := Page{Total: p.Total, Items: make([]Item, 0, len(p.Items))}
	for _, w := range p.Items {
		if w == nil {
			continue
		}
		page.Items = append(page.Items, w.toItem())
	}
	return page
}

func pageQuery(limit, offset int) map[string]string {
	if offset < 0 {
		offset = 0
	}
	return map[string]string{
		"limit":  strconv.Itoa(clampLimit(limit)),
		"offset": strconv.Itoa(offset),
	}
}

// Search runs one page of a search. Only the listing matching req.Type is
// returned.
func (c *Client) Search(ctx context.Context, req SearchRequest) (Page, error) {
	q := req.Criteria.Query()
	if q == "" {
		return Page{}, fmt.Errorf("%w: empty search query", ErrInvalidQuery)
	}
	kind := req.Type
	if kind == "" {
		kind = KindAlbum
	}
	query := pageQuery(req.Limit, req.Offset)
	query["q"] = q
	query["type"] = string(kind)
	query["market"] = c.marketOr(req.Market)

	var res struct {
		Albums    *wirePage `json:"albums"`
		Artists   *wirePage `json:"artists"`
		Playlists *wirePage `json:"playlists"`
		Tracks    *wirePage `json:"tracks"`
	}
	if err := c.get(ctx, call{endpoint: "search", path: "/v1/search", query: query}, &res); err != nil {
		return Page{}, err
	}

	var wp *wirePage
	switch kind {
	case KindAlbum:
		wp = res.Albums
	case KindArtist:
		wp = res.Artists
	case KindPlaylist:
		wp = res.Playlists
	case KindTrack:
		wp = res.Tracks
	}
	if wp == nil {
		return Page{Items: []Item{}}, nil
	}
	return wp.toPage(), nil
}

// GetByID fetches a single object for enrichment.
func (c *Client) GetByID(ctx context.Context, kind Kind, id string) (Item, error) {
	if id == "" {
		return Item{}, fmt.Errorf("%w: %s id is required", ErrInvalidQuery, kind)
	}
	var w wireItem
	err := c.get(ctx, call{
		endpoint:   "get_" + string(kind),
		path:       "/v1/" + string(kind) + "s/{id}",
		pathParams: map[string]string{"id": id},
		query:      map[string]string{"market": c.marketOr("")},
	}, &w)
	if err != nil {
		return Item{}, err
	}
	if w.Type == "" {
		w.Type = string(kind)
	}
	return w.toItem(), nil
}

// RelatedArtists returns the artist adjacency list. An empty list is a
// valid result.
func (c *Client) RelatedArtists(ctx context.Context, artistID string) ([]Item, error) {
	var res struct {
		Artists []*wireItem `json:"artists"`
	}
	err := c.get(ctx, call{
		endpoint:   "related_artists",
		path:       "/v1/artists/{id}/related-artists",
		pathParams: map[string]string{"id": artistID},
	}, &res)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(res.Artists))
	for _, w := range res.Artists {
		if w != nil {
			out = append(out, w.toItem())
		}
	}
	return out, nil
}

// ArtistAlbums pages through an artist's albums and singles.
func (c *Client) ArtistAlbums(ctx context.Context, artistID string, limit, offset int, market string) (Page, error) {
	query := pageQuery(limit, offset)
	query["include_groups"] = "album,single"
	query["market"] = c.marketOr(market)

	var res wirePage
	err := c.get(ctx, call{
		endpoint:   "artist_albums",
		path:       "/v1/artists/{id}/albums",
		pathParams: map[string]string{"id": artistID},
		query:      query,
	}, &res)
	if err != nil {
		return Page{}, err
	}
	page := res.toPage()
	for i := range page.Items {
		if page.Items[i].Kind == "" {
			page.Items[i].Kind = KindAlbum
		}
	}
	return page, nil
}

// FeaturedPlaylists pages through the editorial playlist listing.
func (c *Client) FeaturedPlaylists(ctx context.Context, limit, offset int, market string) (Page, error) {
	query := pageQuery(limit, offset)
	query["country"] = c.marketOr(market)

	var res struct {
		Playlists wirePage `json:"playlists"`
	}
	if err := c.get(ctx, call{endpoint: "featured_playlists", path: "/v1/browse/featured-playlists", query: query}, &res); err != nil {
		return Page{}, err
	}
	return res.Playlists.toPage(), nil
}

// SavedAlbums pages through the current user's saved albums. Requires a
// client from ForUser.
func (c *Client) SavedAlbums(ctx context.Context, limit, offset int) (Page, error) {
	if !c.user {
		return Page{}, ErrUnauthorized
	}
	var res struct {
		Items []struct {
			Album *wireItem `json:"album"`
		} `json:"items"`
		Total int `json:"total"`
	}
	if err := c.get(ctx, call{endpoint: "saved_albums", path: "/v1/me/albums", query: pageQuery(limit, offset)}, &res); err != nil {
		return Page{}, err
	}
	page := Page{Total: res.Total, Items: make([]Item, 0, len(res.Items))}
	for _, saved := range res.Items {
		if saved.Album != nil {
			page.Items = append(page.Items, saved.Album.toItem())
		}
	}
	return page, nil
}

// TopArtists pages through the current user's top artists. Requires a
// client from ForUser.
func (c *Client) TopArtists(ctx context.Context, limit, offset int) (Page, error) {
	if !c.user {
		return Page{}, ErrUnauthorized
	}
	var res wirePage
	if err := c.get(ctx, call{endpoint: "top_artists", path: "/v1/me/top/artists", query: pageQuery(limit, offset)}, &res); err != nil {
		return Page{}, err
	}
	return res.toPage(), nil
}
