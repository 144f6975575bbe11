// Package catalog is a client for the remote music catalog Web API
// (search, browse and per-user library endpoints).
//
// The API exposes no random access: every listing is paginated with
// limit/offset and reports only a total count.
package catalog

import (
	"strings"
)

// MaxPageSize is the largest page the provider serves.
const MaxPageSize = 50

// Kind is the type of a catalog object.
type Kind string

const (
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
	KindTrack    Kind = "track"
)

// AlbumTypeSingle is the album_type the provider uses for singles.
const AlbumTypeSingle = "single"

// ArtistRef is the abbreviated artist attached to albums and tracks.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is a catalog object flattened to the fields the service needs.
type Item struct {
	Kind        Kind        `json:"kind"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AlbumType   string      `json:"album_type,omitempty"`
	Artists     []ArtistRef `json:"artists,omitempty"`
	Owner       string      `json:"owner,omitempty"`
	ImageURL    string      `json:"image_url,omitempty"`
	URL         string      `json:"url,omitempty"`
	Genres      []string    `json:"genres,omitempty"`
	Popularity  int         `json:"popularity,omitempty"`
	Label       string      `json:"label,omitempty"`
	ReleaseDate string      `json:"release_date,omitempty"`
}

// PrimaryCreator is the first credited artist, the owner for playlists, or
// the item's own name for artists.
func (i Item) PrimaryCreator() string {
	switch {
	case i.Kind == KindArtist:
		return i.Name
	case len(i.Artists) > 0:
		return i.Artists[0].Name
	default:
		return i.Owner
	}
}

// Page is one window of a paginated listing.
type Page struct {
	Items []Item
	Total int
}

// Criteria is a structured search query rendered with the provider's
// field filter syntax.
type Criteria struct {
	Text   string
	Artist string
	Album  string
	Track  string
	Genre  string
	Label  string
	Year   string
	// Tag is a boolean filter such as "new" or "hipster".
	Tag string
}

// Query renders the criteria, e.g. `artist:"Slowdive" album:"Souvlaki"`.
func (c Criteria) Query() string {
	parts := make([]string, 0, 8)
	if t := strings.TrimSpace(c.Text); t != "" {
		parts = append(parts, t)
	}
	add := func(field, value string) {
		value = strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
		if value != "" {
			parts = append(parts, field+`:"`+value+`"`)
		}
	}
	add("artist", c.Artist)
	add("album", c.Album)
	add("track", c.Track)
	add("genre", c.Genre)
	add("label", c.Label)
	if y := strings.TrimSpace(c.Year); y != "" {
		parts = append(parts, "year:"+y)
	}
	if tag := strings.TrimSpace(c.Tag); tag != "" {
		parts = append(parts, "tag:"+tag)
	}
	return strings.Join(parts, " ")
}

// SearchRequest is one page request against the search endpoint.
type SearchRequest struct {
	Criteria Criteria
	Type     Kind
	Limit    int
	Offset   int
	Market   string
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
