package recommend

import (
	"fmt"
	"strings"

	"crateapi/internal/platform/catalog"

	"github.com/go-playground/validator/v10"
)

// Mode is a sourcing strategy.
type Mode string

const (
	ModePublication       Mode = "publication"
	ModeGenre             Mode = "genre"
	ModeArtist            Mode = "artist"
	ModeRelatedArtist     Mode = "relatedArtist"
	ModeRelatedArtistByID Mode = "relatedArtistByID"
	ModeLabel             Mode = "label"
	ModeUserLibrary       Mode = "userLibrary"
	ModeTopArtists        Mode = "topArtists"
	ModeTopArtistsRelated Mode = "topArtistsRelated"
	ModeEditorialFeed     Mode = "editorialFeed"
	ModeFeaturedPlaylist  Mode = "featuredPlaylist"
)

// Modes lists every mode in display order.
var Modes = []Mode{
	ModePublication, ModeGenre, ModeArtist, ModeRelatedArtist, ModeRelatedArtistByID,
	ModeLabel, ModeUserLibrary, ModeTopArtists, ModeTopArtistsRelated,
	ModeEditorialFeed, ModeFeaturedPlaylist,
}

// Family groups modes that share last-shown exclusion scope.
type Family string

const (
	FamilyPublication Family = "publication"
	FamilyGenre       Family = "genre"
	FamilyArtist      Family = "artist"
	FamilyLabel       Family = "label"
	FamilyLibrary     Family = "library"
	FamilyEditorial   Family = "editorial"
	FamilyPlaylist    Family = "playlist"
)

var modeFamilies = map[Mode]Family{
	ModePublication:       FamilyPublication,
	ModeGenre:             FamilyGenre,
	ModeArtist:            FamilyArtist,
	ModeRelatedArtist:     FamilyArtist,
	ModeRelatedArtistByID: FamilyArtist,
	ModeLabel:             FamilyLabel,
	ModeUserLibrary:       FamilyLibrary,
	ModeTopArtists:        FamilyLibrary,
	ModeTopArtistsRelated: FamilyLibrary,
	ModeEditorialFeed:     FamilyEditorial,
	ModeFeaturedPlaylist:  FamilyPlaylist,
}

// Family returns the exclusion scope of m, or "" for an unknown mode.
func (m Mode) Family() Family { return modeFamilies[m] }

func (m Mode) Valid() bool {
	_, ok := modeFamilies[m]
	return ok
}

// Default pool caps. They bound sampling cost on very large result sets at
// the price of uniformity beyond the cap; the values are empirical.
const (
	PoolCapBroad        = 1000
	PoolCapLabel        = 500
	PoolCapGenreArtists = 300
)

// Policy is the per-mode sampling contract.
type Policy struct {
	Family Family `json:"family"`
	// PoolCap bounds the first sampling step; 0 means uncapped.
	PoolCap int `json:"pool_cap"`
	// RejectSingles drops album_type=single draws.
	RejectSingles bool `json:"reject_singles"`
	RequiresUser  bool `json:"requires_user"`
	RequiresQuery bool `json:"requires_query"`
	// QueryHint documents what the query parameter means for this mode.
	QueryHint string `json:"query_hint,omitempty"`
}

// PoolCaps overrides the default caps; zero fields keep the default.
type PoolCaps struct {
	Broad        int
	Label        int
	GenreArtists int
}

func (c PoolCaps) withDefaults() PoolCaps {
	if c.Broad <= 0 {
		c.Broad = PoolCapBroad
	}
	if c.Label <= 0 {
		c.Label = PoolCapLabel
	}
	if c.GenreArtists <= 0 {
		c.GenreArtists = PoolCapGenreArtists
	}
	return c
}

// Policies builds the mode table.
func Policies(caps PoolCaps) map[Mode]Policy {
	caps = caps.withDefaults()
	table := map[Mode]Policy{
		ModePublication:       {PoolCap: 0, QueryHint: "reviewer slug, optional"},
		ModeGenre:             {PoolCap: caps.GenreArtists, RejectSingles: true, RequiresQuery: true, QueryHint: "genre name"},
		ModeArtist:            {PoolCap: caps.Broad, RejectSingles: true, RequiresQuery: true, QueryHint: "artist name"},
		ModeRelatedArtist:     {PoolCap: caps.Broad, RejectSingles: true, RequiresQuery: true, QueryHint: "artist name"},
		ModeRelatedArtistByID: {PoolCap: caps.Broad, RejectSingles: true, RequiresQuery: true, QueryHint: "catalog artist id"},
		ModeLabel:             {PoolCap: caps.Label, RejectSingles: true, RequiresQuery: true, QueryHint: "record label"},
		ModeUserLibrary:       {PoolCap: caps.Broad, RequiresUser: true},
		ModeTopArtists:        {PoolCap: caps.Broad, RejectSingles: true, RequiresUser: true},
		ModeTopArtistsRelated: {PoolCap: caps.Broad, RejectSingles: true, RequiresUser: true},
		ModeEditorialFeed:     {PoolCap: 0, QueryHint: "feed slug, optional"},
		ModeFeaturedPlaylist:  {PoolCap: caps.Broad},
	}
	for m, p := range table {
		p.Family = m.Family()
		table[m] = p
	}
	return table
}

// Candidate is the item under consideration for presentation. Never
// mutated once built.
type Candidate struct {
	Kind           catalog.Kind `json:"kind"`
	ExternalID     string       `json:"external_id"`
	Title          string       `json:"title"`
	PrimaryCreator string       `json:"primary_creator"`
	ArtworkRef     string       `json:"artwork_ref,omitempty"`
	PlayableURL    string       `json:"playable_url"`
	Genres         []string     `json:"genres,omitempty"`
	Popularity     *int         `json:"popularity,omitempty"`
	// ReviewURL links the review that sourced a corpus candidate.
	ReviewURL string `json:"review_url,omitempty"`
	Reviewer  string `json:"reviewer,omitempty"`
}

func candidateFromItem(it catalog.Item) Candidate {
	c := Candidate{
		Kind:           it.Kind,
		ExternalID:     it.ID,
		Title:          it.Name,
		PrimaryCreator: it.PrimaryCreator(),
		ArtworkRef:     it.ImageURL,
		PlayableURL:    it.URL,
	}
	if len(it.Genres) > 0 {
		c.Genres = append([]string(nil), it.Genres...)
	}
	if it.Popularity > 0 {
		p := it.Popularity
		c.Popularity = &p
	}
	return c
}

// SourcingRequest is built fresh for every request.
type SourcingRequest struct {
	Mode      Mode   `validate:"required"`
	Query     string `validate:"max=200"`
	ExcludeID string `validate:"max=128"`
	Market    string `validate:"omitempty,len=2,alpha"`
}

var validate = validator.New()

// Normalize trims the request and upper-cases the market.
func (r SourcingRequest) Normalize() SourcingRequest {
	// Quotes delimit field filters upstream and are dropped from queries.
	r.Query = strings.TrimSpace(strings.ReplaceAll(r.Query, `"`, ""))
	r.ExcludeID = strings.TrimSpace(r.ExcludeID)
	r.Market = strings.ToUpper(strings.TrimSpace(r.Market))
	return r
}

// Validate checks field constraints and the mode's query requirement.
func (r SourcingRequest) Validate(policy Policy) error {
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, r.Mode)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if policy.RequiresQuery && r.Query == "" {
		return fmt.Errorf("%w: mode %s requires a query (%s)", ErrInvalidRequest, r.Mode, policy.QueryHint)
	}
	return nil
}
