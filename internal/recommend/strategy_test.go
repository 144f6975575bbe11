package recommend

import (
	"context"
	"fmt"
	"testing"

	"crateapi/internal/platform/catalog"
	"crateapi/internal/review"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func albumItem(id, albumType string) catalog.Item {
	return catalog.Item{
		Kind:      catalog.KindAlbum,
		ID:        id,
		Name:      "Album " + id,
		AlbumType: albumType,
		Artists:   []catalog.ArtistRef{{ID: "art", Name: "Artist"}},
		URL:       "https://open/" + id,
	}
}

func artistItem(id string, genres ...string) catalog.Item {
	return catalog.Item{Kind: catalog.KindArtist, ID: id, Name: "Artist " + id, Genres: genres}
}

func pageOf(items ...catalog.Item) catalog.Page {
	return catalog.Page{Total: len(items), Items: items}
}

type routerFixture struct {
	cat    *MockCatalog
	router *Router
	retry  *Retrier
}

func newRouterFixture(t *testing.T, rnd Rand, publications, editorial Corpus) routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	retry, _ := newTestRetrier(DefaultRetryPolicy())
	return routerFixture{
		cat:    NewMockCatalog(ctrl),
		router: NewRouter(NewSampler(catalog.MaxPageSize, rnd), PoolCaps{}, publications, editorial),
		retry:  retry,
	}
}

func (f routerFixture) run(t *testing.T, req SourcingRequest) (Candidate, int, error) {
	t.Helper()
	produce, err := f.router.Producer(req, f.cat)
	require.NoError(t, err)
	return f.retry.Do(context.Background(), req.ExcludeID, produce, Playable)
}

func TestRouter_GenreNeverReturnsSingle(t *testing.T) {
	// draws: artist 0, album 0 (the single), artist 0, album 1, then tag shuffle
	f := newRouterFixture(t, &seqRand{vals: []int{0, 0, 0, 1, 0, 0}}, nil, nil)

	seed := artistItem("mbv", "shoegaze", "noise pop", "dream pop")
	f.cat.EXPECT().Search(gomock.Any(), catalog.SearchRequest{
		Criteria: catalog.Criteria{Genre: "shoegaze"},
		Type:     catalog.KindArtist,
		Limit:    catalog.MaxPageSize,
		Offset:   0,
		Market:   "US",
	}).Return(pageOf(seed), nil).Times(2)
	f.cat.EXPECT().ArtistAlbums(gomock.Any(), "mbv", catalog.MaxPageSize, 0, "US").
		Return(pageOf(albumItem("s1", catalog.AlbumTypeSingle), albumItem("a1", "album")), nil).Times(2)

	c, attempts, err := f.run(t, SourcingRequest{Mode: ModeGenre, Query: "shoegaze", Market: "US"})
	require.NoError(t, err)
	assert.Equal(t, "a1", c.ExternalID)
	assert.Equal(t, 2, attempts, "the single is redrawn")
	require.Len(t, c.Genres, 3)
	assert.Equal(t, "shoegaze", c.Genres[0])
	assert.ElementsMatch(t, seed.Genres, c.Genres)
}

func TestRouter_GenreCapsArtistPool(t *testing.T) {
	f := newRouterFixture(t, &seqRand{vals: []int{1 << 20}}, nil, nil)

	var offsets []int
	f.cat.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req catalog.SearchRequest) (catalog.Page, error) {
			offsets = append(offsets, req.Offset)
			return catalog.Page{Total: 9000, Items: []catalog.Item{artistItem(fmt.Sprintf("a%d", req.Offset))}}, nil
		}).Times(2)
	f.cat.EXPECT().ArtistAlbums(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pageOf(albumItem("x", "album")), nil)

	_, _, err := f.run(t, SourcingRequest{Mode: ModeGenre, Query: "ambient"})
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	assert.Equal(t, (1<<20)%PoolCapGenreArtists, offsets[1])
	assert.Less(t, offsets[1], PoolCapGenreArtists)
}

func TestRouter_LabelUsesLabelCap(t *testing.T) {
	f := newRouterFixture(t, &seqRand{vals: []int{PoolCapLabel - 1}}, nil, nil)

	f.cat.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req catalog.SearchRequest) (catalog.Page, error) {
			assert.Equal(t, catalog.Criteria{Label: "4AD"}, req.Criteria)
			assert.Equal(t, catalog.KindAlbum, req.Type)
			if req.Offset == 0 {
				return catalog.Page{Total: 20000, Items: []catalog.Item{albumItem("first", "album")}}, nil
			}
			assert.Equal(t, PoolCapLabel-1, req.Offset)
			assert.Equal(t, 1, req.Limit)
			return catalog.Page{Total: 20000, Items: []catalog.Item{albumItem("deep", "album")}}, nil
		}).Times(2)

	c, _, err := f.run(t, SourcingRequest{Mode: ModeLabel, Query: "4AD"})
	require.NoError(t, err)
	assert.Equal(t, "deep", c.ExternalID)
}

func TestRouter_ArtistEmptyPool(t *testing.T) {
	f := newRouterFixture(t, nil, nil, nil)
	f.cat.EXPECT().Search(gomock.Any(), gomock.Any()).Return(catalog.Page{}, nil).Times(1)

	_, attempts, err := f.run(t, SourcingRequest{Mode: ModeArtist, Query: "nobody at all"})
	assert.ErrorIs(t, err, ErrEmptyPool)
	assert.Equal(t, 1, attempts)
}

func TestRouter_RelatedArtistFallsBackToSeed(t *testing.T) {
	tests := []struct {
		name    string
		related []catalog.Item
		err     error
	}{
		{"empty list", []catalog.Item{}, nil},
		{"missing list", nil, &catalog.APIError{Endpoint: "related_artists", StatusCode: 404}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t, nil, nil, nil)
			f.cat.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req catalog.SearchRequest) (catalog.Page, error) {
					assert.Equal(t, catalog.KindArtist, req.Type)
					assert.Equal(t, 1, req.Limit)
					return pageOf(artistItem("seed")), nil
				})
			f.cat.EXPECT().RelatedArtists(gomock.Any(), "seed").Return(tt.related, tt.err)
			f.cat.EXPECT().ArtistAlbums(gomock.Any(), "seed", gomock.Any(), gomock.Any(), gomock.Any()).
				Return(pageOf(albumItem("own", "album")), nil)

			c, attempts, err := f.run(t, SourcingRequest{Mode: ModeRelatedArtist, Query: "Grouper"})
			require.NoError(t, err)
			assert.Equal(t, "own", c.ExternalID)
			assert.Equal(t, 1, attempts)
		})
	}
}

func TestRouter_RelatedArtistUnknownSeed(t *testing.T) {
	f := newRouterFixture(t, nil, nil, nil)
	f.cat.EXPECT().Search(gomock.Any(), gomock.Any()).Return(catalog.Page{}, nil)

	_, _, err := f.run(t, SourcingRequest{Mode: ModeRelatedArtist, Query: "no such band"})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestRouter_RelatedArtistByIDResolvesSeedOnce(t *testing.T) {
	// pick index 1 (first related), then 0 (seed)
	f := newRouterFixture(t, &seqRand{vals: []int{1, 0, 0, 0}}, nil, nil)

	f.cat.EXPECT().GetByID(gomock.Any(), catalog.KindArtist, "seed").Return(artistItem("seed"), nil).Times(1)
	f.cat.EXPECT().RelatedArtists(gomock.Any(), "seed").
		Return([]catalog.Item{artistItem("r1"), artistItem("seed"), artistItem("r2")}, nil).Times(1)
	f.cat.EXPECT().ArtistAlbums(gomock.Any(), "r1", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(catalog.Page{}, nil)
	f.cat.EXPECT().ArtistAlbums(gomock.Any(), "seed", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pageOf(albumItem("seed-album", "album")), nil)

	c, attempts, err := f.run(t, SourcingRequest{Mode: ModeRelatedArtistByID, Query: "seed"})
	require.NoError(t, err)
	assert.Equal(t, "seed-album", c.ExternalID)
	assert.Equal(t, 2, attempts, "an artist without releases is a miss, not an empty pool")
}

func TestRouter_RelatedArtistByIDUnknownSeed(t *testing.T) {
	f := newRouterFixture(t, nil, nil, nil)
	f.cat.EXPECT().GetByID(gomock.Any(), catalog.KindArtist, "gone").
		Return(catalog.Item{}, &catalog.APIError{Endpoint: "get_artist", StatusCode: 404})
	f.cat.EXPECT().RelatedArtists(gomock.Any(), "gone").Return(nil, nil).AnyTimes()

	_, attempts, err := f.run(t, SourcingRequest{Mode: ModeRelatedArtistByID, Query: "gone"})
	assert.ErrorIs(t, err, ErrEmptyPool)
	assert.Equal(t, 1, attempts)
}

func TestWithSeed_Dedupes(t *testing.T) {
	pool := withSeed(artistItem("s"), []catalog.Item{artistItem("a"), artistItem("s"), artistItem("a"), artistItem("b")})
	ids := make([]string, 0, len(pool))
	for _, it := range pool {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"s", "a", "b"}, ids)
}

func TestRouter_FeaturedPlaylist(t *testing.T) {
	f := newRouterFixture(t, &seqRand{vals: []int{1}}, nil, nil)
	playlist := catalog.Item{Kind: catalog.KindPlaylist, ID: "pl2", Name: "Fresh Finds", Owner: "Editors", URL: "https://open/pl2"}
	f.cat.EXPECT().FeaturedPlaylists(gomock.Any(), catalog.MaxPageSize, 0, "SE").
		Return(pageOf(catalog.Item{Kind: catalog.KindPlaylist, ID: "pl1", URL: "https://open/pl1"}, playlist), nil)

	c, _, err := f.run(t, SourcingRequest{Mode: ModeFeaturedPlaylist, Market: "SE"})
	require.NoError(t, err)
	assert.Equal(t, catalog.KindPlaylist, c.Kind)
	assert.Equal(t, "pl2", c.ExternalID)
	assert.Equal(t, "Editors", c.PrimaryCreator)
}

func TestRouter_TopArtistsRelated(t *testing.T) {
	f := newRouterFixture(t, &seqRand{vals: []int{0, 2, 0}}, nil, nil)
	f.cat.EXPECT().TopArtists(gomock.Any(), catalog.MaxPageSize, 0).Return(pageOf(artistItem("top")), nil)
	f.cat.EXPECT().RelatedArtists(gomock.Any(), "top").Return([]catalog.Item{artistItem("n1"), artistItem("n2")}, nil)
	f.cat.EXPECT().ArtistAlbums(gomock.Any(), "n2", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(pageOf(albumItem("n2-album", "album")), nil)

	c, _, err := f.run(t, SourcingRequest{Mode: ModeTopArtistsRelated})
	require.NoError(t, err)
	assert.Equal(t, "n2-album", c.ExternalID)
}

func TestRouter_UserLibraryKeepsSingles(t *testing.T) {
	f := newRouterFixture(t, &seqRand{vals: []int{0}}, nil, nil)
	f.cat.EXPECT().SavedAlbums(gomock.Any(), catalog.MaxPageSize, 0).
		Return(pageOf(albumItem("saved-single", catalog.AlbumTypeSingle)), nil)

	c, _, err := f.run(t, SourcingRequest{Mode: ModeUserLibrary})
	require.NoError(t, err)
	assert.Equal(t, "saved-single", c.ExternalID)
}

func TestRouter_PublicationSkipsUnresolvableRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	corpus := NewMockCorpus(ctrl)
	f := newRouterFixture(t, nil, corpus, nil)

	gone := review.Item{ID: 7, Reviewer: "pitchfork", Name: "Lost Tapes", Creator: "Nobody"}
	found := review.Item{ID: 9, Reviewer: "pitchfork", Name: "Souvlaki", Creator: "Slowdive", ReviewURL: "https://reviews/9"}

	gomock.InOrder(
		corpus.EXPECT().RandomItem(gomock.Any(), "pitchfork", gomock.Nil()).Return(gone, nil),
		corpus.EXPECT().RandomItem(gomock.Any(), "pitchfork", []int64{7}).Return(found, nil),
	)
	f.cat.EXPECT().Search(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req catalog.SearchRequest) (catalog.Page, error) {
			if req.Criteria.Artist == "Slowdive" {
				return pageOf(albumItem("souvlaki", "album")), nil
			}
			return catalog.Page{}, nil
		}).Times(3)

	c, attempts, err := f.run(t, SourcingRequest{Mode: ModePublication, Query: "pitchfork"})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "souvlaki", c.ExternalID)
	assert.Equal(t, "https://reviews/9", c.ReviewURL)
	assert.Equal(t, "pitchfork", c.Reviewer)
}

func TestRouter_PublicationEmptyCorpus(t *testing.T) {
	ctrl := gomock.NewController(t)
	corpus := NewMockCorpus(ctrl)
	f := newRouterFixture(t, nil, corpus, nil)
	corpus.EXPECT().RandomItem(gomock.Any(), "", gomock.Any()).Return(review.Item{}, review.ErrEmpty)

	_, attempts, err := f.run(t, SourcingRequest{Mode: ModePublication})
	assert.ErrorIs(t, err, ErrEmptyPool)
	assert.Equal(t, 1, attempts)
}

func TestRouter_EditorialWithoutSourceIsEmpty(t *testing.T) {
	f := newRouterFixture(t, nil, nil, nil)
	_, _, err := f.run(t, SourcingRequest{Mode: ModeEditorialFeed})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestRouter_EditorialResolvesByCatalogID(t *testing.T) {
	ctrl := gomock.NewController(t)
	feed := NewMockCorpus(ctrl)
	f := newRouterFixture(t, nil, nil, feed)
	feed.EXPECT().RandomItem(gomock.Any(), "quietus", gomock.Any()).Return(review.Item{
		ID:       11,
		Reviewer: "quietus",
		Metadata: map[string]string{review.MetaCatalogID: "alb42"},
	}, nil)
	f.cat.EXPECT().GetByID(gomock.Any(), catalog.KindAlbum, "alb42").Return(albumItem("alb42", "album"), nil)

	c, _, err := f.run(t, SourcingRequest{Mode: ModeEditorialFeed, Query: "quietus"})
	require.NoError(t, err)
	assert.Equal(t, "alb42", c.ExternalID)
}

func TestRouter_UnknownMode(t *testing.T) {
	f := newRouterFixture(t, nil, nil, nil)
	_, err := f.router.Producer(SourcingRequest{Mode: "mystery"}, f.cat)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPolicies(t *testing.T) {
	table := Policies(PoolCaps{Label: 42})
	require.Len(t, table, len(Modes))
	for _, m := range Modes {
		p, ok := table[m]
		require.True(t, ok, m)
		assert.Equal(t, m.Family(), p.Family)
		assert.NotEmpty(t, p.Family)
	}
	assert.Equal(t, 42, table[ModeLabel].PoolCap)
	assert.Equal(t, PoolCapBroad, table[ModeArtist].PoolCap)
	assert.Equal(t, PoolCapGenreArtists, table[ModeGenre].PoolCap)
	assert.True(t, table[ModeGenre].RejectSingles)
	assert.False(t, table[ModeUserLibrary].RejectSingles)
	assert.True(t, table[ModeTopArtists].RequiresUser)
	assert.False(t, table[ModeFeaturedPlaylist].RequiresUser)
	assert.Equal(t, table[ModeRelatedArtist].Family, table[ModeArtist].Family)
}
