package usecase_enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	infra_library "github.com/humanbelnik/reelswap/internal/infra/library"
	infra_omdb "github.com/humanbelnik/reelswap/internal/infra/omdb"
	infra_tmdb "github.com/humanbelnik/reelswap/internal/infra/tmdb"
	"github.com/humanbelnik/reelswap/internal/model"
	"github.com/humanbelnik/reelswap/internal/service/aliases"
	storage_index "github.com/humanbelnik/reelswap/internal/storage/index"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type EnrichUnitSuite struct {
	suite.Suite
}

type ratingsStub struct {
	ratings map[string]float64
	err     error
	calls   int
}

func (s *ratingsStub) RatingByIMDbID(ctx context.Context, imdbID string) (float64, bool, error) {
	s.calls++
	if s.err != nil {
		return 0, false, s.err
	}
	v, ok := s.ratings[imdbID]
	return v, ok, nil
}

type metaStub struct {
	record *infra_omdb.Record
	err    error
	calls  int
}

func (s *metaStub) ByIMDbID(ctx context.Context, imdbID string) (*infra_omdb.Record, error) {
	s.calls++
	return s.record, s.err
}

func (s *metaStub) ByTitle(ctx context.Context, title string, year int) (*infra_omdb.Record, error) {
	s.calls++
	return s.record, s.err
}

type detailStub struct {
	search      *infra_tmdb.SearchResponse
	find        *infra_tmdb.FindResponse
	detail      *infra_tmdb.Detail
	err         error
	searchCalls int
	detailCalls int
}

func (s *detailStub) SearchMovie(ctx context.Context, query string, year int) (*infra_tmdb.SearchResponse, error) {
	s.searchCalls++
	return s.search, s.err
}

func (s *detailStub) FindByIMDbID(ctx context.Context, imdbID string) (*infra_tmdb.FindResponse, error) {
	s.searchCalls++
	return s.find, s.err
}

func (s *detailStub) MovieDetail(ctx context.Context, movieID int64) (*infra_tmdb.Detail, error) {
	s.detailCalls++
	return s.detail, s.err
}

func (s *detailStub) Region() string {
	return "US"
}

type catalogStub struct {
	item *infra_library.Item
	err  error
}

func (s *catalogStub) Lookup(ctx context.Context, identity model.MovieIdentity) (*infra_library.Item, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return s.item, s.item != nil, nil
}

func (s *catalogStub) Candidates(ctx context.Context, count int) ([]infra_library.Item, error) {
	return nil, nil
}

type memorySnapshotter struct {
	state    model.PersistedState
	saveErr  error
	saves    int
	lastSave model.PersistedState
}

func (m *memorySnapshotter) Load() model.PersistedState {
	if m.state.MovieIndex == nil {
		return model.NewPersistedState()
	}
	return m.state
}

func (m *memorySnapshotter) Save(state model.PersistedState) error {
	m.saves++
	m.lastSave = state
	return m.saveErr
}

type resources struct {
	usecase *Usecase
	ratings *ratingsStub
	meta    *metaStub
	detail  *detailStub
	catalog *catalogStub
	store   *memorySnapshotter
	index   *storage_index.Index
	ctx     context.Context
}

func initResources(t provider.T) *resources {
	ratings := &ratingsStub{ratings: map[string]float64{}}
	meta := &metaStub{err: errors.New("meta unavailable")}
	detail := &detailStub{err: errors.New("detail unavailable")}
	catalog := &catalogStub{}
	store := &memorySnapshotter{}
	index := storage_index.New(store, time.Minute)

	usecase := New(ratings, meta, detail, catalog, aliases.New(), index, 16, 16)

	return &resources{
		usecase: usecase,
		ratings: ratings,
		meta:    meta,
		detail:  detail,
		catalog: catalog,
		store:   store,
		index:   index,
		ctx:     context.Background(),
	}
}

func matrixIdentity() model.MovieIdentity {
	return model.MovieIdentity{Title: "The Matrix", Year: 1999, IMDbID: "tt0133093"}
}

func matrixRecord() *infra_omdb.Record {
	return &infra_omdb.Record{
		Title:      "The Matrix",
		Rated:      "R",
		Runtime:    "136 min",
		Genre:      "Action, Sci-Fi",
		Director:   "Lana Wachowski, Lilly Wachowski",
		Writer:     "Lilly Wachowski, Lana Wachowski",
		Actors:     "Keanu Reeves, Laurence Fishburne, Carrie-Anne Moss",
		Plot:       "A computer hacker learns the truth.",
		Poster:     "https://example.com/matrix.jpg",
		IMDbRating: "8.7",
		IMDbVotes:  "1,800,000",
		IMDbID:     "tt0133093",
		Response:   "True",
	}
}

func matrixDetail() *infra_tmdb.Detail {
	return &infra_tmdb.Detail{
		ID:          603,
		IMDbID:      "tt0133093",
		Title:       "The Matrix",
		ReleaseDate: "1999-03-31",
		Overview:    "Set in the 22nd century.",
		Runtime:     136,
		Genres:      []infra_tmdb.Genre{{ID: 28, Name: "Action"}},
		VoteAverage: 8.2,
		VoteCount:   24000,
		Credits: infra_tmdb.Credits{
			Cast: []infra_tmdb.CastMember{{Name: "Keanu Reeves"}, {Name: "Laurence Fishburne"}},
			Crew: []infra_tmdb.CrewMember{{Name: "Lana Wachowski", Job: "Director"}},
		},
		WatchProviders: infra_tmdb.WatchProviders{
			Results: map[string]infra_tmdb.RegionProviders{
				"US": {
					Flatrate: []infra_tmdb.ProviderEntry{{ProviderName: "Netflix"}},
					Free:     []infra_tmdb.ProviderEntry{{ProviderName: "Tubi TV"}},
				},
			},
		},
	}
}

func (suite *EnrichUnitSuite) TestAllProvidersDownStillYieldsIdentity(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.ratings.err = errors.New("dataset unavailable")
	r.catalog.err = errors.New("catalog unavailable")

	m := r.usecase.Enrich(r.ctx, matrixIdentity())

	assert.Equal(t, "imdb:tt0133093", m.ID)
	assert.Equal(t, "The Matrix", m.Title)
	assert.Equal(t, 1999, m.Year)
	assert.Zero(t, m.Ratings.Composite)
	assert.Empty(t, m.Streaming.Subscription)
}

func (suite *EnrichUnitSuite) TestTotalFailureIsNotCached(t provider.T) {
	t.Parallel()
	r := initResources(t)

	first := r.usecase.Enrich(r.ctx, matrixIdentity())
	assert.Equal(t, "imdb:tt0133093", first.ID)
	assert.Zero(t, r.index.Len(), "an identity-only result is not persisted")

	// Once the provider recovers, the next call enriches instead of
	// serving the degraded result from the cache.
	r.meta.record, r.meta.err = matrixRecord(), nil
	second := r.usecase.Enrich(r.ctx, matrixIdentity())

	assert.Equal(t, 2, r.meta.calls, "the outage result must not shadow the title")
	assert.Equal(t, 8.7, second.Ratings.IMDb)
	_, ok := r.index.Get(second.ID)
	assert.True(t, ok)
}

func (suite *EnrichUnitSuite) TestDatasetRatingOverridesProviders(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.meta.record, r.meta.err = matrixRecord(), nil
	r.detail.find = &infra_tmdb.FindResponse{MovieResults: []infra_tmdb.SearchResult{{ID: 603}}}
	r.detail.detail, r.detail.err = matrixDetail(), nil
	r.ratings.ratings["tt0133093"] = 9.1

	m := r.usecase.Enrich(r.ctx, matrixIdentity())

	assert.Equal(t, 9.1, m.Ratings.IMDb, "local dataset outranks the network rating")
	assert.Equal(t, 8.2, m.Ratings.TMDB)
	assert.InDelta(t, (9.1+8.2)/2, m.Ratings.Composite, 1e-9)
}

func (suite *EnrichUnitSuite) TestMetaFieldsWinDetailFillsGaps(t provider.T) {
	t.Parallel()
	r := initResources(t)
	rec := matrixRecord()
	rec.Plot = "Meta plot."
	r.meta.record, r.meta.err = rec, nil
	r.detail.find = &infra_tmdb.FindResponse{MovieResults: []infra_tmdb.SearchResult{{ID: 603}}}
	r.detail.detail, r.detail.err = matrixDetail(), nil

	m := r.usecase.Enrich(r.ctx, matrixIdentity())

	assert.Equal(t, "Meta plot.", m.Plot)
	assert.Equal(t, "R", m.ContentRating)
	assert.Equal(t, 136, m.RuntimeMin)
	assert.Equal(t, int64(603), m.TMDBID)
	if assert.Len(t, m.Streaming.Subscription, 1) {
		assert.Equal(t, "Netflix", m.Streaming.Subscription[0].Name)
	}
	if assert.Len(t, m.Streaming.Free, 1) {
		assert.Equal(t, "Tubi", m.Streaming.Free[0].Name, "provider names are canonicalized")
	}
}

func (suite *EnrichUnitSuite) TestDetailAloneWhenMetaDown(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.detail.find = &infra_tmdb.FindResponse{MovieResults: []infra_tmdb.SearchResult{{ID: 603}}}
	r.detail.detail, r.detail.err = matrixDetail(), nil

	m := r.usecase.Enrich(r.ctx, matrixIdentity())

	assert.Equal(t, "Set in the 22nd century.", m.Plot)
	assert.Equal(t, []string{"Action"}, m.Genres)
	assert.Equal(t, "Lana Wachowski", m.Director)
	assert.Equal(t, 8.2, m.Ratings.TMDB)
	assert.Zero(t, m.Ratings.IMDb)
}

func (suite *EnrichUnitSuite) TestEnrichIsMemoized(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.meta.record, r.meta.err = matrixRecord(), nil
	r.detail.find = &infra_tmdb.FindResponse{MovieResults: []infra_tmdb.SearchResult{{ID: 603}}}
	r.detail.detail, r.detail.err = matrixDetail(), nil

	_ = r.usecase.Enrich(r.ctx, matrixIdentity())
	_ = r.usecase.Enrich(r.ctx, matrixIdentity())

	assert.Equal(t, 1, r.meta.calls)
	assert.Equal(t, 1, r.detail.detailCalls)
}

func (suite *EnrichUnitSuite) TestTitleSearchResolutionIsMemoized(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.detail.search = &infra_tmdb.SearchResponse{Results: []infra_tmdb.SearchResult{{ID: 603}}}
	r.detail.detail, r.detail.err = matrixDetail(), nil
	identity := model.MovieIdentity{Title: "The Matrix", Year: 1999}

	first := r.usecase.Enrich(r.ctx, identity)
	r.usecase.detailCache.Clear()
	second := r.usecase.Enrich(r.ctx, identity)

	assert.Equal(t, first.TMDBID, second.TMDBID)
	assert.Equal(t, 1, r.detail.searchCalls, "second resolution must hit the search cache")
}

func (suite *EnrichUnitSuite) TestEnrichPersistsToIndex(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.ratings.ratings["tt0133093"] = 8.7

	m := r.usecase.Enrich(r.ctx, matrixIdentity())

	stored, ok := r.index.Get(m.ID)
	assert.True(t, ok)
	assert.Equal(t, m, stored)

	got, err := r.usecase.ByID(m.ID)
	assert.NoError(t, err)
	assert.Equal(t, m, got)
}

func (suite *EnrichUnitSuite) TestByIDUnknown(t provider.T) {
	t.Parallel()
	r := initResources(t)

	_, err := r.usecase.ByID("imdb:tt9999999")

	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func (suite *EnrichUnitSuite) TestRefresh(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		prepare     func(r *resources) string
		saveErr     error
		expectError bool
		check       func(t provider.T, r *resources, m model.Movie)
	}{
		{
			name: "Should refetch and persist immediately",
			prepare: func(r *resources) string {
				r.catalog.item = &infra_library.Item{Key: "lib-42"}
				m := r.usecase.Enrich(r.ctx, matrixIdentity())
				r.meta.record, r.meta.err = matrixRecord(), nil
				return m.ID
			},
			check: func(t provider.T, r *resources, m model.Movie) {
				assert.Equal(t, 8.7, m.Ratings.IMDb)
				assert.Equal(t, 1, r.store.saves)
			},
		},
		{
			name: "Should surface snapshot write failure",
			prepare: func(r *resources) string {
				r.catalog.item = &infra_library.Item{Key: "lib-42"}
				m := r.usecase.Enrich(r.ctx, matrixIdentity())
				return m.ID
			},
			saveErr:     errors.New("disk full"),
			expectError: true,
		},
		{
			name: "Should return not found for unknown id",
			prepare: func(r *resources) string {
				return "imdb:tt9999999"
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			id := tc.prepare(r)
			r.store.saveErr = tc.saveErr

			m, err := r.usecase.Refresh(r.ctx, id)

			if tc.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tc.check != nil {
				tc.check(t, r, m)
			}
		})
	}
}

func TestEnrichUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(EnrichUnitSuite))
}
