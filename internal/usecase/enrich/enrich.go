// Package usecase_enrich assembles movie detail from the local ratings
// dataset, two metadata providers and the personal catalog, with
// per-process memoization and silent tier-to-tier degradation.
package usecase_enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/humanbelnik/reelswap/internal/cache"
	infra_library "github.com/humanbelnik/reelswap/internal/infra/library"
	infra_omdb "github.com/humanbelnik/reelswap/internal/infra/omdb"
	infra_tmdb "github.com/humanbelnik/reelswap/internal/infra/tmdb"
	"github.com/humanbelnik/reelswap/internal/model"
	"github.com/humanbelnik/reelswap/internal/service/aliases"
	storage_index "github.com/humanbelnik/reelswap/internal/storage/index"
)

var ErrResourceNotFound = errors.New("no such resource")

// RatingsIndex is the local bulk-ratings dataset: no network, rating
// only, highest precedence.
type RatingsIndex interface {
	RatingByIMDbID(ctx context.Context, imdbID string) (float64, bool, error)
}

// MetaProvider is the first general-purpose metadata provider, queried
// by known id when possible, else by normalized title and year.
type MetaProvider interface {
	ByIMDbID(ctx context.Context, imdbID string) (*infra_omdb.Record, error)
	ByTitle(ctx context.Context, title string, year int) (*infra_omdb.Record, error)
}

// DetailProvider is the second provider, always consulted for
// structured detail including streaming availability.
type DetailProvider interface {
	SearchMovie(ctx context.Context, query string, year int) (*infra_tmdb.SearchResponse, error)
	FindByIMDbID(ctx context.Context, imdbID string) (*infra_tmdb.FindResponse, error)
	MovieDetail(ctx context.Context, movieID int64) (*infra_tmdb.Detail, error)
	Region() string
}

// Catalog is the personal-catalog collaborator.
type Catalog interface {
	Lookup(ctx context.Context, identity model.MovieIdentity) (*infra_library.Item, bool, error)
	Candidates(ctx context.Context, count int) ([]infra_library.Item, error)
}

const (
	topCastSize   = 5
	topWriterSize = 3
)

type Usecase struct {
	ratings RatingsIndex
	meta    MetaProvider
	detail  DetailProvider
	catalog Catalog
	aliases *aliases.Table
	index   *storage_index.Index

	// Separate memoization per query kind, both keyed by normalized
	// queries. Entries live until capacity eviction or an explicit
	// refresh; there is no timed invalidation.
	searchCache *cache.LRU[int64]
	detailCache *cache.LRU[model.Movie]

	callTimeout time.Duration
	logger      *slog.Logger
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(u *Usecase) {
		if d > 0 {
			u.callTimeout = d
		}
	}
}

func New(
	ratings RatingsIndex,
	meta MetaProvider,
	detail DetailProvider,
	catalog Catalog,
	aliasTable *aliases.Table,
	index *storage_index.Index,
	searchCacheSize int,
	detailCacheSize int,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		ratings:     ratings,
		meta:        meta,
		detail:      detail,
		catalog:     catalog,
		aliases:     aliasTable,
		index:       index,
		searchCache: cache.NewLRU[int64](searchCacheSize),
		detailCache: cache.NewLRU[model.Movie](detailCacheSize),
		callTimeout: 10 * time.Second,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Enrich returns best-effort detail for the identity. Every provider
// failure degrades to the next tier; when everything fails the result
// carries the identity and nothing else. Enrich never returns an error.
//
// An identity-only result is not memoized or persisted: a transient
// outage must not shadow the title until a refresh or cache eviction.
func (u *Usecase) Enrich(ctx context.Context, identity model.MovieIdentity) model.Movie {
	id := identity.CanonicalID()
	if m, ok := u.detailCache.Get(id); ok {
		return m
	}

	m, enriched := u.enrich(ctx, id, identity)
	if enriched {
		u.detailCache.Set(id, m)
		u.index.Put(m)
	}
	return m
}

// Refresh forces a single-title refetch: both caches are busted for the
// title and the fresh result is persisted immediately. The snapshot
// write error is surfaced since the refresh was explicitly requested.
func (u *Usecase) Refresh(ctx context.Context, id string) (model.Movie, error) {
	prev, ok := u.index.Get(id)
	if !ok {
		return model.Movie{}, ErrResourceNotFound
	}
	identity := prev.Identity()

	u.detailCache.Delete(id)
	u.searchCache.Delete(searchKey(identity))

	// An explicit refresh overwrites even a degraded result; the caller
	// asked for a refetch and gets what the providers returned.
	m, _ := u.enrich(ctx, id, identity)
	u.detailCache.Set(id, m)
	u.index.Put(m)
	if err := u.index.Save(); err != nil {
		return m, err
	}
	return m, nil
}

// ByID serves previously enriched detail from the index.
func (u *Usecase) ByID(id string) (model.Movie, error) {
	if m, ok := u.index.Get(id); ok {
		return m, nil
	}
	return model.Movie{}, ErrResourceNotFound
}

// enrich runs the fallback chain and reports whether any tier
// contributed. Field precedence:
//
//	rating:           ratings dataset > meta provider > detail provider
//	structured detail: meta provider first, detail provider fills gaps;
//	                  streaming availability only the detail provider has
func (u *Usecase) enrich(ctx context.Context, id string, identity model.MovieIdentity) (model.Movie, bool) {
	m := model.Movie{
		ID:     id,
		Title:  identity.Title,
		Year:   identity.Year,
		IMDbID: identity.IMDbID,
		TMDBID: identity.TMDBID,
	}

	gotMeta := u.applyMeta(ctx, &m)
	gotDetail := u.applyDetail(ctx, &m)
	gotRating := u.applyDatasetRating(ctx, &m)
	m.Ratings.Compose()
	owned := u.applyOwnership(ctx, &m)

	return m, gotMeta || gotDetail || gotRating || owned
}

func (u *Usecase) applyMeta(ctx context.Context, m *model.Movie) bool {
	ctx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	var rec *infra_omdb.Record
	var err error
	if m.IMDbID != "" {
		rec, err = u.meta.ByIMDbID(ctx, m.IMDbID)
	} else if m.Title != model.EmptyTitle {
		rec, err = u.meta.ByTitle(ctx, m.Title, m.Year)
	} else {
		return false
	}
	if err != nil {
		u.logger.Debug("meta provider degraded", slog.String("movie", m.ID), slog.String("error", err.Error()))
		return false
	}

	mergeMeta(m, rec)
	return true
}

// mergeMeta folds the meta-provider record into the movie. The record
// wins for every field it actually carries.
func mergeMeta(m *model.Movie, rec *infra_omdb.Record) {
	if m.IMDbID == "" {
		m.IMDbID = rec.IMDbID
	}
	if m.Title == model.EmptyTitle {
		m.Title = rec.Title
	}
	if m.Plot == "" && rec.Plot != "N/A" {
		m.Plot = rec.Plot
	}
	if rec.Rated != "" && rec.Rated != "N/A" {
		m.ContentRating = rec.Rated
	}
	if rec.Poster != "" && rec.Poster != "N/A" {
		m.PosterLink = rec.Poster
	}
	if genres := rec.GenreList(); len(genres) > 0 {
		m.Genres = genres
	}
	if cast := rec.ActorList(); len(cast) > 0 {
		m.Cast = topN(cast, topCastSize)
	}
	if writers := rec.WriterList(); len(writers) > 0 {
		m.Writers = topN(writers, topWriterSize)
	}
	if rec.Director != "" && rec.Director != "N/A" {
		m.Director = rec.Director
	}
	if rt := rec.RuntimeMinutes(); rt > 0 {
		m.RuntimeMin = rt
	}
	if votes := rec.VotesValue(); votes > 0 {
		m.VoteCount = votes
	}
	m.Ratings.IMDb = rec.RatingValue()
}

func (u *Usecase) applyDetail(ctx context.Context, m *model.Movie) bool {
	tmdbID := u.resolveTMDBID(ctx, m)
	if tmdbID <= 0 {
		return false
	}
	m.TMDBID = tmdbID

	ctx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	detail, err := u.detail.MovieDetail(ctx, tmdbID)
	if err != nil {
		u.logger.Debug("detail provider degraded", slog.String("movie", m.ID), slog.String("error", err.Error()))
		return false
	}

	u.mergeDetail(m, detail)
	return true
}

// resolveTMDBID finds the detail provider's id for the movie: the known
// id, an external-id lookup, or a title+year search. Search results are
// memoized in the search cache.
func (u *Usecase) resolveTMDBID(ctx context.Context, m *model.Movie) int64 {
	if m.TMDBID > 0 {
		return m.TMDBID
	}

	key := searchKey(m.Identity())
	if id, ok := u.searchCache.Get(key); ok {
		return id
	}

	ctx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	var id int64
	switch {
	case m.IMDbID != "":
		found, err := u.detail.FindByIMDbID(ctx, m.IMDbID)
		if err != nil {
			u.logger.Debug("detail lookup degraded", slog.String("movie", m.ID), slog.String("error", err.Error()))
			return 0
		}
		if len(found.MovieResults) > 0 {
			id = found.MovieResults[0].ID
		}
	case m.Title != model.EmptyTitle:
		resp, err := u.detail.SearchMovie(ctx, model.NormalizeTitle(m.Title), m.Year)
		if err != nil {
			u.logger.Debug("detail search degraded", slog.String("movie", m.ID), slog.String("error", err.Error()))
			return 0
		}
		if len(resp.Results) > 0 {
			id = resp.Results[0].ID
		}
	default:
		return 0
	}

	if id > 0 {
		u.searchCache.Set(key, id)
	}
	return id
}

// mergeDetail fills the structured fields the meta provider left empty
// and takes streaming availability, which only this provider carries.
func (u *Usecase) mergeDetail(m *model.Movie, detail *infra_tmdb.Detail) {
	if m.IMDbID == "" {
		m.IMDbID = detail.IMDbID
	}
	if m.Title == model.EmptyTitle {
		m.Title = detail.Title
	}
	if m.Year == 0 {
		m.Year = detail.Year()
	}
	if m.Plot == "" {
		m.Plot = detail.Overview
	}
	if len(m.Genres) == 0 {
		for _, g := range detail.Genres {
			m.Genres = append(m.Genres, g.Name)
		}
	}
	if len(m.Cast) == 0 {
		cast := make([]string, 0, len(detail.Credits.Cast))
		for _, c := range detail.Credits.Cast {
			cast = append(cast, c.Name)
		}
		m.Cast = topN(cast, topCastSize)
	}
	if m.Director == "" || len(m.Writers) == 0 {
		var writers []string
		for _, c := range detail.Credits.Crew {
			switch c.Job {
			case "Director":
				if m.Director == "" {
					m.Director = c.Name
				}
			case "Writer", "Screenplay":
				writers = append(writers, c.Name)
			}
		}
		if len(m.Writers) == 0 {
			m.Writers = topN(writers, topWriterSize)
		}
	}
	if m.RuntimeMin == 0 {
		m.RuntimeMin = detail.Runtime
	}
	if m.VoteCount == 0 {
		m.VoteCount = detail.VoteCount
	}
	if m.PosterLink == "" && detail.PosterPath != "" {
		m.PosterLink = posterBase + detail.PosterPath
	}
	if detail.BackdropPath != "" {
		m.BackdropLink = posterBase + detail.BackdropPath
	}
	m.Ratings.TMDB = detail.VoteAverage

	region, ok := detail.WatchProviders.Results[u.detail.Region()]
	if ok {
		m.Streaming = u.classify(region)
	}
}

const posterBase = "https://image.tmdb.org/t/p/w500"

// applyDatasetRating lets the local dataset override any network-sourced
// rating for the same IMDb id.
func (u *Usecase) applyDatasetRating(ctx context.Context, m *model.Movie) bool {
	if m.IMDbID == "" {
		return false
	}
	rating, ok, err := u.ratings.RatingByIMDbID(ctx, m.IMDbID)
	if err != nil {
		u.logger.Debug("ratings dataset degraded", slog.String("movie", m.ID), slog.String("error", err.Error()))
		return false
	}
	if ok {
		m.Ratings.IMDb = rating
	}
	return ok
}

func topN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func searchKey(identity model.MovieIdentity) string {
	if identity.IMDbID != "" {
		return "imdb:" + identity.IMDbID
	}
	return fmt.Sprintf("title:%s:%d", model.NormalizeTitle(identity.Title), identity.Year)
}
