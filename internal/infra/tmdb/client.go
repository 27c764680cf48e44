// Package infra_tmdb is the client for the second metadata provider.
// It is always consulted for structured detail: genres, cast, crew,
// runtime, vote counts and streaming availability.
package infra_tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// SearchResult is a single search match.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

// SearchResponse models the paginated search payload.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// FindResponse models /find/{imdb_id} lookups.
type FindResponse struct {
	MovieResults []SearchResult `json:"movie_results"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// ProviderEntry is one streaming offering inside a region block.
type ProviderEntry struct {
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// RegionProviders holds the offerings for one country, keyed by tier.
type RegionProviders struct {
	Flatrate []ProviderEntry `json:"flatrate"`
	Free     []ProviderEntry `json:"free"`
	Ads      []ProviderEntry `json:"ads"`
}

type WatchProviders struct {
	Results map[string]RegionProviders `json:"results"`
}

// Detail models the movie detail payload with credits and watch
// providers appended.
type Detail struct {
	ID             int64          `json:"id"`
	IMDbID         string         `json:"imdb_id"`
	Title          string         `json:"title"`
	ReleaseDate    string         `json:"release_date"`
	Overview       string         `json:"overview"`
	Runtime        int            `json:"runtime"`
	Genres         []Genre        `json:"genres"`
	PosterPath     string         `json:"poster_path"`
	BackdropPath   string         `json:"backdrop_path"`
	VoteAverage    float64        `json:"vote_average"`
	VoteCount      int64          `json:"vote_count"`
	Credits        Credits        `json:"credits"`
	WatchProviders WatchProviders `json:"watch/providers"`
}

// Year parses the release year out of ReleaseDate.
func (d *Detail) Year() int {
	if len(d.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(d.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

type Client struct {
	apiKey     string
	baseURL    string
	region     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]byte]
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRegion sets the country code used for watch-provider lookups.
func WithRegion(region string) Option {
	return func(c *Client) {
		if region != "" {
			c.region = strings.ToUpper(region)
		}
	}
}

func New(apiKey, baseURL string, timeout time.Duration, rps float64, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if rps <= 0 {
		rps = 4
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		region:     "US",
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)*2),
	}
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "tmdb",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Region returns the configured watch-provider country code.
func (c *Client) Region() string {
	return c.region
}

// SearchMovie searches by title with an optional release-year filter.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}

	raw, err := c.fetch(ctx, "/search/movie", params)
	if err != nil {
		return nil, err
	}
	var payload SearchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode tmdb search: %w", err)
	}
	return &payload, nil
}

// FindByIMDbID resolves an IMDb id to TMDB movie results.
func (c *Client) FindByIMDbID(ctx context.Context, imdbID string) (*FindResponse, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("external_source", "imdb_id")

	raw, err := c.fetch(ctx, "/find/"+url.PathEscape(imdbID), params)
	if err != nil {
		return nil, err
	}
	var payload FindResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode tmdb find: %w", err)
	}
	return &payload, nil
}

// MovieDetail fetches full detail with credits and watch providers in
// one round trip.
func (c *Client) MovieDetail(ctx context.Context, movieID int64) (*Detail, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	params := url.Values{}
	params.Set("append_to_response", "credits,watch/providers")

	raw, err := c.fetch(ctx, fmt.Sprintf("/movie/%d", movieID), params)
	if err != nil {
		return nil, err
	}
	var payload Detail
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode tmdb detail: %w", err)
	}
	return &payload, nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tmdb rate limit: %w", err)
	}
	return c.cb.Execute(func() ([]byte, error) {
		endpoint, err := url.Parse(c.baseURL + path)
		if err != nil {
			return nil, fmt.Errorf("parse tmdb url: %w", err)
		}
		params.Set("api_key", c.apiKey)
		endpoint.RawQuery = params.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("tmdb returned %d", resp.StatusCode)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read tmdb response: %w", err)
		}
		return raw, nil
	})
}
