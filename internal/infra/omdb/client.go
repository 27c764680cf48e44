// Package infra_omdb is the client for the first general-purpose
// metadata provider. Queried by IMDb id when one is known, otherwise by
// normalized title and year.
package infra_omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Record models the OMDb detail payload. Every field is a string on the
// wire; numeric fields are parsed by the accessors below.
type Record struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbVotes  string `json:"imdbVotes"`
	IMDbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// RatingValue parses imdbRating; 0 when absent or "N/A".
func (r *Record) RatingValue() float64 {
	v, err := strconv.ParseFloat(r.IMDbRating, 64)
	if err != nil {
		return 0
	}
	return v
}

// VotesValue parses imdbVotes ("1,234,567"); 0 when absent.
func (r *Record) VotesValue() int64 {
	v, err := strconv.ParseInt(strings.ReplaceAll(r.IMDbVotes, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// RuntimeMinutes parses "136 min"; 0 when absent.
func (r *Record) RuntimeMinutes() int {
	fields := strings.Fields(r.Runtime)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return v
}

// GenreList splits the comma-separated Genre field.
func (r *Record) GenreList() []string {
	return splitList(r.Genre)
}

func (r *Record) ActorList() []string {
	return splitList(r.Actors)
}

func (r *Record) WriterList() []string {
	return splitList(r.Writer)
}

func splitList(s string) []string {
	if s == "" || s == "N/A" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[*Record]
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func New(apiKey, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	c.cb = gobreaker.NewCircuitBreaker[*Record](gobreaker.Settings{
		Name:        "omdb",
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

// ByIMDbID fetches detail for a known IMDb id.
func (c *Client) ByIMDbID(ctx context.Context, imdbID string) (*Record, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, errors.New("imdb id must not be empty")
	}
	params := url.Values{}
	params.Set("i", imdbID)
	return c.fetch(ctx, params)
}

// ByTitle fetches detail by title and optional year.
func (c *Client) ByTitle(ctx context.Context, title string, year int) (*Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title must not be empty")
	}
	params := url.Values{}
	params.Set("t", title)
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}
	return c.fetch(ctx, params)
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*Record, error) {
	return c.cb.Execute(func() (*Record, error) {
		endpoint, err := url.Parse(c.baseURL + "/")
		if err != nil {
			return nil, fmt.Errorf("parse omdb url: %w", err)
		}
		params.Set("apikey", c.apiKey)
		params.Set("plot", "full")
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
			return nil, fmt.Errorf("omdb returned %d", resp.StatusCode)
		}

		var payload Record
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode omdb response: %w", err)
		}
		if payload.Response != "True" {
			return nil, fmt.Errorf("omdb: %s", payload.Error)
		}
		return &payload, nil
	})
}
