// Package infra_library talks to the personal-catalog collaborator: it
// answers whether a title is already owned and supplies the pool of
// swipe candidates for a room.
package infra_library

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
	"github.com/humanbelnik/reelswap/internal/model"
)

// Item is one catalog entry as the collaborator reports it.
type Item struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	IMDbID string `json:"imdb_id"`
	TMDBID int64  `json:"tmdb_id"`
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func New(baseURL, token string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("library base url required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup finds the catalog entry matching the identity, trying provider
// ids first and falling back to title+year. Absence is not an error.
func (c *Client) Lookup(ctx context.Context, identity model.MovieIdentity) (*Item, bool, error) {
	params := url.Values{}
	if identity.IMDbID != "" {
		params.Set("imdb_id", identity.IMDbID)
	}
	if identity.TMDBID > 0 {
		params.Set("tmdb_id", strconv.FormatInt(identity.TMDBID, 10))
	}
	if identity.Title != "" {
		params.Set("title", identity.Title)
	}
	if identity.Year > 0 {
		params.Set("year", strconv.Itoa(identity.Year))
	}

	var item Item
	found, err := c.get(ctx, "/library/lookup", params, &item)
	if err != nil || !found {
		return nil, false, err
	}
	return &item, true, nil
}

// Candidates returns up to count catalog entries for swiping.
func (c *Client) Candidates(ctx context.Context, count int) ([]Item, error) {
	params := url.Values{}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	var items []Item
	if _, err := c.get(ctx, "/library/candidates", params, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return false, fmt.Errorf("parse library url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("library returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode library response: %w", err)
	}
	return true, nil
}
