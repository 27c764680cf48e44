// Package infra_listexport fetches and parses list exports: CSV rows of
// (title, year, external id), either uploaded inline or pulled from a
// public profile export URL.
package infra_listexport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/humanbelnik/reelswap/internal/model"
)

type Client struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// Fetch downloads a remote export and parses it.
func (c *Client) Fetch(ctx context.Context, exportURL string) ([]model.MovieIdentity, error) {
	exportURL = strings.TrimSpace(exportURL)
	if exportURL == "" {
		return nil, errors.New("export url must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export fetch returned %d", resp.StatusCode)
	}

	return Parse(resp.Body)
}

// Parse reads CSV rows of title,year,imdb_id. A header row is detected
// and skipped; rows that fail to parse are dropped.
func Parse(r io.Reader) ([]model.MovieIdentity, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var items []model.MovieIdentity
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return items, fmt.Errorf("parse export: %w", err)
		}
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		if item, ok := parseRow(record); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(record[0]))
	return head == "title" || head == "name"
}

func parseRow(record []string) (model.MovieIdentity, bool) {
	if len(record) == 0 {
		return model.MovieIdentity{}, false
	}
	item := model.MovieIdentity{Title: strings.TrimSpace(record[0])}
	if len(record) > 1 {
		item.Year, _ = strconv.Atoi(strings.TrimSpace(record[1]))
	}
	if len(record) > 2 {
		item.IMDbID = strings.TrimSpace(record[2])
	}
	if item.Title == "" && item.IMDbID == "" {
		return model.MovieIdentity{}, false
	}
	return item, true
}
