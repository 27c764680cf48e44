package model

import (
	"fmt"
	"strings"
)

const EmptyTitle string = ""

// MovieIdentity is the bare identity enrichment starts from: a title,
// a release year and whatever provider ids the caller already knows.
type MovieIdentity struct {
	Title  string
	Year   int
	IMDbID string
	TMDBID int64
}

// CanonicalID builds the namespaced identifier that denotes this movie
// across every data source. An IMDb id wins, then a TMDB id, then a
// normalized title+year key.
func (mi MovieIdentity) CanonicalID() string {
	if mi.IMDbID != "" {
		return "imdb:" + mi.IMDbID
	}
	if mi.TMDBID > 0 {
		return fmt.Sprintf("tmdb:%d", mi.TMDBID)
	}
	return fmt.Sprintf("title:%s:%d", NormalizeTitle(mi.Title), mi.Year)
}

// NormalizeTitle lowercases and collapses whitespace so the same title
// always produces the same cache / canonical key.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

type Ratings struct {
	IMDb      float64 `json:"imdb,omitempty"`
	TMDB      float64 `json:"tmdb,omitempty"`
	Composite float64 `json:"composite,omitempty"`
}

// Compose derives the composite rating from whichever sources are set.
func (r *Ratings) Compose() {
	var sum float64
	var n int
	for _, v := range []float64{r.IMDb, r.TMDB} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		r.Composite = 0
		return
	}
	r.Composite = sum / float64(n)
}

type StreamingEntry struct {
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

type Availability struct {
	Subscription []StreamingEntry `json:"subscription,omitempty"`
	Free         []StreamingEntry `json:"free,omitempty"`
}

// Movie is the canonical enriched entity. ID never changes once
// assigned; enrichment refreshes overwrite every other field in place.
type Movie struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Year          int          `json:"year,omitempty"`
	IMDbID        string       `json:"imdbId,omitempty"`
	TMDBID        int64        `json:"tmdbId,omitempty"`
	LibraryKey    string       `json:"libraryKey,omitempty"`
	Ratings       Ratings      `json:"ratings"`
	Plot          string       `json:"plot,omitempty"`
	Genres        []string     `json:"genres,omitempty"`
	Cast          []string     `json:"cast,omitempty"`
	Director      string       `json:"director,omitempty"`
	Writers       []string     `json:"writers,omitempty"`
	ContentRating string       `json:"contentRating,omitempty"`
	RuntimeMin    int          `json:"runtimeMin,omitempty"`
	VoteCount     int64        `json:"voteCount,omitempty"`
	Streaming     Availability `json:"streaming"`
	PosterLink    string       `json:"posterLink,omitempty"`
	BackdropLink  string       `json:"backdropLink,omitempty"`
}

func (m Movie) Identity() MovieIdentity {
	return MovieIdentity{
		Title:  m.Title,
		Year:   m.Year,
		IMDbID: m.IMDbID,
		TMDBID: m.TMDBID,
	}
}
