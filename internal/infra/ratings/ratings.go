// Package infra_ratings serves the local bulk-ratings dataset: an
// indexed sqlite table mapping IMDb ids to their numeric rating. It is
// the first, network-free tier of the enrichment fallback chain.
package infra_ratings

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

func MustEstablishConn(path string) *sqlx.DB {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		panic(fmt.Sprintf("ratings db: %v", err))
	}
	if _, err := db.Exec(schema); err != nil {
		panic(fmt.Sprintf("ratings schema: %v", err))
	}
	return db
}

const schema = `
CREATE TABLE IF NOT EXISTS ratings (
	imdb_id TEXT PRIMARY KEY,
	rating  REAL NOT NULL,
	votes   INTEGER NOT NULL DEFAULT 0
)`

type ratingDTO struct {
	Rating float64 `db:"rating"`
	Votes  int64   `db:"votes"`
}

// RatingByIMDbID returns the dataset rating for the id. The second
// return reports presence; absence is not an error.
func (d *Driver) RatingByIMDbID(ctx context.Context, imdbID string) (float64, bool, error) {
	var row ratingDTO

	query := `SELECT rating, votes FROM ratings WHERE imdb_id = $1`

	err := d.db.GetContext(ctx, &row, query, imdbID)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}

	return row.Rating, true, nil
}

// ImportTSV bulk-loads a title.ratings style dump
// (tconst \t averageRating \t numVotes, header included).
func (d *Driver) ImportTSV(ctx context.Context, r io.Reader) (int, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO ratings (imdb_id, rating, votes) VALUES ($1, $2, $3)
		 ON CONFLICT (imdb_id) DO UPDATE SET rating = excluded.rating, votes = excluded.votes`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var count int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 3 || fields[0] == "tconst" {
			continue
		}
		rating, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		votes, _ := strconv.ParseInt(fields[2], 10, 64)
		if _, err := stmt.ExecContext(ctx, fields[0], rating, votes); err != nil {
			return count, err
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}

	if err := tx.Commit(); err != nil {
		return count, err
	}
	return count, nil
}
