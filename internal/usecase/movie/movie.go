package usecase_movie

import (
	"context"
	"errors"
	"fmt"

	infra_library "github.com/humanbelnik/reelswap/internal/infra/library"
	"github.com/humanbelnik/reelswap/internal/model"
	usecase_enrich "github.com/humanbelnik/reelswap/internal/usecase/enrich"
	usecase_session "github.com/humanbelnik/reelswap/internal/usecase/session"
)

var (
	ErrFailedToFetchCards = errors.New("failed to fetch cards")
	ErrInvalidInput       = errors.New("invalid input")
	ErrResourceNotFound   = errors.New("no such resource")
	ErrInternal           = errors.New("internal error")
)

type Enricher interface {
	Enrich(ctx context.Context, identity model.MovieIdentity) model.Movie
	Refresh(ctx context.Context, id string) (model.Movie, error)
	ByID(id string) (model.Movie, error)
}

type CandidateSource interface {
	Candidates(ctx context.Context, count int) ([]infra_library.Item, error)
}

type SwipeLedger interface {
	SwipedIDs(code model.RoomCode, user string) ([]string, error)
}

type Usecase struct {
	enricher   Enricher
	candidates CandidateSource
	ledger     SwipeLedger
}

func New(enricher Enricher, candidates CandidateSource, ledger SwipeLedger) *Usecase {
	return &Usecase{
		enricher:   enricher,
		candidates: candidates,
		ledger:     ledger,
	}
}

// Cards returns up to count enriched candidates the user has not yet
// swiped in this room.
func (u *Usecase) Cards(ctx context.Context, code model.RoomCode, user string, count int) ([]model.Movie, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}

	swiped, err := u.ledger.SwipedIDs(code, user)
	if err != nil {
		if errors.Is(err, usecase_session.ErrResourceNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	already := make(map[string]struct{}, len(swiped))
	for _, id := range swiped {
		already[id] = struct{}{}
	}

	// Overfetch so filtering out swiped titles still fills the batch.
	pool, err := u.candidates.Candidates(ctx, count+len(already))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToFetchCards, err)
	}

	cards := make([]model.Movie, 0, count)
	for _, item := range pool {
		identity := model.MovieIdentity{
			Title:  item.Title,
			Year:   item.Year,
			IMDbID: item.IMDbID,
			TMDBID: item.TMDBID,
		}
		if _, done := already[identity.CanonicalID()]; done {
			continue
		}
		cards = append(cards, u.enricher.Enrich(ctx, identity))
		if len(cards) == count {
			break
		}
	}
	return cards, nil
}

// GetMovieByID serves enriched detail from the index.
func (u *Usecase) GetMovieByID(id string) (model.Movie, error) {
	m, err := u.enricher.ByID(id)
	if err != nil {
		return model.Movie{}, ErrResourceNotFound
	}
	return m, nil
}

// RefreshMovie forces the single-title refetch path. A snapshot write
// failure after the refetch is surfaced as internal.
func (u *Usecase) RefreshMovie(ctx context.Context, id string) (model.Movie, error) {
	m, err := u.enricher.Refresh(ctx, id)
	if err != nil {
		if errors.Is(err, usecase_enrich.ErrResourceNotFound) {
			return model.Movie{}, ErrResourceNotFound
		}
		return m, errors.Join(ErrInternal, err)
	}
	return m, nil
}
