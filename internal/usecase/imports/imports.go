// Package usecase_imports runs bulk ingestion: a batch of bare
// identities is enriched item by item, each applied as a synthetic
// "seen" swipe for the importing user, with progress pushed over the ws
// channel. The accepting call returns as soon as the total is known.
package usecase_imports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/humanbelnik/reelswap/internal/model"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrExportUnusable = errors.New("export source unusable")
)

type Enricher interface {
	Enrich(ctx context.Context, identity model.MovieIdentity) model.Movie
}

type SwipeRecorder interface {
	Swipe(code model.RoomCode, user, movieID string, action model.Action) error
}

type ExportSource interface {
	Fetch(ctx context.Context, exportURL string) ([]model.MovieIdentity, error)
}

// Pusher streams import progress to the room over the ws channel.
type Pusher interface {
	NotifyImportProgress(code model.RoomCode, count, total int)
	NotifyImportItem(code model.RoomCode, movie model.Movie)
}

// TaskRunner detaches the batch work from the accepting call.
type TaskRunner interface {
	RunJob(name string, fn func(ctx context.Context) error)
}

type Usecase struct {
	enricher Enricher
	swipes   SwipeRecorder
	exports  ExportSource
	pusher   Pusher
	runner   TaskRunner
	logger   *slog.Logger
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func New(
	enricher Enricher,
	swipes SwipeRecorder,
	exports ExportSource,
	pusher Pusher,
	runner TaskRunner,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		enricher: enricher,
		swipes:   swipes,
		exports:  exports,
		pusher:   pusher,
		runner:   runner,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Accept validates the batch and detaches the work, returning the total
// item count immediately.
func (u *Usecase) Accept(code model.RoomCode, user string, items []model.MovieIdentity) (int, error) {
	if code == model.EmptyRoomCode || user == "" {
		return 0, fmt.Errorf("%w: room code and user name required", ErrInvalidInput)
	}
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: empty batch", ErrInvalidInput)
	}

	total := len(items)
	u.runner.RunJob(fmt.Sprintf("import:%s:%s", code, user), func(ctx context.Context) error {
		u.run(ctx, code, user, items)
		return nil
	})
	return total, nil
}

// AcceptURL resolves a remote export first so the accepted response can
// carry the real total, then behaves like Accept.
func (u *Usecase) AcceptURL(ctx context.Context, code model.RoomCode, user, exportURL string) (int, error) {
	items, err := u.exports.Fetch(ctx, exportURL)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExportUnusable, err)
	}
	return u.Accept(code, user, items)
}

// run processes the batch. One item's failure is logged and skipped; it
// never aborts the remainder.
func (u *Usecase) run(ctx context.Context, code model.RoomCode, user string, items []model.MovieIdentity) {
	total := len(items)
	for i, identity := range items {
		if ctx.Err() != nil {
			u.logger.Info("import cancelled",
				slog.String("room", string(code)), slog.Int("done", i), slog.Int("total", total))
			return
		}

		movie := u.enricher.Enrich(ctx, identity)
		if err := u.swipes.Swipe(code, user, movie.ID, model.ActionSeen); err != nil {
			u.logger.Warn("import item skipped",
				slog.String("room", string(code)),
				slog.String("movie", movie.ID),
				slog.String("error", err.Error()))
			continue
		}

		u.pusher.NotifyImportItem(code, movie)
		u.pusher.NotifyImportProgress(code, i+1, total)
	}
}
