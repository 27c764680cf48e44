// Package snapshot persists the movie index as a single JSON document.
// Writes go through a temp file and an atomic rename so a reader never
// sees a half-written document; reads degrade to an empty state.
package infra_snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/humanbelnik/reelswap/internal/model"
)

var ErrFailedToPersist = errors.New("failed to persist snapshot")

type Store struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func New(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted state. Any read or parse failure yields the
// empty default; a broken snapshot must never stop the process.
func (s *Store) Load() model.PersistedState {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("snapshot unreadable, starting empty",
				slog.String("path", s.path), slog.String("error", err.Error()))
		}
		return model.NewPersistedState()
	}

	var state model.PersistedState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("snapshot corrupt, starting empty",
			slog.String("path", s.path), slog.String("error", err.Error()))
		return model.NewPersistedState()
	}
	if state.MovieIndex == nil {
		state.MovieIndex = make(map[string]model.Movie)
	}
	return state
}

// Save writes the state to a temp file in the same directory and
// renames it over the canonical path. A failed write is surfaced: a
// lost snapshot is user-visible data loss.
func (s *Store) Save(state model.PersistedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToPersist, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToPersist, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrFailedToPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrFailedToPersist, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrFailedToPersist, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", ErrFailedToPersist, err)
	}
	return nil
}
