// Package storage_index keeps the in-memory movie index and its durable
// snapshot in step. Mutations mark the index dirty; a supervised
// flusher persists at an interval and once more on shutdown.
package storage_index

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/humanbelnik/reelswap/internal/model"
)

// Snapshotter is the persistence contract: loads degrade to an empty
// state internally, saves surface their error.
type Snapshotter interface {
	Load() model.PersistedState
	Save(state model.PersistedState) error
}

type Index struct {
	mu     sync.RWMutex
	movies map[string]model.Movie
	dirty  bool
	gen    uint64

	store         Snapshotter
	flushInterval time.Duration
	logger        *slog.Logger
}

type IndexOption func(*Index)

func WithLogger(logger *slog.Logger) IndexOption {
	return func(i *Index) {
		i.logger = logger
	}
}

// New builds the index pre-seeded from the snapshot store.
func New(store Snapshotter, flushInterval time.Duration, opts ...IndexOption) *Index {
	if flushInterval <= 0 {
		flushInterval = time.Minute
	}
	i := &Index{
		movies:        store.Load().MovieIndex,
		store:         store,
		flushInterval: flushInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Index) Get(id string) (model.Movie, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	m, ok := i.movies[id]
	return m, ok
}

// Put overwrites the entry for the movie's id and marks the index dirty.
func (i *Index) Put(m model.Movie) {
	if m.ID == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	i.movies[m.ID] = m
	i.dirty = true
	i.gen++
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.movies)
}

// Save persists the current state regardless of the dirty flag. The
// index stays dirty when the store write fails, so the flusher retries
// on the next tick instead of forgetting the mutations.
func (i *Index) Save() error {
	i.mu.Lock()
	gen := i.gen
	state := model.PersistedState{MovieIndex: make(map[string]model.Movie, len(i.movies))}
	for id, m := range i.movies {
		state.MovieIndex[id] = m
	}
	i.mu.Unlock()

	if err := i.store.Save(state); err != nil {
		return err
	}

	i.mu.Lock()
	// A Put that raced the write is newer than the saved state and
	// keeps the index dirty.
	if i.gen == gen {
		i.dirty = false
	}
	i.mu.Unlock()
	return nil
}

func (i *Index) flushIfDirty() {
	i.mu.RLock()
	dirty := i.dirty
	i.mu.RUnlock()
	if !dirty {
		return
	}
	if err := i.Save(); err != nil {
		i.logger.Error("failed to flush movie index", slog.String("error", err.Error()))
	}
}

// Serve runs the flush loop until cancelled, then flushes once more.
// It satisfies suture's Service interface.
func (i *Index) Serve(ctx context.Context) error {
	ticker := time.NewTicker(i.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			i.flushIfDirty()
			return ctx.Err()
		case <-ticker.C:
			i.flushIfDirty()
		}
	}
}

func (i *Index) String() string {
	return "movie-index"
}
