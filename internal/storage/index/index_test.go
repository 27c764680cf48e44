package storage_index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/humanbelnik/reelswap/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type IndexUnitSuite struct {
	suite.Suite
}

type snapshotterStub struct {
	state   model.PersistedState
	saveErr error
	saves   []model.PersistedState
}

func (s *snapshotterStub) Load() model.PersistedState {
	if s.state.MovieIndex == nil {
		return model.NewPersistedState()
	}
	return s.state
}

func (s *snapshotterStub) Save(state model.PersistedState) error {
	s.saves = append(s.saves, state)
	return s.saveErr
}

func sampleMovie() model.Movie {
	return model.Movie{ID: "imdb:tt0133093", Title: "The Matrix", Year: 1999}
}

func (suite *IndexUnitSuite) TestSeedsFromSnapshot(t provider.T) {
	t.Parallel()
	store := &snapshotterStub{state: model.PersistedState{
		MovieIndex: map[string]model.Movie{"imdb:tt0133093": sampleMovie()},
	}}

	index := New(store, time.Minute)

	m, ok := index.Get("imdb:tt0133093")
	assert.True(t, ok)
	assert.Equal(t, sampleMovie(), m)
	assert.Equal(t, 1, index.Len())
}

func (suite *IndexUnitSuite) TestPut(t provider.T) {
	t.Parallel()
	index := New(&snapshotterStub{}, time.Minute)

	index.Put(sampleMovie())
	index.Put(model.Movie{}) // missing id is ignored

	assert.Equal(t, 1, index.Len())
	m, ok := index.Get("imdb:tt0133093")
	assert.True(t, ok)
	assert.Equal(t, sampleMovie(), m)
}

func (suite *IndexUnitSuite) TestSavePersistsCopy(t provider.T) {
	t.Parallel()
	store := &snapshotterStub{}
	index := New(store, time.Minute)
	index.Put(sampleMovie())

	assert.NoError(t, index.Save())

	if assert.Len(t, store.saves, 1) {
		assert.Equal(t, sampleMovie(), store.saves[0].MovieIndex["imdb:tt0133093"])
	}

	// Mutating the index after the save must not alter the saved state.
	index.Put(model.Movie{ID: "imdb:tt0113277", Title: "Heat"})
	assert.Len(t, store.saves[0].MovieIndex, 1)
}

func (suite *IndexUnitSuite) TestSaveSurfacesStoreFailure(t provider.T) {
	t.Parallel()
	store := &snapshotterStub{saveErr: errors.New("disk full")}
	index := New(store, time.Minute)

	assert.Error(t, index.Save())
}

func (suite *IndexUnitSuite) TestFailedFlushRetriesOnNextTick(t provider.T) {
	t.Parallel()
	store := &snapshotterStub{saveErr: errors.New("disk full")}
	index := New(store, time.Hour)
	index.Put(sampleMovie())

	index.flushIfDirty()
	assert.Len(t, store.saves, 1)

	// The store recovers; the unsaved mutation must still be flushed.
	store.saveErr = nil
	index.flushIfDirty()

	if assert.Len(t, store.saves, 2, "the index stays dirty after a failed save") {
		assert.Equal(t, sampleMovie(), store.saves[1].MovieIndex["imdb:tt0133093"])
	}

	// Once persisted the flusher goes quiet again.
	index.flushIfDirty()
	assert.Len(t, store.saves, 2)
}

func (suite *IndexUnitSuite) TestServeFlushesOnShutdown(t provider.T) {
	t.Parallel()
	store := &snapshotterStub{}
	index := New(store, time.Hour)
	index.Put(sampleMovie())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := index.Serve(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, store.saves, 1, "a dirty index flushes once more on shutdown")

	// A clean index does not rewrite the snapshot.
	err = index.Serve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, store.saves, 1)
}

func TestIndexUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(IndexUnitSuite))
}
