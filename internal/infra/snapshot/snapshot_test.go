package infra_snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/humanbelnik/reelswap/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type SnapshotUnitSuite struct {
	suite.Suite
}

func sampleState() model.PersistedState {
	state := model.NewPersistedState()
	state.MovieIndex["imdb:tt0133093"] = model.Movie{
		ID:      "imdb:tt0133093",
		Title:   "The Matrix",
		Year:    1999,
		IMDbID:  "tt0133093",
		Ratings: model.Ratings{IMDb: 8.7, Composite: 8.7},
	}
	return state
}

func (suite *SnapshotUnitSuite) TestRoundTrip(t provider.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "index.json")
	store := New(path)

	assert.NoError(t, store.Save(sampleState()))

	loaded := New(path).Load()
	assert.Equal(t, sampleState(), loaded)
}

func (suite *SnapshotUnitSuite) TestLoadDegradesToEmpty(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		prepare func(t provider.T, path string)
	}{
		{
			name:    "Should start empty when no snapshot exists",
			prepare: func(t provider.T, path string) {},
		},
		{
			name: "Should start empty on a corrupt snapshot",
			prepare: func(t provider.T, path string) {
				assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
			},
		},
		{
			name: "Should start empty on a null document",
			prepare: func(t provider.T, path string) {
				assert.NoError(t, os.WriteFile(path, []byte("null"), 0o644))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "index.json")
			tc.prepare(t, path)

			state := New(path).Load()

			assert.NotNil(t, state.MovieIndex)
			assert.Empty(t, state.MovieIndex)
		})
	}
}

func (suite *SnapshotUnitSuite) TestFailedSaveKeepsPreviousSnapshot(t provider.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	store := New(path)

	assert.NoError(t, store.Save(sampleState()))

	// Pointing a second store at a directory that cannot be written
	// fails the save without touching the existing document.
	broken := New(filepath.Join(dir, "missing", "index.json"))
	err := broken.Save(model.NewPersistedState())
	assert.ErrorIs(t, err, ErrFailedToPersist)

	loaded := store.Load()
	assert.Len(t, loaded.MovieIndex, 1)
}

func (suite *SnapshotUnitSuite) TestStrayTempFileDoesNotShadowSnapshot(t provider.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	store := New(path)

	assert.NoError(t, store.Save(sampleState()))

	// A crash between the temp write and the rename leaves a stray temp
	// file behind; the canonical document must still be served.
	stray := filepath.Join(dir, "index.json.tmp-1234567890")
	assert.NoError(t, os.WriteFile(stray, []byte(`{"movieIndex":{}}`), 0o644))

	loaded := New(path).Load()
	assert.Equal(t, sampleState(), loaded)
}

func (suite *SnapshotUnitSuite) TestSaveLeavesNoTempFiles(t provider.T) {
	t.Parallel()
	dir := t.TempDir()
	store := New(filepath.Join(dir, "index.json"))

	assert.NoError(t, store.Save(sampleState()))
	assert.NoError(t, store.Save(model.NewPersistedState()))

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(SnapshotUnitSuite))
}
