package usecase_enrich

import (
	"testing"

	infra_library "github.com/humanbelnik/reelswap/internal/infra/library"
	infra_tmdb "github.com/humanbelnik/reelswap/internal/infra/tmdb"
	"github.com/humanbelnik/reelswap/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type AvailabilityUnitSuite struct {
	suite.Suite
}

func entryNames(entries []model.StreamingEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func (suite *AvailabilityUnitSuite) TestClassify(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		region       infra_tmdb.RegionProviders
		expectedSub  []string
		expectedFree []string
	}{
		{
			name: "Should collapse alias spellings within a class",
			region: infra_tmdb.RegionProviders{
				Flatrate: []infra_tmdb.ProviderEntry{
					{ProviderName: "Netflix", LogoPath: "/n.png"},
					{ProviderName: "Netflix Standard with Ads", LogoPath: "/n-ads.png"},
					{ProviderName: "HBO Max"},
				},
			},
			expectedSub: []string{"Netflix", "Max"},
		},
		{
			name: "Should fold ads offerings into the free class",
			region: infra_tmdb.RegionProviders{
				Free: []infra_tmdb.ProviderEntry{{ProviderName: "Tubi TV"}},
				Ads:  []infra_tmdb.ProviderEntry{{ProviderName: "Pluto TV"}, {ProviderName: "Tubi"}},
			},
			expectedFree: []string{"Tubi", "Pluto TV"},
		},
		{
			name: "Should pass unknown brands through untouched",
			region: infra_tmdb.RegionProviders{
				Flatrate: []infra_tmdb.ProviderEntry{{ProviderName: "  Some Niche Service "}},
			},
			expectedSub: []string{"Some Niche Service"},
		},
		{
			name: "Should keep the same brand in both classes",
			region: infra_tmdb.RegionProviders{
				Flatrate: []infra_tmdb.ProviderEntry{{ProviderName: "Peacock Premium"}},
				Ads:      []infra_tmdb.ProviderEntry{{ProviderName: "Peacock"}},
			},
			expectedSub:  []string{"Peacock"},
			expectedFree: []string{"Peacock"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)

			av := r.usecase.classify(tc.region)

			assert.Equal(t, tc.expectedSub, entryNames(av.Subscription))
			assert.Equal(t, tc.expectedFree, entryNames(av.Free))
		})
	}
}

func (suite *AvailabilityUnitSuite) TestFirstOccurrenceKeepsItsLogo(t provider.T) {
	t.Parallel()
	r := initResources(t)

	av := r.usecase.classify(infra_tmdb.RegionProviders{
		Flatrate: []infra_tmdb.ProviderEntry{
			{ProviderName: "Netflix", LogoPath: "/first.png"},
			{ProviderName: "netflix", LogoPath: "/second.png"},
		},
	})

	if assert.Len(t, av.Subscription, 1) {
		assert.Equal(t, "/first.png", av.Subscription[0].Logo)
	}
}

func (suite *AvailabilityUnitSuite) TestApplyOwnership(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		item        *infra_library.Item
		streaming   model.Availability
		expectedSub []string
		expectedKey string
	}{
		{
			name:        "Should prepend owned entry for a held title",
			item:        &infra_library.Item{Key: "lib-42", Title: "The Matrix"},
			streaming:   model.Availability{Subscription: []model.StreamingEntry{{Name: "Netflix"}}},
			expectedSub: []string{OwnedEntryName, "Netflix"},
			expectedKey: "lib-42",
		},
		{
			name:        "Should not duplicate an existing owned entry",
			item:        &infra_library.Item{Key: "lib-42"},
			streaming:   model.Availability{Subscription: []model.StreamingEntry{{Name: OwnedEntryName}}},
			expectedSub: []string{OwnedEntryName},
			expectedKey: "lib-42",
		},
		{
			name:        "Should leave unowned titles untouched",
			item:        nil,
			streaming:   model.Availability{Subscription: []model.StreamingEntry{{Name: "Netflix"}}},
			expectedSub: []string{"Netflix"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources(t)
			r.catalog.item = tc.item

			m := model.Movie{ID: "imdb:tt0133093", Title: "The Matrix", Streaming: tc.streaming}
			r.usecase.applyOwnership(r.ctx, &m)

			assert.Equal(t, tc.expectedSub, entryNames(m.Streaming.Subscription))
			assert.Equal(t, tc.expectedKey, m.LibraryKey)
		})
	}
}

func (suite *AvailabilityUnitSuite) TestCatalogFailureLeavesMovieUntouched(t provider.T) {
	t.Parallel()
	r := initResources(t)
	r.catalog.err = assert.AnError

	m := model.Movie{ID: "imdb:tt0133093", Title: "The Matrix"}
	r.usecase.applyOwnership(r.ctx, &m)

	assert.Empty(t, m.LibraryKey)
	assert.Empty(t, m.Streaming.Subscription)
}

func TestAvailabilityUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(AvailabilityUnitSuite))
}
