package usecase_enrich

import (
	"context"
	"log/slog"

	infra_tmdb "github.com/humanbelnik/reelswap/internal/infra/tmdb"
	"github.com/humanbelnik/reelswap/internal/model"
)

// OwnedEntryName labels the synthetic subscription entry for titles the
// personal catalog already holds.
const OwnedEntryName = "Owned"

// classify splits a region's offerings into subscription and free
// lists. Brand names are canonicalized first, then deduplicated within
// each class; the first occurrence wins.
func (u *Usecase) classify(region infra_tmdb.RegionProviders) model.Availability {
	var av model.Availability

	seenSub := make(map[string]struct{})
	for _, p := range region.Flatrate {
		name := u.aliases.Canonical(p.ProviderName)
		if _, dup := seenSub[name]; dup || name == "" {
			continue
		}
		seenSub[name] = struct{}{}
		av.Subscription = append(av.Subscription, model.StreamingEntry{Name: name, Logo: p.LogoPath})
	}

	seenFree := make(map[string]struct{})
	for _, p := range append(region.Free, region.Ads...) {
		name := u.aliases.Canonical(p.ProviderName)
		if _, dup := seenFree[name]; dup || name == "" {
			continue
		}
		seenFree[name] = struct{}{}
		av.Free = append(av.Free, model.StreamingEntry{Name: name, Logo: p.LogoPath})
	}

	return av
}

// applyOwnership consults the personal catalog after availability was
// computed. An owned title gets a synthetic entry at the front of the
// subscription list, skipped when one of that name is already there.
// It reports whether the title is owned.
func (u *Usecase) applyOwnership(ctx context.Context, m *model.Movie) bool {
	ctx, cancel := context.WithTimeout(ctx, u.callTimeout)
	defer cancel()

	item, owned, err := u.catalog.Lookup(ctx, m.Identity())
	if err != nil {
		u.logger.Debug("catalog lookup degraded", slog.String("movie", m.ID), slog.String("error", err.Error()))
		return false
	}
	if !owned {
		return false
	}

	m.LibraryKey = item.Key
	for _, e := range m.Streaming.Subscription {
		if e.Name == OwnedEntryName {
			return true
		}
	}
	m.Streaming.Subscription = append(
		[]model.StreamingEntry{{Name: OwnedEntryName}},
		m.Streaming.Subscription...,
	)
	return true
}
