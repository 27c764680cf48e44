package infra_library

import (
	"context"
	"errors"

	"github.com/humanbelnik/reelswap/internal/model"
)

var ErrLibraryDisabled = errors.New("library not configured")

// Disabled stands in when no personal catalog is configured: nothing is
// owned and there is no candidate pool.
type Disabled struct{}

func (Disabled) Lookup(ctx context.Context, identity model.MovieIdentity) (*Item, bool, error) {
	return nil, false, nil
}

func (Disabled) Candidates(ctx context.Context, count int) ([]Item, error) {
	return nil, ErrLibraryDisabled
}
