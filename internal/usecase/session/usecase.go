package usecase_session

import (
	"errors"
	"fmt"

	"github.com/humanbelnik/reelswap/internal/model"
)

var (
	ErrResourceNotFound = errors.New("no such resource")
	ErrInvalidInput     = errors.New("invalid input")
)

// Notifier pushes server events to a room's connected peers. The ws hub
// implements it; a nil notifier is valid for headless callers.
type Notifier interface {
	NotifyMatchFound(code model.RoomCode, movieID string, users []string)
}

type Usecase struct {
	registry *Registry
	notifier Notifier
}

func New(registry *Registry) *Usecase {
	return &Usecase{registry: registry}
}

// SetNotifier attaches the push channel. Wired after construction
// because the hub itself needs the usecase.
func (u *Usecase) SetNotifier(n Notifier) {
	u.notifier = n
}

func (u *Usecase) Registry() *Registry {
	return u.registry
}

// Join attaches a user name to the room, creating the room on first
// join under its code.
func (u *Usecase) Join(code model.RoomCode, user string) (*Session, error) {
	if code == model.EmptyRoomCode || user == "" {
		return nil, fmt.Errorf("%w: room code and user name required", ErrInvalidInput)
	}
	s := u.registry.GetOrCreate(code)
	s.Join(user)
	return s, nil
}

// Swipe records the action and pushes a match notification when this
// swipe completed a mutual "seen".
func (u *Usecase) Swipe(code model.RoomCode, user, movieID string, action model.Action) error {
	if movieID == "" {
		return fmt.Errorf("%w: movie id required", ErrInvalidInput)
	}
	if !action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	s := u.registry.GetOrCreate(code)
	res := s.Swipe(user, movieID, action)
	if res.NewMatch && u.notifier != nil {
		u.notifier.NotifyMatchFound(code, movieID, res.Matched)
	}
	return nil
}

// MatchesForUser lists the user's matches. ErrResourceNotFound means
// the room does not exist, which is distinct from an empty list.
func (u *Usecase) MatchesForUser(code model.RoomCode, user string) ([]model.Match, error) {
	s, ok := u.registry.Get(code)
	if !ok {
		return nil, ErrResourceNotFound
	}
	return s.MatchesFor(user), nil
}

// RemoveMatch revokes the acting user's vote and match participation
// for the movie. Returns the number of participations removed.
func (u *Usecase) RemoveMatch(code model.RoomCode, user, movieID string, action model.Action) (int, error) {
	if movieID == "" || user == "" {
		return 0, fmt.Errorf("%w: movie id and user name required", ErrInvalidInput)
	}
	if !action.Valid() {
		return 0, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}
	s, ok := u.registry.Get(code)
	if !ok {
		return 0, ErrResourceNotFound
	}
	return s.RemoveMatch(movieID, user, action), nil
}

// SwipedIDs returns the ids the user already acted on, oldest first.
func (u *Usecase) SwipedIDs(code model.RoomCode, user string) ([]string, error) {
	s, ok := u.registry.Get(code)
	if !ok {
		return nil, ErrResourceNotFound
	}
	return s.SwipedIDs(user), nil
}
