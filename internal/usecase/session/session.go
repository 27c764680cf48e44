package usecase_session

import (
	"sync"
	"time"

	"github.com/humanbelnik/reelswap/internal/model"
)

// Session is one room's mutable state: the swipe ledger and the match
// set. All access goes through the session mutex; no I/O ever happens
// while it is held, so handlers cannot interleave mid-mutation.
type Session struct {
	mu sync.Mutex

	code         model.RoomCode
	createdAt    time.Time
	lastActivity time.Time

	// Known user names. Disconnecting does not remove a user; a
	// reconnect under the same name resumes the prior ledger state.
	users map[string]struct{}

	// ledger: movie id -> user -> recorded action.
	ledger map[string]map[string]model.Action

	// order: user -> movie ids in first-swipe order, for next-card logic.
	order map[string][]string

	// matches: movie id -> set of users whose "seen" mutually qualifies.
	matches map[string]map[string]struct{}
}

func newSession(code model.RoomCode) *Session {
	now := time.Now()
	return &Session{
		code:         code,
		createdAt:    now,
		lastActivity: now,
		users:        make(map[string]struct{}),
		ledger:       make(map[string]map[string]model.Action),
		order:        make(map[string][]string),
		matches:      make(map[string]map[string]struct{}),
	}
}

func (s *Session) Code() model.RoomCode {
	return s.code
}

// Join registers a user name in the session.
func (s *Session) Join(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user] = struct{}{}
	s.lastActivity = time.Now()
}

// Touch refreshes the idle-eviction clock.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity)
}

// SwipeResult reports what a recorded swipe changed.
type SwipeResult struct {
	// Matched holds every user in the match set for the movie when
	// this swipe completed one; empty otherwise.
	Matched []string
	// NewMatch is true only when this exact swipe formed the match.
	NewMatch bool
}

// Swipe idempotently records the action. Re-applying the same
// (user, movie, action) is a no-op on observable state. A "seen" that
// finds another user's "seen" for the same movie forms a match.
func (s *Session) Swipe(user, movieID string, action model.Action) SwipeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user] = struct{}{}
	s.lastActivity = time.Now()

	votes, ok := s.ledger[movieID]
	if !ok {
		votes = make(map[string]model.Action)
		s.ledger[movieID] = votes
	}

	prev, seen := votes[user]
	if seen && prev == action {
		return SwipeResult{}
	}
	if !seen {
		s.order[user] = append(s.order[user], movieID)
	}
	votes[user] = action

	switch action {
	case model.ActionSeen:
		return s.recheckMatch(user, movieID)
	case model.ActionPass:
		s.revokeParticipation(movieID, user)
	}
	return SwipeResult{}
}

// recheckMatch runs under the session lock after a "seen" was recorded.
func (s *Session) recheckMatch(user, movieID string) SwipeResult {
	var mutual []string
	for voter, action := range s.ledger[movieID] {
		if action == model.ActionSeen {
			mutual = append(mutual, voter)
		}
	}
	if len(mutual) < 2 {
		return SwipeResult{}
	}

	set, existed := s.matches[movieID]
	if !existed {
		set = make(map[string]struct{})
		s.matches[movieID] = set
	}
	_, wasIn := set[user]
	for _, voter := range mutual {
		set[voter] = struct{}{}
	}
	return SwipeResult{Matched: mutual, NewMatch: !existed || !wasIn}
}

func (s *Session) revokeParticipation(movieID, user string) int {
	set, ok := s.matches[movieID]
	if !ok {
		return 0
	}
	if _, in := set[user]; !in {
		return 0
	}
	delete(set, user)
	if len(set) == 0 {
		delete(s.matches, movieID)
	}
	return 1
}

// RemoveMatch records the acting user's action (normally "pass"),
// drops their vote and revokes their participation in the match entry
// for the movie. Only the acting user's participation is touched; the
// remaining participant keeps theirs. Returns participations removed.
func (s *Session) RemoveMatch(movieID, user string, action model.Action) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()

	if votes, ok := s.ledger[movieID]; ok {
		if _, voted := votes[user]; voted {
			votes[user] = action
		}
	}
	return s.revokeParticipation(movieID, user)
}

// MatchesFor lists the matches the user participates in.
func (s *Session) MatchesFor(user string) []model.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Match, 0)
	for movieID, set := range s.matches {
		if _, in := set[user]; !in {
			continue
		}
		users := make([]string, 0, len(set))
		for u := range set {
			users = append(users, u)
		}
		out = append(out, model.Match{MovieID: movieID, Users: users})
	}
	return out
}

// SwipedIDs returns the movie ids the user has acted on, in the order
// they were first swiped. Callers use it to pick the next card.
func (s *Session) SwipedIDs(user string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.order[user]))
	copy(ids, s.order[user])
	return ids
}
