package usecase_session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/humanbelnik/reelswap/internal/model"
)

// Registry is the process-wide map from room code to session. It is
// created once at startup, passed to every handler, and never
// persisted. A suture supervisor runs Serve for idle eviction.
type Registry struct {
	mu    sync.Mutex
	rooms map[model.RoomCode]*Session

	idleTTL       time.Duration
	sweepInterval time.Duration

	logger *slog.Logger
}

type RegistryOption func(*Registry)

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

func NewRegistry(idleTTL, sweepInterval time.Duration, opts ...RegistryOption) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	r := &Registry{
		rooms:         make(map[model.RoomCode]*Session),
		idleTTL:       idleTTL,
		sweepInterval: sweepInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the session for the code, creating it on first
// join.
func (r *Registry) GetOrCreate(code model.RoomCode) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.rooms[code]; ok {
		return s
	}
	s := newSession(code)
	r.rooms[code] = s
	r.logger.Info("room created", slog.String("room", string(code)))
	return s
}

// Get returns the session for the code if one exists.
func (r *Registry) Get(code model.RoomCode) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.rooms[code]
	return s, ok
}

// Sweep drops sessions idle longer than the TTL and reports how many.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	candidates := make(map[model.RoomCode]*Session, len(r.rooms))
	for code, s := range r.rooms {
		candidates[code] = s
	}
	r.mu.Unlock()

	var evicted int
	for code, s := range candidates {
		if s.idleSince(now) < r.idleTTL {
			continue
		}
		r.mu.Lock()
		// Re-check under the lock; a join may have raced the scan.
		if cur, ok := r.rooms[code]; ok && cur == s && s.idleSince(now) >= r.idleTTL {
			delete(r.rooms, code)
			evicted++
			r.logger.Info("room evicted", slog.String("room", string(code)))
		}
		r.mu.Unlock()
	}
	return evicted
}

// Serve runs the eviction loop until the context is cancelled. It
// satisfies suture's Service interface.
func (r *Registry) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

func (r *Registry) String() string {
	return "session-registry"
}
