// Package supervisor wraps suture with the little this process needs: a
// root tree for the long-running services and one-shot background jobs
// whose outcomes are recorded instead of propagated.
package supervisor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/thejerf/suture/v4"
)

type Supervisor struct {
	root   *suture.Supervisor
	logger *slog.Logger

	mu        sync.Mutex
	succeeded int
	failed    int
}

func New(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{logger: logger}
	s.root = suture.New("reelswap", suture.Spec{
		EventHook: func(e suture.Event) {
			logger.Warn("supervised service event", slog.String("event", e.String()))
		},
	})
	return s
}

// Add registers a long-running service (hub, sweeper, flusher).
func (s *Supervisor) Add(svc suture.Service) {
	s.root.Add(svc)
}

// ServeBackground starts the tree; the returned channel yields the
// terminal error after ctx is cancelled.
func (s *Supervisor) ServeBackground(ctx context.Context) <-chan error {
	return s.root.ServeBackground(ctx)
}

type job struct {
	name string
	fn   func(ctx context.Context) error
	sup  *Supervisor
}

func (j *job) Serve(ctx context.Context) error {
	err := j.fn(ctx)
	j.sup.record(j.name, err)
	// One-shot: never restart, whatever the outcome.
	return suture.ErrDoNotRestart
}

func (j *job) String() string {
	return j.name
}

// RunJob schedules a detached one-shot task. Its failure is logged and
// counted, never surfaced to the caller.
func (s *Supervisor) RunJob(name string, fn func(ctx context.Context) error) {
	s.root.Add(&job{name: name, fn: fn, sup: s})
}

func (s *Supervisor) record(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.failed++
		s.logger.Error("background task failed", slog.String("task", name), slog.String("error", err.Error()))
		return
	}
	s.succeeded++
	s.logger.Info("background task done", slog.String("task", name))
}

// Outcomes reports how many background jobs succeeded and failed.
func (s *Supervisor) Outcomes() (succeeded, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.succeeded, s.failed
}
