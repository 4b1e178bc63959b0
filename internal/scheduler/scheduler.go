package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Refreshable is the subset of a session the scheduler drives
type Refreshable interface {
	UserID() string
	Busy() bool
	Refresh(ctx context.Context) error
}

// Sessions enumerates the active sessions to refresh
type Sessions interface {
	All() []Refreshable
}

// Scheduler periodically reloads every idle session. A session that is
// loading or has a form open is skipped, never interrupted. A manual
// refresh resets that session's countdown so the next automatic one
// lands a full interval later.
type Scheduler struct {
	sessions Sessions
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	deadline map[string]time.Time
}

// New creates a scheduler over the session set
func New(sessions Sessions, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		deadline: make(map[string]time.Time),
	}
}

// Start runs the refresh loop until the context is cancelled. The loop
// ticks more often than the interval so a reset countdown still fires
// close to its new deadline.
func (s *Scheduler) Start(ctx context.Context) {
	tick := s.interval / 4
	if tick < time.Second {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("auto refresh started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("auto refresh stopped")
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

// Touch resets a session's countdown after a manual refresh
func (s *Scheduler) Touch(userID string) {
	s.touchAt(userID, time.Now())
}

func (s *Scheduler) touchAt(userID string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline[userID] = now.Add(s.interval)
}

// Forget drops a departed session's countdown
func (s *Scheduler) Forget(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadline, userID)
}

func (s *Scheduler) sweep(ctx context.Context, now time.Time) {
	for _, sess := range s.sessions.All() {
		userID := sess.UserID()

		s.mu.Lock()
		due, ok := s.deadline[userID]
		if !ok {
			s.deadline[userID] = now.Add(s.interval)
			s.mu.Unlock()
			continue
		}
		if now.Before(due) {
			s.mu.Unlock()
			continue
		}
		s.deadline[userID] = now.Add(s.interval)
		s.mu.Unlock()

		if sess.Busy() {
			// Mid-action or mid-load: try again a full interval later
			s.logger.Debug().Str("user_id", userID).Msg("refresh skipped, session busy")
			continue
		}
		if err := sess.Refresh(ctx); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("auto refresh failed")
		}
	}
}
