package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSession struct {
	mu       sync.Mutex
	id       string
	busy     bool
	refreshs int
}

func (f *fakeSession) UserID() string { return f.id }

func (f *fakeSession) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakeSession) Refresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs++
	return nil
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshs
}

type fakeSessions struct {
	list []Refreshable
}

func (f *fakeSessions) All() []Refreshable { return f.list }

func TestSweepRefreshesIdleSessions(t *testing.T) {
	sess := &fakeSession{id: "user-1"}
	s := New(&fakeSessions{list: []Refreshable{sess}}, 30*time.Second, zerolog.Nop())

	now := time.Now()
	s.sweep(context.Background(), now)
	if sess.count() != 0 {
		t.Errorf("first sweep only arms the countdown, got %d refreshes", sess.count())
	}

	s.sweep(context.Background(), now.Add(30*time.Second))
	if sess.count() != 1 {
		t.Errorf("expected 1 refresh after the interval elapsed, got %d", sess.count())
	}

	s.sweep(context.Background(), now.Add(31*time.Second))
	if sess.count() != 1 {
		t.Errorf("countdown must rearm after firing, got %d refreshes", sess.count())
	}
}

func TestSweepSkipsBusySessions(t *testing.T) {
	sess := &fakeSession{id: "user-1", busy: true}
	s := New(&fakeSessions{list: []Refreshable{sess}}, 30*time.Second, zerolog.Nop())

	now := time.Now()
	s.sweep(context.Background(), now)
	s.sweep(context.Background(), now.Add(time.Minute))

	if sess.count() != 0 {
		t.Errorf("busy session must never be refreshed, got %d", sess.count())
	}

	// The skip still consumed the deadline: the session gets a full
	// interval of quiet once it frees up
	sess.mu.Lock()
	sess.busy = false
	sess.mu.Unlock()

	s.sweep(context.Background(), now.Add(time.Minute+time.Second))
	if sess.count() != 0 {
		t.Errorf("refresh fired before the rearmed deadline, got %d", sess.count())
	}

	s.sweep(context.Background(), now.Add(2*time.Minute+time.Second))
	if sess.count() != 1 {
		t.Errorf("expected refresh after the rearmed deadline, got %d", sess.count())
	}
}

func TestTouchResetsCountdown(t *testing.T) {
	sess := &fakeSession{id: "user-1"}
	s := New(&fakeSessions{list: []Refreshable{sess}}, 30*time.Second, zerolog.Nop())

	now := time.Now()
	s.sweep(context.Background(), now)

	// Manual refresh 20s in pushes the deadline to the 50s mark
	s.touchAt("user-1", now.Add(20*time.Second))

	s.sweep(context.Background(), now.Add(30*time.Second))
	if sess.count() != 0 {
		t.Errorf("touched session refreshed too early, got %d", sess.count())
	}

	s.sweep(context.Background(), now.Add(50*time.Second))
	if sess.count() != 1 {
		t.Errorf("expected refresh at the pushed-out deadline, got %d", sess.count())
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s := New(&fakeSessions{}, 4*time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("scheduler did not stop after context cancel")
	}
}
