package duel

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/warduel/internal/dependencies/clock"
	"github.com/mcoot/warduel/internal/model"
)

// task is a handle to one scheduled callback
type task struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func (t *task) cancel() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// scheduler runs delayed and periodic callbacks grouped by session.
// Each task waits on its own clock timer in a goroutine; cancelling a
// session stops all of its tasks, and shutdown stops everything.
type scheduler struct {
	clock clock.Clock

	ctx    context.Context
	cancel context.CancelFunc

	// waiters counts task goroutines, including any callback in progress
	waiters sync.WaitGroup

	mu    sync.Mutex
	tasks map[model.SessionID]map[*task]struct{}
}

func newScheduler(clk clock.Clock) *scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &scheduler{
		clock:  clk,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[model.SessionID]map[*task]struct{}),
	}
}

func (s *scheduler) register(id model.SessionID) *task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return nil
	}
	t := &task{stop: make(chan struct{})}
	if s.tasks[id] == nil {
		s.tasks[id] = make(map[*task]struct{})
	}
	s.tasks[id][t] = struct{}{}
	s.waiters.Add(1)
	return t
}

func (s *scheduler) release(id model.SessionID, t *task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.tasks[id]; ok {
		delete(set, t)
		if len(set) == 0 {
			delete(s.tasks, id)
		}
	}
}

// after runs fn once when d has elapsed, unless cancelled first
func (s *scheduler) after(id model.SessionID, d time.Duration, fn func()) *task {
	t := s.register(id)
	if t == nil {
		return nil
	}
	timer := s.clock.NewTimer(d)

	go func() {
		defer s.waiters.Done()
		defer s.release(id, t)

		select {
		case <-timer.Chan():
			s.run(t, fn)
		case <-t.stop:
			stopAndDrainTimer(timer)
		case <-s.ctx.Done():
			stopAndDrainTimer(timer)
		}
	}()
	return t
}

// every runs fn each time interval elapses until cancelled
func (s *scheduler) every(id model.SessionID, interval time.Duration, fn func()) *task {
	t := s.register(id)
	if t == nil {
		return nil
	}
	ticker := s.clock.NewTicker(interval)

	go func() {
		defer s.waiters.Done()
		defer s.release(id, t)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.Chan():
				s.run(t, fn)
			case <-t.stop:
				return
			case <-s.ctx.Done():
				return
			}
		}
	}()
	return t
}

func (s *scheduler) run(t *task, fn func()) {
	select {
	case <-t.stop:
		return
	case <-s.ctx.Done():
		return
	default:
	}
	fn()
}

// cancelSession stops every pending task of the session
func (s *scheduler) cancelSession(id model.SessionID) {
	s.mu.Lock()
	set := s.tasks[id]
	delete(s.tasks, id)
	s.mu.Unlock()

	for t := range set {
		t.cancel()
	}
}

// pending returns the number of live tasks for the session
func (s *scheduler) pending(id model.SessionID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks[id])
}

// shutdown cancels all tasks and waits for callbacks already running to
// return. It gives up when ctx is done.
func (s *scheduler) shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.waiters.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func stopAndDrainTimer(timer clock.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
