package memhost

import (
	"sync"
	"time"

	"github.com/roach88/boundary/internal/host"
)

// Scheduler is a virtual clock with timeouts and intervals. Time moves
// only through Advance, which fires due timers in due-time order.
//
// Thread-safety: safe for concurrent use. Timer callbacks run on the
// goroutine calling Advance, without the lock held.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	timers map[int]*timer
}

type timer struct {
	id    int
	due   time.Time
	every time.Duration
	fn    func()
}

// NewScheduler creates a scheduler whose clock starts at start.
func NewScheduler(start time.Time) *Scheduler {
	return &Scheduler{now: start, timers: make(map[int]*timer)}
}

// Now returns the virtual time.
func (s *Scheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// SetTimeout runs fn once after d.
func (s *Scheduler) SetTimeout(fn func(), d time.Duration) host.Cancel {
	return s.add(fn, d, 0)
}

// SetInterval runs fn every d. Non-positive periods are raised to 1ms.
func (s *Scheduler) SetInterval(fn func(), every time.Duration) host.Cancel {
	if every <= 0 {
		every = time.Millisecond
	}
	return s.add(fn, every, every)
}

func (s *Scheduler) add(fn func(), after, every time.Duration) host.Cancel {
	if after < 0 {
		after = 0
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.timers[id] = &timer{id: id, due: s.now.Add(after), every: every, fn: fn}
	s.mu.Unlock()

	return host.CancelFunc(func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
	})
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Advance moves the clock forward by d, firing every timer that comes
// due on the way. Ties fire in registration order.
func (s *Scheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.nextDueLocked(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.due
		if t.every > 0 {
			t.due = t.due.Add(t.every)
		} else {
			delete(s.timers, t.id)
		}
		fn := t.fn
		s.mu.Unlock()

		fn()
	}
}

func (s *Scheduler) nextDueLocked(limit time.Time) *timer {
	var best *timer
	for _, t := range s.timers {
		if t.due.After(limit) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.id < best.id) {
			best = t
		}
	}
	return best
}
