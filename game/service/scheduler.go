package service

import (
	"sort"
	"sync"
	"time"
)

// Timer is a handle to a scheduled callback
type Timer interface {
	// Stop cancels future runs. It reports whether the timer was still active.
	Stop() bool
}

// Scheduler runs callbacks after a delay or periodically. Callbacks run on
// their own goroutine in production and synchronously in ManualScheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Every(interval time.Duration, f func()) Timer
}

// NewScheduler returns a Scheduler backed by the runtime timers
func NewScheduler() Scheduler {
	return realScheduler{}
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realScheduler) Every(interval time.Duration, f func()) Timer {
	t := &ticker{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				select {
				case <-t.done:
					return
				default:
				}
				f()
			}
		}
	}()
	return t
}

type ticker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// Stop may be called from inside the callback
func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

// ManualScheduler is a Scheduler whose clock only moves when Advance is
// called. Due callbacks run synchronously on the caller's goroutine.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// NewManualScheduler creates a ManualScheduler at time zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

type manualTimer struct {
	s        *ManualScheduler
	seq      int
	due      time.Duration
	interval time.Duration
	f        func()
	active   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	wasActive := t.active
	t.active = false
	return wasActive
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return s.add(d, 0, f)
}

func (s *ManualScheduler) Every(interval time.Duration, f func()) Timer {
	return s.add(interval, interval, f)
}

func (s *ManualScheduler) add(d, interval time.Duration, f func()) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, seq: s.seq, due: s.now + d, interval: interval, f: f, active: true}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, running every callback that falls due
// in order. Callbacks may schedule or stop timers.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		t := s.nextDue(target)
		if t == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = t.due
		if t.interval > 0 {
			t.due += t.interval
		} else {
			t.active = false
		}
		s.mu.Unlock()

		t.f()
	}
}

// nextDue returns the earliest active timer due at or before target. Callers hold mu.
func (s *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	active := s.timers[:0]
	for _, t := range s.timers {
		if t.active {
			active = append(active, t)
		}
	}
	s.timers = active

	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	if len(s.timers) == 0 || s.timers[0].due > target {
		return nil
	}
	return s.timers[0]
}

// Pending returns the number of active timers
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if t.active {
			n++
		}
	}
	return n
}
