// Package schedule provides a minimal cancellable one-shot timer
// abstraction for deferred actions.
package schedule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle identifies a scheduled job.
type Handle string

// Scheduler arms one-shot jobs that can be cancelled in O(1) before
// they fire. Implementations must guarantee a cancelled job never runs
// and that Cancel reports false once the job has started executing.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	Cancel(h Handle) bool
}

// TimerScheduler implements Scheduler on top of time.AfterFunc.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[Handle]*time.Timer
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[Handle]*time.Timer)}
}

func (s *TimerScheduler) Schedule(delay time.Duration, fn func()) Handle {
	h := Handle(uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[h] = time.AfterFunc(delay, func() {
		// Claim the handle before running. If Cancel got there first
		// the entry is gone and the job must not run; if we get here
		// first, a concurrent Cancel will find nothing and report
		// "too late".
		s.mu.Lock()
		if _, ok := s.timers[h]; !ok {
			s.mu.Unlock()
			return
		}
		delete(s.timers, h)
		s.mu.Unlock()
		fn()
	})
	return h
}

func (s *TimerScheduler) Cancel(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[h]
	if !ok {
		return false
	}
	delete(s.timers, h)
	t.Stop()
	return true
}

// Pending returns the number of armed jobs. Intended for tests.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
