package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleFires(t *testing.T) {
	s := NewTimerScheduler()
	done := make(chan struct{})
	s.Schedule(5*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Timer never fired")
	}
	if s.Pending() != 0 {
		t.Errorf("Expected 0 pending after fire, got %d", s.Pending())
	}
}

func TestCancelPreventsRun(t *testing.T) {
	s := NewTimerScheduler()
	var fired atomic.Bool
	h := s.Schedule(20*time.Millisecond, func() { fired.Store(true) })
	if !s.Cancel(h) {
		t.Fatal("Expected Cancel to succeed before the timer fires")
	}
	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("Cancelled job ran anyway")
	}
	if s.Pending() != 0 {
		t.Errorf("Expected 0 pending, got %d", s.Pending())
	}
}

func TestCancelAfterFireReportsFalse(t *testing.T) {
	s := NewTimerScheduler()
	done := make(chan struct{})
	h := s.Schedule(time.Millisecond, func() { close(done) })
	<-done
	if s.Cancel(h) {
		t.Error("Expected Cancel after execution to report too-late")
	}
}

func TestCancelUnknownHandle(t *testing.T) {
	s := NewTimerScheduler()
	if s.Cancel(Handle("nope")) {
		t.Error("Expected unknown handle to report false")
	}
}

func TestIndependentJobs(t *testing.T) {
	s := NewTimerScheduler()
	var count atomic.Int32
	h1 := s.Schedule(time.Hour, func() { count.Add(1) })
	done := make(chan struct{})
	s.Schedule(time.Millisecond, func() { count.Add(1); close(done) })
	<-done
	if !s.Cancel(h1) {
		t.Error("Expected the long job to still be cancellable")
	}
	if got := count.Load(); got != 1 {
		t.Errorf("Expected exactly one execution, got %d", got)
	}
}
