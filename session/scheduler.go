package session

import "time"

// TimerHandle is a cancellable scheduled task. Cancelling an already-fired
// or already-cancelled handle is a no-op.
type TimerHandle interface {
	Cancel()
}

// Scheduler schedules one-shot deferred tasks. The manager enforces the
// single-timer invariant itself; the scheduler only runs what it is given.
type Scheduler interface {
	Schedule(delay time.Duration, task func()) TimerHandle
}

type timerScheduler struct{}

// NewTimerScheduler returns the production Scheduler backed by the runtime
// timer, firing task on its own goroutine.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(delay time.Duration, task func()) TimerHandle {
	return &timerHandle{timer: time.AfterFunc(delay, task)}
}

type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Cancel() {
	h.timer.Stop()
}
