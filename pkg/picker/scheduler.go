package picker

import "time"

// Timer is a scheduled call that can be stopped before it runs.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn after d. The controller debounces keystrokes through it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemScheduler schedules on the runtime timers.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
