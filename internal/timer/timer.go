// Package timer wraps time.AfterFunc behind the supervisor core's
// TimerService/Timer interfaces, so the core itself never calls into the
// time package directly and tests can substitute a fake clock.
package timer

import (
	"time"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// Service is the production supervisor.TimerService backed by
// time.AfterFunc.
type Service struct{}

// NewService returns a Service ready for use; it holds no state.
func NewService() *Service { return &Service{} }

// AfterFunc arms a new one-shot timer that calls f after d elapses.
func (Service) AfterFunc(d time.Duration, f func()) supervisor.Timer {
	return &handle{t: time.AfterFunc(d, f)}
}

type handle struct {
	t *time.Timer
}

// Stop cancels the timer; it reports whether the cancellation prevented
// the timer from firing, per time.Timer.Stop's semantics.
func (h *handle) Stop() bool { return h.t.Stop() }

// Reset reschedules the timer to fire after d from now.
func (h *handle) Reset(d time.Duration) bool { return h.t.Reset(d) }
