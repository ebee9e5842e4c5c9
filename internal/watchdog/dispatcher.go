// Package watchdog tracks per-process heartbeat kicks and fires a timeout
// callback when one is missed, structured like the ambient health
// monitor's threshold/escalation loop but driven by external kicks on a
// timer rather than by actively polling a checker.
package watchdog

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// entry tracks one registered process's watchdog timer.
type entry struct {
	appName string
	pid     int
	timeout time.Duration
	timer   supervisor.Timer
	onMiss  func()
}

// Dispatcher is the production WatchdogDispatcher described in the
// supervisor's component design: it invokes the supervisor whenever a
// registered process fails to kick within its configured interval.
type Dispatcher struct {
	mu      sync.Mutex
	timers  supervisor.TimerService
	entries map[int]*entry // keyed by pid
	logger  *slog.Logger
}

// NewDispatcher returns a Dispatcher arming timers through timers.
func NewDispatcher(timers supervisor.TimerService, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		timers:  timers,
		entries: make(map[int]*entry),
		logger:  logger,
	}
}

// Register arms a watchdog timer for pid. onMiss is invoked exactly once,
// from the timer's own goroutine, if Kick is not called again within
// timeout; it is the caller's responsibility to route onMiss into
// Supervisor.WatchdogTimeout(app, pid). Registering an already-registered
// pid resets its timer to the new timeout.
func (d *Dispatcher) Register(appName string, pid int, timeout time.Duration, onMiss func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[pid]; ok {
		e.timeout = timeout
		e.onMiss = onMiss
		e.timer.Reset(timeout)
		return
	}

	e := &entry{appName: appName, pid: pid, timeout: timeout, onMiss: onMiss}
	e.timer = d.timers.AfterFunc(timeout, func() { d.fire(pid) })
	d.entries[pid] = e
}

// Kick resets pid's watchdog timer, acknowledging a received heartbeat.
// It is a no-op if pid is not registered (e.g. it was already reaped).
func (d *Dispatcher) Kick(pid int) {
	d.mu.Lock()
	e, ok := d.entries[pid]
	d.mu.Unlock()
	if !ok {
		return
	}
	e.timer.Reset(e.timeout)
}

// Unregister disarms and removes pid's watchdog timer, used when the
// process is deliberately stopped so its kill does not also read as a
// missed heartbeat.
func (d *Dispatcher) Unregister(pid int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[pid]; ok {
		e.timer.Stop()
		delete(d.entries, pid)
	}
}

func (d *Dispatcher) fire(pid int) {
	d.mu.Lock()
	e, ok := d.entries[pid]
	if ok {
		delete(d.entries, pid)
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	d.logger.Warn("watchdog: missed heartbeat", "app", e.appName, "pid", pid)
	e.onMiss()
}
