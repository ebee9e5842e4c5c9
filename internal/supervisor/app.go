package supervisor

import (
	"path"
	"strings"
	"sync"
)

// App is the in-memory representation of a supervised application: its
// identity, its ordered process set, and the lifecycle state machine that
// governs when that process set may run.
//
// All mutable fields are guarded by mu. There is no per-app goroutine:
// the SIGCHLD reap loop, timer callbacks and external callers each call
// into the supervisor from their own goroutine, and mu is what serializes
// their access to an app's fields.
type App struct {
	mu sync.Mutex

	name       string
	configPath string
	sandboxed  bool

	installPath string
	sandboxPath string

	uid, gid          uint32
	supplementaryGids []uint32

	state     AppState
	processes []*ProcessSlot

	killTimer Timer

	// label is the MAC subject label identifying this app's processes;
	// derived from name.
	label string

	// bindings holds the peer app labels declared under this app's
	// bindings/*/app config subtree, captured at Create time.
	bindings []string

	// watchdogAction is the unparsed watchdogAction config string,
	// captured at Create time.
	watchdogAction string

	// pendingRestart records that this app's in-flight stop sequence is
	// the RESTART_APP continuation: once afterDecision observes the app
	// fully stopped, it starts the app again instead of leaving it down.
	pendingRestart bool
}

// appName derives the unique app name from the final segment of a
// configuration path, per AppLifecycle.Create step 1.
func appName(configPath string) string {
	trimmed := strings.TrimRight(configPath, "/")
	return path.Base(trimmed)
}

// GetName returns the app's unique name.
func (a *App) GetName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// GetConfigPath returns the configuration-store path this app was created from.
func (a *App) GetConfigPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.configPath
}

// GetState returns the app-level lifecycle state.
func (a *App) GetState() AppState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// GetIsSandboxed reports whether this app runs inside a sandbox.
func (a *App) GetIsSandboxed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sandboxed
}

// GetUid returns the uid this app's processes run as (0 if not sandboxed).
func (a *App) GetUid() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uid
}

// GetGid returns the primary gid this app's processes run as.
func (a *App) GetGid() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gid
}

// GetInstallDirPath returns the app's install directory.
func (a *App) GetInstallDirPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.installPath
}

// GetSandboxPath returns the app's sandbox root, empty if not sandboxed.
func (a *App) GetSandboxPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sandboxPath
}

// Label returns the app's MAC subject label.
func (a *App) Label() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.label
}

// GetProcState returns the named process's reported state, or ProcStopped
// if the app itself is not RUNNING. An unknown underlying runner state is
// a fatal invariant violation (see DESIGN.md error-handling taxonomy).
func (a *App) GetProcState(name string) ProcState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != AppRunning {
		return ProcStopped
	}
	for _, slot := range a.processes {
		if slot.Name == name {
			if slot.Handle == nil {
				return ProcStopped
			}
			st := slot.Handle.State()
			switch st {
			case ProcStopped, ProcRunning, ProcPaused:
				return st
			default:
				fatalf("supervisor: process %s/%s reported unknown state %v", a.name, name, st)
			}
		}
	}
	return ProcStopped
}

// GetProcPID returns the named process's current pid, or 0 if it has no
// slot, no handle, or is not currently running. Used by callers outside
// this package (the daemon's watchdog registration) that need a pid to
// arm a timer against without reaching into unexported slot state.
func (a *App) GetProcPID(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, slot := range a.processes {
		if slot.Name == name && slot.Handle != nil {
			return slot.Handle.PID()
		}
	}
	return 0
}

// HasRunningProc reports whether any of the app's process slots is
// currently running. State transitions to STOPPED are defined in terms of
// this becoming false.
func (a *App) HasRunningProc() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, slot := range a.processes {
		if slot.Running() {
			return true
		}
	}
	return false
}

// slotByPID returns the process slot whose handle reports the given pid,
// used by the fault router's linear scan (the process set is small and
// bounded, so a map is not warranted).
func (a *App) slotByPID(pid int) *ProcessSlot {
	for _, slot := range a.processes {
		if slot.Handle != nil && slot.Handle.PID() == pid {
			return slot
		}
	}
	return nil
}

// slotByName returns the named process slot, or nil.
func (a *App) slotByName(name string) *ProcessSlot {
	for _, slot := range a.processes {
		if slot.Name == name {
			return slot
		}
	}
	return nil
}
