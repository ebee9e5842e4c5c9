package supervisor

// StopHandler is a continuation attached to a ProcessSlot by the watchdog
// path, invoked from the SIGCHLD path once the process it was waiting on
// actually exits. Set at most once per stop cycle and consumed on first
// use.
type StopHandler func(a *App, slot *ProcessSlot) error

// ProcessSlot binds a single configured process within an app to the
// runner handle backing its (possibly not-yet-started) OS process.
type ProcessSlot struct {
	Name       string
	ConfigPath string
	Handle     ProcessHandle

	// stopping is set by the kill engine once it has asked this process
	// to exit, so a later SIGCHLD is not mistaken for a fault.
	stopping bool

	// stopHandler is the pending re-launch continuation from a
	// watchdog-driven stop, consumed by the next SIGCHLD for this slot.
	stopHandler StopHandler
}

// Running reports whether the slot's process runner handle is currently
// in the RUNNING state. A slot with no handle yet is never running.
func (p *ProcessSlot) Running() bool {
	return p.Handle != nil && p.Handle.State() == ProcRunning
}

// PID returns the slot's process ID, or 0 if it has no live handle.
func (p *ProcessSlot) PID() int {
	if p.Handle == nil {
		return 0
	}
	return p.Handle.PID()
}
