// Package supervisor implements the application supervisor core: app
// lifecycle, process-set management, the two-phase kill engine, and the
// fault-handling and watchdog decision logic. It depends on a set of
// collaborator interfaces (ProcessRunner, Sandbox, ResourceLimiter,
// MACInstaller, CgroupFreezer, UserProvisioner, TimerService) that are
// implemented in sibling packages and injected at construction time; the
// core itself never execs a process, parses a config file, or reboots a
// machine.
package supervisor

import "time"

// AppState is the app-level lifecycle state.
type AppState int

const (
	AppStopped AppState = iota
	AppRunning
)

func (s AppState) String() string {
	switch s {
	case AppStopped:
		return "STOPPED"
	case AppRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// ProcState mirrors the process runner's reported process state.
type ProcState int

const (
	ProcStopped ProcState = iota
	ProcRunning
	ProcPaused
)

func (s ProcState) String() string {
	switch s {
	case ProcStopped:
		return "STOPPED"
	case ProcRunning:
		return "RUNNING"
	case ProcPaused:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// ProcFaultAction is the process-level verdict the process runner returns
// from SigChildHandler, before the supervisor core escalates it to an
// app-level FaultAction.
type ProcFaultAction int

const (
	ProcNoFault ProcFaultAction = iota
	ProcIgnore
	ProcRestart
	ProcRestartApp
	ProcStopApp
	ProcReboot
)

func (a ProcFaultAction) String() string {
	switch a {
	case ProcNoFault:
		return "NO_FAULT"
	case ProcIgnore:
		return "IGNORE"
	case ProcRestart:
		return "RESTART"
	case ProcRestartApp:
		return "RESTART_APP"
	case ProcStopApp:
		return "STOP_APP"
	case ProcReboot:
		return "REBOOT"
	default:
		return "UNKNOWN"
	}
}

// FaultAction is the app-level verdict the SIGCHLD path returns to the
// caller (the fault dispatcher, a layer above this core).
type FaultAction int

const (
	FaultIgnore FaultAction = iota
	FaultRestartApp
	FaultStopApp
	FaultReboot
)

func (a FaultAction) String() string {
	switch a {
	case FaultIgnore:
		return "IGNORE"
	case FaultRestartApp:
		return "RESTART_APP"
	case FaultStopApp:
		return "STOP_APP"
	case FaultReboot:
		return "REBOOT"
	default:
		return "UNKNOWN"
	}
}

// WatchdogAction is the full vocabulary a process-level watchdog policy or
// a parsed app-level config string can produce. Only a subset of these
// ever escapes the supervisor to the caller (see WatchdogOutcome).
type WatchdogAction int

const (
	WdogNotFound WatchdogAction = iota
	WdogError
	WdogHandled
	WdogIgnoreAction
	WdogStop
	WdogRestart
	WdogRestartApp
	WdogStopApp
	WdogReboot
)

func (a WatchdogAction) String() string {
	switch a {
	case WdogNotFound:
		return "NOT_FOUND"
	case WdogError:
		return "ERROR"
	case WdogHandled:
		return "HANDLED"
	case WdogIgnoreAction:
		return "IGNORE"
	case WdogStop:
		return "STOP"
	case WdogRestart:
		return "RESTART"
	case WdogRestartApp:
		return "RESTART_APP"
	case WdogStopApp:
		return "STOP_APP"
	case WdogReboot:
		return "REBOOT"
	default:
		return "UNKNOWN"
	}
}

// ParseWatchdogAction parses the app config's watchdogAction string into the
// watchdog action vocabulary. An unrecognized string yields WdogError, as
// required by the fault-router's step 2 ("if parsing fails, action becomes
// ERROR").
func ParseWatchdogAction(s string) WatchdogAction {
	switch s {
	case "ignore":
		return WdogIgnoreAction
	case "stop":
		return WdogStop
	case "restart":
		return WdogRestart
	case "restartApp":
		return WdogRestartApp
	case "stopApp":
		return WdogStopApp
	case "reboot":
		return WdogReboot
	default:
		return WdogError
	}
}

// KillMode selects the signal KillEngine broadcasts into an app's cgroup.
type KillMode int

const (
	KillSoft KillMode = iota
	KillHard
)

// FreezeState mirrors the cgroup freezer's reported state.
type FreezeState int

const (
	FreezeThawed FreezeState = iota
	FreezeFreezing
	FreezeFrozen
)

// Timing constants. FaultLimitRestartInterval and FaultLimitRestartAppInterval
// are kept as two distinct named constants even though both are currently
// 10 seconds — see DESIGN.md, Open Question 3.
const (
	FaultLimitRestartInterval    = 10 * time.Second
	FaultLimitRestartAppInterval = 10 * time.Second
	SoftKillTimeout              = 300 * time.Millisecond
	RebootQuiescenceInterval     = 120 * time.Second

	// AppsInstallDir is APPS_INSTALL_DIR from the supervisor's external
	// interfaces section.
	AppsInstallDir = "/opt/legato/apps"

	// DefaultRebootFaultRecordPath is the well-known persisted-state path.
	DefaultRebootFaultRecordPath = "/opt/legato/appRebootFault"

	// FrameworkLabel is the MAC label representing the framework boundary.
	FrameworkLabel = "framework"
)
