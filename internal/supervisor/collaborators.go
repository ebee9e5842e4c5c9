package supervisor

import (
	"syscall"
	"time"
)

// ProcessHandle is an opaque reference to a spawned process, returned by
// ProcessRunner.Create and threaded back through every later call. Concrete
// runners attach whatever bookkeeping they need behind this interface.
type ProcessHandle interface {
	Name() string
	PID() int
	State() ProcState
	FaultTime() time.Time
}

// ProcessRunner execs and reaps the actual OS processes that back a
// ProcessSlot. Implementations live outside this package (see
// internal/runner) so the core never shells out directly.
type ProcessRunner interface {
	Create(appName, procName, cfgPath string) (ProcessHandle, error)
	Start(h ProcessHandle, rootDir string) error
	StartInSandbox(h ProcessHandle, sandboxRoot string, uid, gid uint32, supplementaryGids []uint32) error
	Delete(h ProcessHandle) error
	// Stopping marks the handle as intentionally being torn down, so a
	// subsequent exit is not mistaken for a fault.
	Stopping(h ProcessHandle)
	SigChildHandler(h ProcessHandle, exitStatus int) ProcFaultAction
	GetWatchdogAction(h ProcessHandle) WatchdogAction
	// Kill sends sig directly to the handle's process (the runner package
	// signals that process's group), used by the watchdog path's
	// single-process STOP/RESTART, which bypasses the cgroup-wide kill
	// engine.
	Kill(h ProcessHandle, sig syscall.Signal) error
}

// Sandbox builds and tears down the isolated filesystem view a sandboxed
// app's processes run inside.
type Sandbox interface {
	Create(appName string, uid, gid uint32) (rootDir string, err error)
	Remove(appName string) error
}

// ResourceLimiter applies and releases the cgroup-backed resource limits
// for an app. The core passes only configPath so it never has to keep a
// live Txn around past Create. The reslimit package's Limiter does not
// read configPath: it applies the same CPU quota and pid limit to every
// app and sets no memory or file-descriptor limit.
type ResourceLimiter interface {
	Apply(appName, configPath string) error
	Release(appName string) error
}

// Txn is the read-only configuration view the supervisor core consumes; it
// mirrors internal/config.Txn without importing that package, so
// collaborators can be satisfied by any compatible tree reader.
type Txn interface {
	GetBool(path string, def bool) bool
	GetString(path string, def string) string
	Exists(path string) bool
	Children(path string) []string
}

// MACInstaller installs and revokes the mandatory-access-control rules that
// bound what an app's label may touch.
type MACInstaller interface {
	InstallSelfAccessRules(label string) error
	InstallFrameworkBinding(label string) error
	InstallBindingRule(selfLabel, peerLabel string) error
	RevokeAll(label string) error
}

// CgroupFreezer controls the freezer cgroup backing an app's process set,
// used by the kill engine to pause processes before signalling them.
type CgroupFreezer interface {
	Freeze(appName string) error
	Thaw(appName string) error
	State(appName string) (FreezeState, error)
	SendSignal(appName string, sig syscall.Signal) (signalled int, err error)
	IsEmpty(appName string) (bool, error)
}

// UserProvisioner resolves or creates the uid, primary gid, and
// supplementary gids a sandboxed app's processes run as.
type UserProvisioner interface {
	Provision(appName string, groupNames []string) (uid, gid uint32, supplementaryGids []uint32, err error)
	Deprovision(appName string) error
}

// Timer is a single armed or disarmed one-shot timer.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// TimerService constructs Timers; it exists so the supervisor core never
// calls time.AfterFunc directly and tests can substitute a fake clock.
type TimerService interface {
	AfterFunc(d time.Duration, f func()) Timer
}
