package supervisor

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected, errors.Is-comparable conditions.
var (
	ErrAppNotFound      = errors.New("supervisor: app not found")
	ErrAppAlreadyExists = errors.New("supervisor: app already exists")
	ErrAppRunning       = errors.New("supervisor: app is running")
	ErrAppNotRunning    = errors.New("supervisor: app is not running")
	ErrProcNotFound     = errors.New("supervisor: process slot not found")
	ErrTooManyGroups    = errors.New("supervisor: supplementary group count exceeds bound")
	ErrCgroupNotFound   = errors.New("supervisor: cgroup reported no tasks")
)

// fatalf panics with a message identifying a programmer-error / contract
// violation: deleting a running app, an unknown process-state enum value,
// and similar conditions that must terminate the supervisor rather than
// degrade. Neither the supervisor nor the daemon's dispatch loop recovers
// this panic, so it ends the process with the panic message.
func fatalf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
