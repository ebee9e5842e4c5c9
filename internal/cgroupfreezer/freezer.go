// Package cgroupfreezer controls the freezer cgroup backing each app's
// process set, on top of github.com/containerd/cgroups: freeze, broadcast
// a signal to every task in the group, then thaw so the signal is
// actually delivered. This is the same freeze -> signal -> thaw ordering
// used to stop a task group cleanly in container runtimes generally
// (compare other_examples/ca9fbe4b_hashicorp-nomad__client-lib-cgutil-group_killer.go.go,
// style reference only).
package cgroupfreezer

import (
	"fmt"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/containerd/cgroups"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// Freezer is the production supervisor.CgroupFreezer, managing one cgroup
// per app under Root (e.g. "/legato/{appName}").
type Freezer struct {
	Root string

	mu     sync.Mutex
	groups map[string]cgroups.Cgroup
}

// NewFreezer returns a Freezer rooted at root.
func NewFreezer(root string) *Freezer {
	return &Freezer{Root: root, groups: make(map[string]cgroups.Cgroup)}
}

func (f *Freezer) cgroupPath(appName string) string {
	return filepath.Join(f.Root, appName)
}

// ensure loads the app's cgroup, creating it on first use if it does not
// already exist.
func (f *Freezer) ensure(appName string) (cgroups.Cgroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cg, ok := f.groups[appName]; ok {
		return cg, nil
	}

	path := cgroups.StaticPath(f.cgroupPath(appName))
	cg, err := cgroups.Load(cgroups.V1, path)
	if err != nil {
		cg, err = cgroups.New(cgroups.V1, path, &specs.LinuxResources{})
		if err != nil {
			return nil, fmt.Errorf("cgroupfreezer: create cgroup for %s: %w", appName, err)
		}
	}
	f.groups[appName] = cg
	return cg, nil
}

// Freeze suspends every task currently in the app's cgroup.
func (f *Freezer) Freeze(appName string) error {
	cg, err := f.ensure(appName)
	if err != nil {
		return err
	}
	if err := cg.Freeze(); err != nil {
		return fmt.Errorf("cgroupfreezer: freeze %s: %w", appName, err)
	}
	return nil
}

// Thaw resumes every task in the app's cgroup.
func (f *Freezer) Thaw(appName string) error {
	cg, err := f.ensure(appName)
	if err != nil {
		return err
	}
	if err := cg.Thaw(); err != nil {
		return fmt.Errorf("cgroupfreezer: thaw %s: %w", appName, err)
	}
	return nil
}

// State reports the freezer's current state for appName.
func (f *Freezer) State(appName string) (supervisor.FreezeState, error) {
	cg, err := f.ensure(appName)
	if err != nil {
		return supervisor.FreezeThawed, err
	}
	switch cg.State() {
	case cgroups.Frozen:
		return supervisor.FreezeFrozen, nil
	case cgroups.Freezing:
		return supervisor.FreezeFreezing, nil
	default:
		return supervisor.FreezeThawed, nil
	}
}

// SendSignal delivers sig to every task currently in the app's cgroup and
// returns how many tasks were signalled.
func (f *Freezer) SendSignal(appName string, sig syscall.Signal) (int, error) {
	cg, err := f.ensure(appName)
	if err != nil {
		return 0, err
	}
	procs, err := cg.Processes(cgroups.Freezer, true)
	if err != nil {
		return 0, fmt.Errorf("cgroupfreezer: list processes for %s: %w", appName, err)
	}

	signalled := 0
	for _, p := range procs {
		if err := syscall.Kill(p.Pid, sig); err == nil {
			signalled++
		}
	}
	return signalled, nil
}

// IsEmpty reports whether the app's cgroup currently has no tasks.
func (f *Freezer) IsEmpty(appName string) (bool, error) {
	cg, err := f.ensure(appName)
	if err != nil {
		return true, err
	}
	procs, err := cg.Processes(cgroups.Freezer, true)
	if err != nil {
		return true, fmt.Errorf("cgroupfreezer: list processes for %s: %w", appName, err)
	}
	return len(procs) == 0, nil
}

var _ supervisor.CgroupFreezer = (*Freezer)(nil)
