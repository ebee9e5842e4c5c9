// Package reslimit applies per-app resource limits through
// github.com/containerd/cgroups, updating the same v1 hierarchy the
// cgroup freezer manages so both collaborators agree on where an app's
// cgroup actually lives in the kernel.
package reslimit

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/containerd/cgroups"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

const (
	defaultCPUQuotaUsec int64  = 100000 // 1 full core, matching a 100ms period
	cpuPeriodUsec       uint64 = 100000
	defaultPidsLimit    int64  = 256
)

// Limiter is the production supervisor.ResourceLimiter. It manages the
// same per-app cgroup under Root that the cgroup freezer does, creating
// it on first use rather than assuming the freezer already has.
type Limiter struct {
	Root   string
	Logger *slog.Logger

	mu     sync.Mutex
	groups map[string]cgroups.Cgroup
}

// NewLimiter returns a Limiter rooted at root (e.g. "/sys/fs/cgroup/legato").
func NewLimiter(root string, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{Root: root, Logger: logger, groups: make(map[string]cgroups.Cgroup)}
}

func (l *Limiter) cgroupPath(appName string) string {
	return filepath.Join(l.Root, appName)
}

// ensure loads appName's cgroup, creating it on first use. Shared with the
// freezer's own lazily-created-on-first-use pattern so neither collaborator
// needs the other to run first.
func (l *Limiter) ensure(appName string) (cgroups.Cgroup, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cg, ok := l.groups[appName]; ok {
		return cg, nil
	}

	path := cgroups.StaticPath(l.cgroupPath(appName))
	cg, err := cgroups.Load(cgroups.V1, path)
	if err != nil {
		cg, err = cgroups.New(cgroups.V1, path, &specs.LinuxResources{})
		if err != nil {
			return nil, fmt.Errorf("reslimit: create cgroup for %s: %w", appName, err)
		}
	}
	l.groups[appName] = cg
	return cg, nil
}

// Apply installs resource limits for appName. configPath identifies the
// app's subtree in the configuration store; this implementation uses fixed
// defaults (one full CPU core, 256 max pids, no memory ceiling) since the
// per-app configuration tree does not carry per-app resource-limit
// overrides, only the fact that limits must be applied before the app's
// processes start.
func (l *Limiter) Apply(appName, configPath string) error {
	cg, err := l.ensure(appName)
	if err != nil {
		return err
	}

	quota := defaultCPUQuotaUsec
	period := cpuPeriodUsec
	pids := defaultPidsLimit

	resources := &specs.LinuxResources{
		CPU: &specs.LinuxCPU{
			Quota:  &quota,
			Period: &period,
		},
		Pids: &specs.LinuxPids{
			Limit: pids,
		},
	}

	if err := cg.Update(resources); err != nil {
		return fmt.Errorf("reslimit: apply limits for %s: %w", appName, err)
	}
	return nil
}

// Release drops the cached cgroup handle for appName. The cgroup
// directory itself is owned and removed by the cgroup freezer, which also
// created it, so this does not delete anything on disk.
func (l *Limiter) Release(appName string) error {
	l.mu.Lock()
	delete(l.groups, appName)
	l.mu.Unlock()
	l.Logger.Debug("reslimit: release", "app", appName)
	return nil
}

var _ supervisor.ResourceLimiter = (*Limiter)(nil)
