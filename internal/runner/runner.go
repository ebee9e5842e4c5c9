// Package runner is the production supervisor.ProcessRunner: it execs the
// actual OS processes behind a ProcessSlot and reaps them, following the
// same exec.CommandContext / process-group / credentials / ProcessWriter
// pattern the ambient process manager used to launch its own instances.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/oxideapps/appsupervisor/internal/audit"
	"github.com/oxideapps/appsupervisor/internal/config"
	"github.com/oxideapps/appsupervisor/internal/logger"
	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// execHandle is the production supervisor.ProcessHandle: one exec.Cmd and
// its bookkeeping.
type execHandle struct {
	mu sync.Mutex

	appName  string
	procName string
	cfgPath  string

	pid       int
	state     supervisor.ProcState
	faultTime time.Time
	stopping  bool

	cmd          *exec.Cmd
	cancel       context.CancelFunc
	doneCh       chan struct{}
	stdoutWriter *logger.ProcessWriter
	stderrWriter *logger.ProcessWriter
}

func (h *execHandle) Name() string { return h.appName + "/" + h.procName }

func (h *execHandle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}

func (h *execHandle) State() supervisor.ProcState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *execHandle) FaultTime() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.faultTime
}

// Runner is the production supervisor.ProcessRunner. It reopens a
// transaction on Tree for every Create call rather than holding one live,
// matching the collaborator contract's "core never keeps a live Txn"
// convention.
type Runner struct {
	Tree       *config.Tree
	LoggingCfg *config.LoggingConfig
	Audit      *audit.Logger
	Logger     *slog.Logger
}

// NewRunner returns a Runner reading process definitions from tree.
func NewRunner(tree *config.Tree, loggingCfg *config.LoggingConfig, auditLogger *audit.Logger, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{Tree: tree, LoggingCfg: loggingCfg, Audit: auditLogger, Logger: log}
}

// Create resolves proc's launch parameters (exe, args, fault action) from
// cfgPath and returns a not-yet-started handle.
func (r *Runner) Create(appName, procName, cfgPath string) (supervisor.ProcessHandle, error) {
	txn := r.Tree.OpenTxn()
	if !txn.Exists(cfgPath) {
		return nil, fmt.Errorf("runner: create %s/%s: no config at %s", appName, procName, cfgPath)
	}
	if exe := txn.GetString(cfgPath+"/exe", ""); exe == "" {
		return nil, fmt.Errorf("runner: create %s/%s: missing exe", appName, procName)
	}
	return &execHandle{
		appName:  appName,
		procName: procName,
		cfgPath:  cfgPath,
		state:    supervisor.ProcStopped,
	}, nil
}

func (r *Runner) launch(h *execHandle, rootDir string, sandboxed bool, uid, gid uint32, supplementaryGids []uint32) error {
	txn := r.Tree.OpenTxn()
	exe := txn.GetString(h.cfgPath+"/exe", "")
	args := txn.Children(h.cfgPath + "/args")

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, exe, args...)
	if rootDir != "" {
		cmd.Dir = rootDir
	}

	env := append(os.Environ(),
		fmt.Sprintf("LEGATO_APP=%s", h.appName),
		fmt.Sprintf("LEGATO_PROC=%s", h.procName),
	)
	for _, e := range txn.Children(h.cfgPath + "/env") {
		if v := txn.GetString(h.cfgPath+"/env/"+e, ""); v != "" {
			env = append(env, fmt.Sprintf("%s=%s", e, v))
		}
	}
	cmd.Env = env

	// New process group: a signal delivered to the daemon's own group must
	// not propagate to supervised children before the kill engine decides
	// to send one deliberately.
	attr := &syscall.SysProcAttr{Setpgid: true}
	if sandboxed {
		attr.Credential = &syscall.Credential{Uid: uid, Gid: gid, Groups: supplementaryGids}
	}
	cmd.SysProcAttr = attr

	instanceID := h.Name()
	var stdoutWriter, stderrWriter *logger.ProcessWriter
	var err error
	if r.LoggingCfg != nil {
		stdoutWriter, err = logger.NewProcessWriter(r.Logger, instanceID, "stdout", r.LoggingCfg)
		if err != nil {
			cancel()
			return fmt.Errorf("runner: stdout writer: %w", err)
		}
		stderrWriter, err = logger.NewProcessWriter(r.Logger, instanceID, "stderr", r.LoggingCfg)
		if err != nil {
			cancel()
			return fmt.Errorf("runner: stderr writer: %w", err)
		}
	}
	if stdoutWriter != nil {
		cmd.Stdout = stdoutWriter
	} else {
		cmd.Stdout = io.Discard
	}
	if stderrWriter != nil {
		cmd.Stderr = stderrWriter
	} else {
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("runner: start %s: %w", instanceID, err)
	}

	h.mu.Lock()
	h.cmd = cmd
	h.cancel = cancel
	h.pid = cmd.Process.Pid
	h.state = supervisor.ProcRunning
	h.stopping = false
	h.doneCh = make(chan struct{})
	h.stdoutWriter = stdoutWriter
	h.stderrWriter = stderrWriter
	doneCh := h.doneCh
	h.mu.Unlock()

	if r.Audit != nil {
		r.Audit.LogProcessStart(instanceID, h.pid, 1)
	}

	go r.monitor(h, doneCh)
	return nil
}

// monitor waits for the process to exit and records its terminal state.
// Reaping and fault routing themselves happen externally, driven by
// whatever surfaces the daemon's SIGCHLD stream into supervisor.SigChild;
// monitor only keeps the handle's own bookkeeping current.
func (r *Runner) monitor(h *execHandle, doneCh chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Logger.Error("runner: panic in monitor recovered", "proc", h.Name(), "panic", rec)
			h.mu.Lock()
			h.state = supervisor.ProcStopped
			h.mu.Unlock()
		}
		close(doneCh)
	}()

	err := h.cmd.Wait()

	h.mu.Lock()
	h.state = supervisor.ProcStopped
	h.faultTime = time.Now()
	if h.stdoutWriter != nil {
		h.stdoutWriter.Flush()
	}
	if h.stderrWriter != nil {
		h.stderrWriter.Flush()
	}
	h.mu.Unlock()

	if err != nil {
		r.Logger.Debug("runner: process exited", "proc", h.Name(), "error", err)
	}
}

// Start launches h rooted at rootDir, unsandboxed (uid/gid 0).
func (r *Runner) Start(h supervisor.ProcessHandle, rootDir string) error {
	eh, ok := h.(*execHandle)
	if !ok {
		return fmt.Errorf("runner: start: not an execHandle")
	}
	return r.launch(eh, rootDir, false, 0, 0, nil)
}

// StartInSandbox launches h inside sandboxRoot under the given credentials.
func (r *Runner) StartInSandbox(h supervisor.ProcessHandle, sandboxRoot string, uid, gid uint32, supplementaryGids []uint32) error {
	eh, ok := h.(*execHandle)
	if !ok {
		return fmt.Errorf("runner: start in sandbox: not an execHandle")
	}
	return r.launch(eh, sandboxRoot, true, uid, gid, supplementaryGids)
}

// Delete releases h's resources. The process must already be stopped; if
// it is not, its context is cancelled as a last resort.
func (r *Runner) Delete(h supervisor.ProcessHandle) error {
	eh, ok := h.(*execHandle)
	if !ok {
		return fmt.Errorf("runner: delete: not an execHandle")
	}
	eh.mu.Lock()
	cancel := eh.cancel
	eh.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Stopping marks h as intentionally being torn down.
func (r *Runner) Stopping(h supervisor.ProcessHandle) {
	eh, ok := h.(*execHandle)
	if !ok {
		return
	}
	eh.mu.Lock()
	eh.stopping = true
	eh.mu.Unlock()
}

// SigChildHandler records the handle's exit and resolves the per-proc
// fault action configured at its cfgPath, unless the exit was expected
// (Stopping was called first), in which case it is never a fault.
func (r *Runner) SigChildHandler(h supervisor.ProcessHandle, exitStatus int) supervisor.ProcFaultAction {
	eh, ok := h.(*execHandle)
	if !ok {
		return supervisor.ProcIgnore
	}

	eh.mu.Lock()
	stopping := eh.stopping
	eh.state = supervisor.ProcStopped
	eh.faultTime = time.Now()
	eh.mu.Unlock()

	if stopping {
		return supervisor.ProcNoFault
	}

	txn := r.Tree.OpenTxn()
	action := txn.GetString(eh.cfgPath+"/faultAction", "restart")
	r.Logger.Warn("runner: process exited unexpectedly", "proc", eh.Name(), "status", exitStatus, "faultAction", action)
	return parseProcFaultAction(action)
}

// GetWatchdogAction resolves the configured watchdogAction for h, falling
// back to NOT_FOUND when none is configured (the core then applies the
// app-level default).
func (r *Runner) GetWatchdogAction(h supervisor.ProcessHandle) supervisor.WatchdogAction {
	eh, ok := h.(*execHandle)
	if !ok {
		return supervisor.WdogError
	}
	txn := r.Tree.OpenTxn()
	if !txn.Exists(eh.cfgPath + "/watchdogAction") {
		return supervisor.WdogNotFound
	}
	action := txn.GetString(eh.cfgPath+"/watchdogAction", "")
	return parseWatchdogHandlerAction(action)
}

// Kill sends sig directly to h's process group, bypassing the cgroup-wide
// kill engine; used by the watchdog's single-process STOP/RESTART path.
func (r *Runner) Kill(h supervisor.ProcessHandle, sig syscall.Signal) error {
	eh, ok := h.(*execHandle)
	if !ok {
		return fmt.Errorf("runner: kill: not an execHandle")
	}
	pid := eh.PID()
	if pid == 0 {
		return nil
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		return fmt.Errorf("runner: kill %s (pid %d): %w", eh.Name(), pid, err)
	}
	return nil
}

func parseProcFaultAction(s string) supervisor.ProcFaultAction {
	switch s {
	case "ignore":
		return supervisor.ProcIgnore
	case "restart":
		return supervisor.ProcRestart
	case "restartApp":
		return supervisor.ProcRestartApp
	case "stopApp":
		return supervisor.ProcStopApp
	case "reboot":
		return supervisor.ProcReboot
	default:
		return supervisor.ProcRestart
	}
}

// parseWatchdogHandlerAction mirrors supervisor.ParseWatchdogAction for the
// per-process config string; kept distinct because a process-level
// watchdogAction of "" is NOT_FOUND, not "ignore" (the app-level default
// applies instead), where the core's own parser defaults unknown strings
// to WdogError.
func parseWatchdogHandlerAction(s string) supervisor.WatchdogAction {
	if s == "" {
		return supervisor.WdogNotFound
	}
	return supervisor.ParseWatchdogAction(s)
}

var _ supervisor.ProcessRunner = (*Runner)(nil)
