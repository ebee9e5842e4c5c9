package supervisor

import "syscall"

// SigChild is the FaultRouter's SIGCHLD path (§4.4.1). It is called once
// per reaped child with the app it belongs to, the child's pid, and its
// raw exit status, and returns the app-level action the caller (the fault
// dispatcher, above this core) must enact.
func (s *Supervisor) SigChild(a *App, pid int, exitStatus int) FaultAction {
	slot := a.slotByPID(pid)
	if slot == nil {
		return FaultIgnore
	}

	prevFaultTime := slot.Handle.FaultTime()
	procAction := s.runner.SigChildHandler(slot.Handle, exitStatus)
	nowFaultTime := slot.Handle.FaultTime()

	if ReachedLimit(procAction, nowFaultTime, prevFaultTime, func() bool {
		return s.rebootRec.MatchesFor(a.name, slot.Name)
	}) {
		s.logger.Error("supervisor: fault rate limit exceeded, stopping app", "app", a.name, "proc", slot.Name, "action", procAction)
		return s.afterDecision(a, FaultStopApp)
	}

	var out FaultAction
	switch procAction {
	case ProcNoFault:
		out = FaultIgnore
		if handler := slot.consumeStopHandler(); handler != nil {
			if err := handler(a, slot); err != nil {
				s.logger.Error("supervisor: stop handler failed", "app", a.name, "proc", slot.Name, "error", err)
				out = FaultStopApp
			}
		}
	case ProcIgnore:
		out = FaultIgnore
	case ProcRestart:
		if err := s.StartProc(a, slot); err != nil {
			s.logger.Error("supervisor: restart failed", "app", a.name, "proc", slot.Name, "error", err)
			out = FaultStopApp
		} else {
			out = FaultIgnore
		}
	case ProcRestartApp:
		out = FaultRestartApp
	case ProcStopApp:
		out = FaultStopApp
	case ProcReboot:
		if err := s.rebootRec.Write(a.name, slot.Name); err != nil {
			s.logger.Error("supervisor: failed to persist reboot fault record", "app", a.name, "proc", slot.Name, "error", err)
		}
		out = FaultReboot
	default:
		fatalf("supervisor: unknown process fault action %v for %s/%s", procAction, a.name, slot.Name)
	}

	return s.afterDecision(a, out)
}

// afterDecision implements step 6: once the app has no running process
// left, the kill timer is disarmed, cleanup runs, and the app transitions
// to STOPPED — before the decision is returned to the caller.
//
// "No running process" is confirmed two ways: the in-memory
// ProcessSlot/handle state (HasRunningProc) and the freezer's cgroup
// membership check (cgroupIsEmpty), which is kernel ground truth. A
// tracked handle can under-report — a double-forked grandchild is still a
// member of the app's cgroup with no ProcessHandle tracking it — so both
// must agree before the app is declared STOPPED.
func (s *Supervisor) afterDecision(a *App, action FaultAction) FaultAction {
	if !a.HasRunningProc() && s.cgroupIsEmpty(a) {
		a.mu.Lock()
		if a.killTimer != nil {
			a.killTimer.Stop()
		}
		alreadyStopped := a.state == AppStopped
		a.mu.Unlock()

		if !alreadyStopped {
			s.CleanupApp(a)
			a.mu.Lock()
			a.state = AppStopped
			restart := a.pendingRestart
			a.pendingRestart = false
			a.mu.Unlock()

			if restart {
				if err := s.Start(a); err != nil {
					s.logger.Error("supervisor: restart after fault failed", "app", a.name, "error", err)
				}
			}
		}
	}
	return action
}

// cgroupIsEmpty reports whether the freezer's cgroup for a currently holds
// no member tasks. A check failure trusts the in-memory process state
// rather than blocking the STOPPED transition indefinitely.
func (s *Supervisor) cgroupIsEmpty(a *App) bool {
	empty, err := s.freezer.IsEmpty(a.name)
	if err != nil {
		s.logger.Warn("supervisor: cgroup emptiness check failed, trusting tracked process state", "app", a.name, "error", err)
		return true
	}
	return empty
}

// StartProc re-launches a single process slot, used by the RESTART path
// and by watchdog-driven stop_handler continuations.
func (s *Supervisor) StartProc(a *App, slot *ProcessSlot) error {
	if a.GetIsSandboxed() {
		return s.runner.StartInSandbox(slot.Handle, a.GetSandboxPath(), a.GetUid(), a.GetGid(), a.supplementaryGidsSnapshot())
	}
	return s.runner.Start(slot.Handle, a.GetInstallDirPath())
}

func (a *App) supplementaryGidsSnapshot() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]uint32(nil), a.supplementaryGids...)
}

// consumeStopHandler returns and clears the slot's pending stop_handler,
// so it fires at most once per stop cycle.
func (p *ProcessSlot) consumeStopHandler() StopHandler {
	h := p.stopHandler
	p.stopHandler = nil
	return h
}

// WatchdogTimeout is the FaultRouter's watchdog path (§4.4.2).
func (s *Supervisor) WatchdogTimeout(a *App, pid int) WatchdogAction {
	slot := a.slotByPID(pid)
	if slot == nil {
		return WdogNotFound
	}

	procAction := s.runner.GetWatchdogAction(slot.Handle)
	if procAction == WdogNotFound || procAction == WdogError {
		if cfg := a.watchdogActionConfig(); cfg != "" {
			procAction = ParseWatchdogAction(cfg)
		}
	}

	switch procAction {
	case WdogNotFound:
		slot.stopHandler = s.startProcHandler
		s.killSingleProcess(a, slot)
		return WdogHandled
	case WdogIgnoreAction:
		return WdogHandled
	case WdogStop:
		s.killSingleProcess(a, slot)
		return WdogHandled
	case WdogRestart:
		slot.stopHandler = s.startProcHandler
		s.killSingleProcess(a, slot)
		return WdogHandled
	case WdogRestartApp:
		return WdogRestartApp
	case WdogStopApp:
		return WdogStopApp
	case WdogReboot:
		return WdogReboot
	case WdogError:
		s.logger.Error("supervisor: unparseable watchdog action", "app", a.name, "proc", slot.Name)
		return WdogHandled
	case WdogHandled:
		return WdogHandled
	default:
		fatalf("supervisor: unknown watchdog action %v for %s/%s", procAction, a.name, slot.Name)
		return WdogError
	}
}

// startProcHandler adapts StartProc to the StopHandler signature for use
// as a stop_handler continuation.
func (s *Supervisor) startProcHandler(a *App, slot *ProcessSlot) error {
	return s.StartProc(a, slot)
}

// killSingleProcess sends SIGKILL to a single process slot through the
// runner's Kill, bypassing the cgroup-wide kill engine: the target is one
// runaway process, not the whole app.
func (s *Supervisor) killSingleProcess(a *App, slot *ProcessSlot) {
	slot.stopping = true
	s.runner.Stopping(slot.Handle)
	if err := s.runner.Kill(slot.Handle, syscall.SIGKILL); err != nil {
		s.logger.Warn("supervisor: single-process kill failed", "app", a.name, "proc", slot.Name, "error", err)
	}
}

func (a *App) watchdogActionConfig() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.watchdogAction
}
