package supervisor

import (
	"fmt"
	"strings"
)

func childPath(parent, child string) string {
	parent = strings.TrimRight(parent, "/")
	return parent + "/" + child
}

// Create builds a new App from the subtree rooted at configPath, per
// AppLifecycle.Create in the component design. txn is a read transaction
// already opened on the configuration store; the supervisor core never
// parses configuration itself, only reads through this interface.
//
// Any failure after the app's name and sandbox flag have been determined
// releases whatever partial state (process handles, sandbox, provisioned
// user) was built so far and returns a wrapped error.
func (s *Supervisor) Create(configPath string, txn Txn) (*App, error) {
	name := appName(configPath)

	s.mu.Lock()
	if _, exists := s.apps[name]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("supervisor: create %s: %w", name, ErrAppAlreadyExists)
	}
	s.mu.Unlock()

	a := &App{
		name:       name,
		configPath: configPath,
		sandboxed:  txn.GetBool(childPath(configPath, "sandboxed"), true),
		label:      name,
		state:      AppStopped,
	}

	if err := s.provisionApp(a, configPath, txn); err != nil {
		return nil, fmt.Errorf("supervisor: create %s: %w", name, err)
	}

	a.installPath = AppsInstallDir + "/" + name

	if a.sandboxed {
		root, err := s.sandbox.Create(name, a.uid, a.gid)
		if err != nil {
			s.releasePartial(a)
			return nil, fmt.Errorf("supervisor: create %s: sandbox: %w", name, err)
		}
		a.sandboxPath = root
	}

	a.watchdogAction = txn.GetString(childPath(configPath, "watchdogAction"), "")

	for _, bindingName := range txn.Children(childPath(configPath, "bindings")) {
		peerPath := childPath(childPath(childPath(configPath, "bindings"), bindingName), "app")
		if peer := txn.GetString(peerPath, ""); peer != "" {
			a.bindings = append(a.bindings, peer)
		}
	}

	procNames := txn.Children(childPath(configPath, "procs"))
	for _, procName := range procNames {
		procCfgPath := strings.TrimRight(childPath(childPath(configPath, "procs"), procName), "/")
		handle, err := s.runner.Create(name, procName, procCfgPath)
		if err != nil {
			s.releasePartial(a)
			return nil, fmt.Errorf("supervisor: create %s: proc %s: %w", name, procName, err)
		}
		a.processes = append(a.processes, &ProcessSlot{
			Name:       procName,
			ConfigPath: procCfgPath,
			Handle:     handle,
		})
	}

	s.mu.Lock()
	s.apps[name] = a
	s.mu.Unlock()

	s.logger.Info("app created", "app", name, "sandboxed", a.sandboxed, "procs", len(a.processes))
	return a, nil
}

func (s *Supervisor) provisionApp(a *App, configPath string, txn Txn) error {
	if !a.sandboxed {
		a.uid, a.gid, a.supplementaryGids = 0, 0, nil
		return nil
	}
	groups := txn.Children(childPath(configPath, "groups"))
	uid, gid, supGids, err := s.users.Provision(a.name, groups)
	if err != nil {
		return fmt.Errorf("provision user/groups: %w", err)
	}
	a.uid, a.gid, a.supplementaryGids = uid, gid, supGids
	return nil
}

// releasePartial tears down whatever was built during a failed Create,
// mirroring Delete's drain but tolerant of a not-fully-populated app.
func (s *Supervisor) releasePartial(a *App) {
	for _, slot := range a.processes {
		if slot.Handle != nil {
			_ = s.runner.Delete(slot.Handle)
		}
	}
	if a.sandboxed && a.sandboxPath != "" {
		_ = s.sandbox.Remove(a.name)
	}
	if a.sandboxed {
		_ = s.users.Deprovision(a.name)
	}
}

// Delete removes an app. Precondition: the app must be STOPPED; violating
// this is a programmer error and fatal, not a recoverable condition.
func (s *Supervisor) Delete(a *App) error {
	if a.GetState() != AppStopped {
		fatalf("supervisor: delete called on running app %s", a.GetName())
	}

	a.mu.Lock()
	for _, slot := range a.processes {
		if slot.Handle != nil {
			_ = s.runner.Delete(slot.Handle)
		}
	}
	a.processes = nil
	a.killTimer = nil
	name := a.name
	a.mu.Unlock()

	s.mu.Lock()
	delete(s.apps, name)
	s.mu.Unlock()

	s.logger.Info("app deleted", "app", name)
	return nil
}

// Start launches every process slot in config order. Precondition: the
// app is not already RUNNING.
func (s *Supervisor) Start(a *App) error {
	a.mu.Lock()
	if a.state == AppRunning {
		a.mu.Unlock()
		return fmt.Errorf("supervisor: start %s: %w", a.name, ErrAppRunning)
	}
	a.mu.Unlock()

	if a.sandboxed {
		root, err := s.sandbox.Create(a.name, a.uid, a.gid)
		if err != nil {
			return s.failStart(a, fmt.Errorf("sandbox: %w", err))
		}
		a.mu.Lock()
		a.sandboxPath = root
		a.mu.Unlock()
	}

	if err := s.reslimit.Apply(a.name, a.GetConfigPath()); err != nil {
		return s.failStart(a, fmt.Errorf("resource limits: %w", err))
	}

	if err := s.installDefaultMACRules(a); err != nil {
		return s.failStart(a, fmt.Errorf("mac rules: %w", err))
	}

	a.mu.Lock()
	slots := append([]*ProcessSlot(nil), a.processes...)
	sandboxed := a.sandboxed
	uid, gid, supGids := a.uid, a.gid, a.supplementaryGids
	installPath := a.installPath
	sandboxPath := a.sandboxPath
	a.mu.Unlock()

	for _, slot := range slots {
		var err error
		if sandboxed {
			err = s.runner.StartInSandbox(slot.Handle, sandboxPath, uid, gid, supGids)
		} else {
			err = s.runner.Start(slot.Handle, installPath)
		}
		if err != nil {
			s.stopNow(a)
			return fmt.Errorf("supervisor: start %s: proc %s: %w", a.name, slot.Name, err)
		}
	}

	a.mu.Lock()
	a.state = AppRunning
	a.mu.Unlock()

	s.logger.Info("app started", "app", a.name)
	return nil
}

func (s *Supervisor) failStart(a *App, err error) error {
	s.stopNow(a)
	return fmt.Errorf("supervisor: start %s: %w", a.name, err)
}

// Stop is asynchronous and returns immediately, per §4.2. A stop request
// against an already-STOPPED app is logged as a no-op, not an error
// returned to the caller.
func (s *Supervisor) Stop(a *App) {
	a.mu.Lock()
	if a.state == AppStopped {
		a.mu.Unlock()
		s.logger.Warn("supervisor: stop requested on already-stopped app", "app", a.name)
		return
	}
	a.mu.Unlock()

	s.stopNow(a)
}

// RestartApp is the FaultRestartApp continuation: it stops every process
// in a and, once the stop sequence completes, starts the app again. Stop
// is asynchronous (the app only reaches STOPPED once a later SIGCHLD
// observes no running process left, via afterDecision), so a synchronous
// Stop-then-Start pairing would hit Start's "already running" guard on
// essentially every call; pendingRestart defers the Start until
// afterDecision actually flips the app to STOPPED.
func (s *Supervisor) RestartApp(a *App) {
	a.mu.Lock()
	alreadyStopped := a.state == AppStopped
	if !alreadyStopped {
		a.pendingRestart = true
	}
	a.mu.Unlock()

	if alreadyStopped {
		if err := s.Start(a); err != nil {
			s.logger.Error("supervisor: restart failed", "app", a.name, "error", err)
		}
		return
	}

	s.stopNow(a)
}

// stopNow runs the kill-and-cleanup sequence unconditionally. Start's
// failure path uses this directly (rather than Stop) because a failed
// Start can have partially allocated sandbox/resource-limit/MAC state
// while the app's externally-visible state is still STOPPED.
func (s *Supervisor) stopNow(a *App) {
	result := s.KillAppProcs(a, KillSoft)
	if result == killNotFound {
		s.CleanupApp(a)
		a.mu.Lock()
		a.state = AppStopped
		restart := a.pendingRestart
		a.pendingRestart = false
		a.mu.Unlock()
		s.logger.Info("app stopped (no processes were running)", "app", a.name)

		if restart {
			if err := s.Start(a); err != nil {
				s.logger.Error("supervisor: restart after fault failed", "app", a.name, "error", err)
			}
		}
		return
	}

	a.mu.Lock()
	if a.killTimer == nil {
		app := a
		a.killTimer = s.timers.AfterFunc(SoftKillTimeout, func() {
			s.HardKillApp(app)
		})
	} else {
		a.killTimer.Reset(SoftKillTimeout)
	}
	a.mu.Unlock()
}
