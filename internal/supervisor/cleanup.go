package supervisor

// CleanupApp is idempotent post-stop cleanup: revoke every MAC rule
// originating from the app's label, remove the sandbox if sandboxed, and
// release resource limits. Safe to call on an already-stopped app, and
// called exactly once per RUNNING -> STOPPED transition, before that
// transition becomes observable via GetState.
func (s *Supervisor) CleanupApp(a *App) {
	label := a.Label()
	if err := s.mac.RevokeAll(label); err != nil {
		s.logger.Warn("supervisor: revoke MAC rules failed", "app", a.name, "error", err)
	}

	if a.GetIsSandboxed() {
		if err := s.sandbox.Remove(a.name); err != nil {
			s.logger.Warn("supervisor: sandbox removal failed", "app", a.name, "error", err)
		}
	}

	if err := s.reslimit.Release(a.name); err != nil {
		s.logger.Warn("supervisor: resource limit release failed", "app", a.name, "error", err)
	}

	s.logger.Info("app cleaned up", "app", a.name)
}
