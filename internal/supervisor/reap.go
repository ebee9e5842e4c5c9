package supervisor

// AppForPID scans every live app's process slots for one whose handle
// reports pid, returning it if found. Used by the daemon's reap loop to
// resolve which app a freshly-reaped child belongs to before calling
// SigChild.
func (s *Supervisor) AppForPID(pid int) (*App, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.apps {
		a.mu.Lock()
		found := a.slotByPID(pid) != nil
		a.mu.Unlock()
		if found {
			return a, true
		}
	}
	return nil, false
}

// DispatchChildExit resolves the app owning pid and routes its exit
// through SigChild, returning FaultIgnore if no live app currently has a
// process slot for that pid (e.g. it was already reaped, or belongs to a
// process the supervisor never launched).
func (s *Supervisor) DispatchChildExit(pid, exitStatus int) FaultAction {
	a, ok := s.AppForPID(pid)
	if !ok {
		return FaultIgnore
	}
	return s.SigChild(a, pid, exitStatus)
}
