package supervisor

import "time"

// ReachedLimit is the fault-rate gate consulted by the fault router after
// the process runner has already decided on a process-level fault action.
// It is a pure function of the action and the two fault timestamps so it
// can be tested without any app, runner, or process state.
//
// now is the runner's freshly updated fault_time for the process, read
// after SigChildHandler returns; prev is the value captured immediately
// before delegating to the runner. Comparing the fresh "now" against the
// pre-delegation "prev" (rather than, say, two reads taken before
// delegation) is load-bearing: see DESIGN.md, Open Question 2.
func ReachedLimit(action ProcFaultAction, now, prev time.Time, rebootRecordMatches func() bool) bool {
	switch action {
	case ProcRestart:
		return !prev.IsZero() && now.Sub(prev) <= FaultLimitRestartInterval
	case ProcRestartApp:
		return !prev.IsZero() && now.Sub(prev) <= FaultLimitRestartAppInterval
	case ProcReboot:
		if rebootRecordMatches == nil {
			return false
		}
		return rebootRecordMatches()
	default:
		return false
	}
}
