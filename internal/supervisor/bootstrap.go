package supervisor

import (
	"context"
	"log/slog"
	"sync"
)

// Supervisor is the top-level registry of live apps plus the collaborator
// set the core delegates to. It owns the cross-app lock described in §5:
// the registry itself, and the shared RebootFaultRecord.
type Supervisor struct {
	mu   sync.RWMutex
	apps map[string]*App

	runner    ProcessRunner
	sandbox   Sandbox
	reslimit  ResourceLimiter
	mac       MACInstaller
	freezer   CgroupFreezer
	users     UserProvisioner
	timers    TimerService
	rebootRec *RebootFaultRecord

	logger *slog.Logger
	ctx    context.Context

	initOnce      sync.Once
	quiescenceTmr Timer
}

// Deps bundles the collaborators a Supervisor is constructed with. Every
// field is required except Logger, which defaults to slog.Default(), and
// RebootFaultPath, which defaults to DefaultRebootFaultRecordPath.
type Deps struct {
	Runner   ProcessRunner
	Sandbox  Sandbox
	Reslimit ResourceLimiter
	MAC      MACInstaller
	Freezer  CgroupFreezer
	Users    UserProvisioner
	Timers   TimerService
	Logger   *slog.Logger

	RebootFaultPath string
}

// New constructs a Supervisor bound to ctx; the supervisor's operations
// stop being meaningful once ctx is cancelled, following the ambient
// convention of a root context passed at construction.
func New(ctx context.Context, d Deps) *Supervisor {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		apps:      make(map[string]*App),
		runner:    d.Runner,
		sandbox:   d.Sandbox,
		reslimit:  d.Reslimit,
		mac:       d.MAC,
		freezer:   d.Freezer,
		users:     d.Users,
		timers:    d.Timers,
		rebootRec: NewRebootFaultRecord(d.RebootFaultPath),
		logger:    logger,
		ctx:       ctx,
	}
}

// Init is idempotent w.r.t. the process: calling it more than once on the
// same Supervisor has no further effect beyond the first call. It arms the
// one-shot reboot-fault quiescence timer (120 s); the timer's handler
// unlinks the RebootFaultRecord, treating ENOENT as success, so only
// faults that rebooted the device within the last quiescence window
// persist across boots. Failure to arm the timer is logged, not fatal.
func (s *Supervisor) Init() {
	s.initOnce.Do(func() {
		if s.timers == nil {
			s.logger.Warn("supervisor: no timer service configured, skipping reboot-fault quiescence timer")
			return
		}
		s.quiescenceTmr = s.timers.AfterFunc(RebootQuiescenceInterval, s.onQuiescence)
		s.logger.Info("supervisor: initialized", "quiescence_interval", RebootQuiescenceInterval)
	})
}

func (s *Supervisor) onQuiescence() {
	if err := s.rebootRec.Clear(); err != nil {
		s.logger.Error("supervisor: quiescence timer failed to clear reboot fault record", "error", err)
		return
	}
	s.logger.Debug("supervisor: reboot-fault quiescence elapsed, record cleared")
}

func (s *Supervisor) getApp(name string) (*App, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.apps[name]
	return a, ok
}

// Lookup returns the named app, or ErrAppNotFound.
func (s *Supervisor) Lookup(name string) (*App, error) {
	a, ok := s.getApp(name)
	if !ok {
		return nil, ErrAppNotFound
	}
	return a, nil
}
