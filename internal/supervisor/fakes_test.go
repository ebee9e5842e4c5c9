package supervisor

import (
	"context"
	"sync"
	"syscall"
	"time"
)

func testContext() context.Context { return context.Background() }

// fakeHandle is a minimal ProcessHandle used by the package's own tests.
type fakeHandle struct {
	mu        sync.Mutex
	name      string
	pid       int
	state     ProcState
	faultTime time.Time
}

func (h *fakeHandle) Name() string { return h.name }
func (h *fakeHandle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}
func (h *fakeHandle) State() ProcState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}
func (h *fakeHandle) FaultTime() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.faultTime
}

// fakeRunner is a ProcessRunner whose per-call behavior tests configure
// directly by poking the returned *fakeHandle, or by setting
// sigChildAction / watchdogAction.
type fakeRunner struct {
	mu       sync.Mutex
	nextPID  int
	handles  []*fakeHandle
	stopping map[*fakeHandle]bool

	sigChildAction ProcFaultAction
	watchdogAction WatchdogAction

	startCalls int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{stopping: make(map[*fakeHandle]bool)}
}

func (r *fakeRunner) Create(appName, procName, cfgPath string) (ProcessHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPID++
	h := &fakeHandle{name: procName, pid: r.nextPID, state: ProcStopped}
	r.handles = append(r.handles, h)
	return h, nil
}

func (r *fakeRunner) Start(h ProcessHandle, rootDir string) error {
	r.mu.Lock()
	r.startCalls++
	r.mu.Unlock()
	fh := h.(*fakeHandle)
	fh.mu.Lock()
	fh.state = ProcRunning
	fh.mu.Unlock()
	return nil
}

func (r *fakeRunner) StartInSandbox(h ProcessHandle, sandboxRoot string, uid, gid uint32, supGids []uint32) error {
	return r.Start(h, sandboxRoot)
}

func (r *fakeRunner) Delete(h ProcessHandle) error { return nil }

func (r *fakeRunner) Stopping(h ProcessHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopping[h.(*fakeHandle)] = true
}

func (r *fakeRunner) SigChildHandler(h ProcessHandle, exitStatus int) ProcFaultAction {
	fh := h.(*fakeHandle)
	fh.mu.Lock()
	fh.state = ProcStopped
	fh.faultTime = time.Now()
	fh.mu.Unlock()
	r.mu.Lock()
	action := r.sigChildAction
	r.mu.Unlock()
	return action
}

func (r *fakeRunner) GetWatchdogAction(h ProcessHandle) WatchdogAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watchdogAction
}

func (r *fakeRunner) Kill(h ProcessHandle, sig syscall.Signal) error {
	fh := h.(*fakeHandle)
	fh.mu.Lock()
	fh.state = ProcStopped
	fh.mu.Unlock()
	return nil
}

// fakeSandbox, fakeReslimit, fakeMAC, fakeFreezer, fakeUsers, fakeTimerSvc
// are no-op collaborators recording calls for assertions where useful.

type fakeSandbox struct {
	created []string
	removed []string
}

func (s *fakeSandbox) Create(appName string, uid, gid uint32) (string, error) {
	s.created = append(s.created, appName)
	return "/opt/legato/apps/" + appName + "/sandbox", nil
}
func (s *fakeSandbox) Remove(appName string) error {
	s.removed = append(s.removed, appName)
	return nil
}

type fakeReslimit struct{ applied, released []string }

func (r *fakeReslimit) Apply(appName, configPath string) error {
	r.applied = append(r.applied, appName)
	return nil
}
func (r *fakeReslimit) Release(appName string) error {
	r.released = append(r.released, appName)
	return nil
}

type fakeMAC struct {
	selfRules  []string
	frameworks []string
	bindings   [][2]string
	revoked    []string
}

func (m *fakeMAC) InstallSelfAccessRules(label string) error {
	m.selfRules = append(m.selfRules, label)
	return nil
}
func (m *fakeMAC) InstallFrameworkBinding(label string) error {
	m.frameworks = append(m.frameworks, label)
	return nil
}
func (m *fakeMAC) InstallBindingRule(selfLabel, peerLabel string) error {
	m.bindings = append(m.bindings, [2]string{selfLabel, peerLabel})
	return nil
}
func (m *fakeMAC) RevokeAll(label string) error {
	m.revoked = append(m.revoked, label)
	return nil
}

type fakeFreezer struct {
	mu        sync.Mutex
	signalled int
	state     FreezeState

	// empty is the cgroup-membership answer IsEmpty reports. It defaults
	// to true (nothing left in the cgroup) so existing tests that only
	// care about the in-memory process count are unaffected; tests of
	// the cgroup-ground-truth gating itself set it explicitly.
	empty    bool
	emptyErr error
}

func newFakeFreezer(signalled int) *fakeFreezer {
	return &fakeFreezer{signalled: signalled, state: FreezeFrozen, empty: true}
}

func (f *fakeFreezer) Freeze(appName string) error { return nil }
func (f *fakeFreezer) Thaw(appName string) error   { return nil }
func (f *fakeFreezer) State(appName string) (FreezeState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}
func (f *fakeFreezer) SendSignal(appName string, sig syscall.Signal) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signalled, nil
}
func (f *fakeFreezer) IsEmpty(appName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.empty, f.emptyErr
}

func (f *fakeFreezer) setEmpty(empty bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.empty = empty
}

type fakeUsers struct{}

func (fakeUsers) Provision(appName string, groups []string) (uint32, uint32, []uint32, error) {
	gids := make([]uint32, len(groups))
	for i := range groups {
		gids[i] = uint32(100 + i)
	}
	return 1000, 1000, gids, nil
}
func (fakeUsers) Deprovision(appName string) error { return nil }

type fakeTimer struct{}

func (fakeTimer) Stop() bool                 { return true }
func (fakeTimer) Reset(d time.Duration) bool { return true }

type fakeTimerSvc struct {
	mu    sync.Mutex
	armed []string
}

func (s *fakeTimerSvc) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = append(s.armed, d.String())
	return fakeTimer{}
}

// fakeTxn is a minimal in-memory Txn built from a flat map, used to drive
// Create through AppLifecycle without a real configuration tree.
type fakeTxn struct {
	values   map[string]string
	bools    map[string]bool
	children map[string][]string
}

func newFakeTxn() *fakeTxn {
	return &fakeTxn{
		values:   make(map[string]string),
		bools:    make(map[string]bool),
		children: make(map[string][]string),
	}
}

func (t *fakeTxn) GetBool(path string, def bool) bool {
	if v, ok := t.bools[path]; ok {
		return v
	}
	return def
}
func (t *fakeTxn) GetString(path string, def string) string {
	if v, ok := t.values[path]; ok {
		return v
	}
	return def
}
func (t *fakeTxn) Exists(path string) bool {
	_, ok := t.values[path]
	if ok {
		return true
	}
	_, ok = t.children[path]
	return ok
}
func (t *fakeTxn) Children(path string) []string {
	return t.children[path]
}

func mustApp(t interface{ Fatalf(string, ...any) }, s *Supervisor, txn *fakeTxn, configPath string) *App {
	a, err := s.Create(configPath, txn)
	if err != nil {
		t.Fatalf("Create(%s): %v", configPath, err)
	}
	return a
}

func newTestSupervisor(runner *fakeRunner, freezer *fakeFreezer) (*Supervisor, *fakeSandbox, *fakeMAC, *fakeReslimit) {
	sandbox := &fakeSandbox{}
	mac := &fakeMAC{}
	reslimit := &fakeReslimit{}
	s := New(testContext(), Deps{
		Runner:          runner,
		Sandbox:         sandbox,
		Reslimit:        reslimit,
		MAC:             mac,
		Freezer:         freezer,
		Users:           fakeUsers{},
		Timers:          &fakeTimerSvc{},
		RebootFaultPath: "",
	})
	return s, sandbox, mac, reslimit
}
