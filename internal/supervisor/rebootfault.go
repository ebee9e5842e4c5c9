package supervisor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofrs/flock"
)

// RebootFaultRecord is the single persisted artefact the supervisor core
// shares across process restarts: the name of the app/process pair whose
// fault dictated a reboot, written just before the fault dispatcher acts on
// it. Its presence after a reboot lets FaultLimiter recognize a repeat
// REBOOT fault from the same process and escalate instead of looping.
type RebootFaultRecord struct {
	path string
	lock *flock.Flock
}

// NewRebootFaultRecord opens the record at path (default
// DefaultRebootFaultRecordPath), with an advisory lock file alongside it.
// Write holds that lock while it writes; MatchesFor, Exists and Clear do
// not take it.
func NewRebootFaultRecord(path string) *RebootFaultRecord {
	if path == "" {
		path = DefaultRebootFaultRecordPath
	}
	return &RebootFaultRecord{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Write persists "{app}/{proc}" with a trailing NUL, mode 0700, per §6.
// I/O errors are returned wrapped, never panicked: per §7 this is a
// persistent-record I/O error, logged by the caller, with fault-limit
// enforcement for REBOOT left degraded rather than the supervisor failing.
func (r *RebootFaultRecord) Write(app, proc string) error {
	if err := r.lock.Lock(); err != nil {
		return fmt.Errorf("supervisor: lock reboot fault record: %w", err)
	}
	defer r.lock.Unlock()

	content := fmt.Sprintf("%s/%s\x00", app, proc)
	if err := os.WriteFile(r.path, []byte(content), 0o700); err != nil {
		return fmt.Errorf("supervisor: write reboot fault record: %w", err)
	}
	return nil
}

// MatchesFor reports whether the persisted record exists and equals
// "{app}/{proc}". Absence of the file is not an error; it simply means no
// recent reboot fault is on record. The comparison ignores trailing NULs
// on either side, so a record truncated mid-write before its NUL (e.g. by
// an EINTR'd write) still matches on its content; a NUL followed by other
// bytes is compared like any other byte.
func (r *RebootFaultRecord) MatchesFor(app, proc string) bool {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return false
	}
	want := fmt.Sprintf("%s/%s", app, proc)
	got := strings.TrimRight(string(data), "\x00")
	return got == strings.TrimRight(want, "\x00")
}

// Exists reports whether a reboot fault record is currently on disk.
func (r *RebootFaultRecord) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// Clear removes the record file. ENOENT is not an error, matching
// Bootstrap's quiescence-timer handler contract in §4.1.
func (r *RebootFaultRecord) Clear() error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("supervisor: clear reboot fault record: %w", err)
	}
	return nil
}
