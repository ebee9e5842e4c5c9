// Package mac implements an in-memory mandatory-access-control rule
// table: the subject/object/permission triples the supervisor core
// installs and revokes around an app's lifecycle.
//
// There is no SMACK-equivalent library anywhere in the example corpus —
// the closest neighbors (ACL packages) model IP-based access control, not
// label-based MAC — so this package is built on the standard library
// alone. See DESIGN.md for the corresponding justification entry.
package mac

import (
	"fmt"
	"sync"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// Rule is one subject -> object : permission grant.
type Rule struct {
	Subject    string
	Object     string
	Permission string
}

// Table is the production supervisor.MACInstaller: an in-memory set of
// installed rules, keyed so RevokeAll can remove every rule whose subject
// matches a given label in one pass.
type Table struct {
	mu    sync.Mutex
	rules map[string][]Rule // keyed by subject label
}

// NewTable returns an empty rule table.
func NewTable() *Table {
	return &Table{rules: make(map[string][]Rule)}
}

func (t *Table) install(subject, object, permission string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[subject] = append(t.rules[subject], Rule{Subject: subject, Object: object, Permission: permission})
}

// InstallSelfAccessRules grants label the given permission against
// itself; label already encodes the subset (e.g. "app.name:rw").
func (t *Table) InstallSelfAccessRules(label string) error {
	t.install(label, label, "self")
	return nil
}

// InstallFrameworkBinding installs the bidirectional framework <-> app
// rule pair: framework -> app : w, app -> framework : rw.
func (t *Table) InstallFrameworkBinding(label string) error {
	t.install(supervisor.FrameworkLabel, label, "w")
	t.install(label, supervisor.FrameworkLabel, "rw")
	return nil
}

// InstallBindingRule installs the bidirectional peer binding: self -> peer
// : rw and peer -> self : rw.
func (t *Table) InstallBindingRule(selfLabel, peerLabel string) error {
	t.install(selfLabel, peerLabel, "rw")
	t.install(peerLabel, selfLabel, "rw")
	return nil
}

// RevokeAll removes every rule this package installed with label as the
// subject (self-access and framework/peer bindings originating from it).
// It does not attempt to remove the mirrored rule installed against the
// peer's own subject key, matching the "revoke all rules originating from
// the app's subject label" wording in §4.7 — the peer's own CleanupApp is
// responsible for its half.
func (t *Table) RevokeAll(label string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rules, label)
	return nil
}

// Rules returns a snapshot of every rule currently installed, for
// diagnostics and tests.
func (t *Table) Rules() []Rule {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Rule
	for _, rs := range t.rules {
		out = append(out, rs...)
	}
	return out
}

func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s : %s", r.Subject, r.Object, r.Permission)
}

var _ supervisor.MACInstaller = (*Table)(nil)
