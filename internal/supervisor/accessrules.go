package supervisor

import "fmt"

// accessSubsets are the seven non-empty subsets of {r, w, x}, unrolled in
// bitmask order 1-7 (x=1, w=2, r=4) so rule installation is deterministic
// and matches the fixed enumeration order the original access-rule
// synthesizer uses.
var accessSubsets = []string{"x", "w", "wx", "r", "rx", "rw", "rwx"}

// installDefaultMACRules runs the AccessRuleSynthesizer: one rule per
// non-empty {r,w,x} subset granting the app's own label that permission
// against itself, a framework binding, and a rule pair per declared peer
// binding.
func (s *Supervisor) installDefaultMACRules(a *App) error {
	label := a.Label()

	for _, subset := range accessSubsets {
		if err := s.mac.InstallSelfAccessRules(subsetLabel(label, subset)); err != nil {
			return fmt.Errorf("install self access rule %s: %w", subset, err)
		}
	}

	if err := s.mac.InstallFrameworkBinding(label); err != nil {
		return fmt.Errorf("install framework binding: %w", err)
	}

	for _, peer := range a.bindingPeers() {
		if err := s.mac.InstallBindingRule(label, peer); err != nil {
			return fmt.Errorf("install binding rule for peer %s: %w", peer, err)
		}
	}
	return nil
}

func subsetLabel(appLabel, subset string) string {
	return appLabel + ":" + subset
}

// bindingPeers is populated from the app's `bindings/*/app` config subtree
// at Create time; stored on App so Start does not need a Txn.
func (a *App) bindingPeers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.bindings...)
}
