// Package userprovision resolves and creates the uid, primary gid, and
// supplementary gids a sandboxed app's processes run as, by shelling out
// to useradd/groupadd and then resolving the results the way the ambient
// code resolves user/group names to numeric credentials.
package userprovision

import (
	"fmt"
	"os/exec"
	"os/user"
	"strconv"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// MaxSupplementaryGroups bounds the supplementary group list; exceeding it
// at Create time is a configuration error (§7), not a fatal one.
const MaxSupplementaryGroups = 32

// Provisioner is the production supervisor.UserProvisioner, backed by the
// system's user/group database and the useradd/groupadd utilities.
type Provisioner struct {
	// UserPrefix namespaces created usernames so they cannot collide with
	// system accounts; the app name is appended to it.
	UserPrefix string
}

// NewProvisioner returns a Provisioner using the "legato-" username prefix.
func NewProvisioner() *Provisioner {
	return &Provisioner{UserPrefix: "legato-"}
}

func (p *Provisioner) userName(appName string) string {
	return p.UserPrefix + appName
}

// Provision resolves (creating if necessary) a dedicated uid and primary
// gid for appName, then creates and resolves one supplementary group per
// entry in groupNames.
//
// The returned supplementary-gid count is len() of an explicit slice of
// resolved gids, never a loop index or counter variable incremented
// alongside group creation — see DESIGN.md, Open Question 1, for why this
// matters: a counter that increments once per iteration regardless of
// whether that iteration's group creation actually succeeded is exactly
// the off-by-one the original C implementation was prone to.
func (p *Provisioner) Provision(appName string, groupNames []string) (uid, gid uint32, supplementaryGids []uint32, err error) {
	if len(groupNames) > MaxSupplementaryGroups {
		return 0, 0, nil, fmt.Errorf("userprovision: %d supplementary groups exceeds bound %d", len(groupNames), MaxSupplementaryGroups)
	}

	uname := p.userName(appName)
	u, lookupErr := user.Lookup(uname)
	if lookupErr != nil {
		if err := createUser(uname); err != nil {
			return 0, 0, nil, fmt.Errorf("userprovision: create user %s: %w", uname, err)
		}
		u, lookupErr = user.Lookup(uname)
		if lookupErr != nil {
			return 0, 0, nil, fmt.Errorf("userprovision: lookup user %s after creation: %w", uname, lookupErr)
		}
	}

	uid64, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("userprovision: parse uid %q: %w", u.Uid, err)
	}
	gid64, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("userprovision: parse gid %q: %w", u.Gid, err)
	}

	gids := make([]uint32, 0, len(groupNames))
	for _, groupName := range groupNames {
		resolvedGid, err := ensureGroup(uname, groupName)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("userprovision: group %s: %w", groupName, err)
		}
		gids = append(gids, resolvedGid)
	}

	return uint32(uid64), uint32(gid64), gids, nil
}

// Deprovision removes the dedicated user created for appName. It is best
// effort: the caller logs but does not fail CleanupApp on error.
func (p *Provisioner) Deprovision(appName string) error {
	uname := p.userName(appName)
	if _, err := user.Lookup(uname); err != nil {
		return nil
	}
	cmd := exec.Command("userdel", uname)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("userprovision: userdel %s: %w: %s", uname, err, out)
	}
	return nil
}

func createUser(uname string) error {
	cmd := exec.Command("useradd", "--system", "--no-create-home", "--shell", "/usr/sbin/nologin", uname)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("useradd %s: %w: %s", uname, err, out)
	}
	return nil
}

func ensureGroup(uname, groupName string) (uint32, error) {
	g, err := user.LookupGroup(groupName)
	if err != nil {
		cmd := exec.Command("groupadd", "--system", groupName)
		if out, err := cmd.CombinedOutput(); err != nil {
			return 0, fmt.Errorf("groupadd %s: %w: %s", groupName, err, out)
		}
		g, err = user.LookupGroup(groupName)
		if err != nil {
			return 0, fmt.Errorf("lookup group %s after creation: %w", groupName, err)
		}
	}

	cmd := exec.Command("usermod", "-a", "-G", groupName, uname)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("usermod -a -G %s %s: %w: %s", groupName, uname, err, out)
	}

	gid64, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse gid %q: %w", g.Gid, err)
	}
	return uint32(gid64), nil
}

var _ supervisor.UserProvisioner = (*Provisioner)(nil)
