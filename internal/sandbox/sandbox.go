// Package sandbox builds and tears down the isolated filesystem view a
// sandboxed app's processes run inside: a private directory tree under
// the app's install path, owned by the app's dedicated uid/gid.
package sandbox

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oxideapps/appsupervisor/internal/supervisor"
)

// standardDirs are created inside every sandbox root, mirroring the
// subtree a Legato app chroot expects to find.
var standardDirs = []string{"bin", "lib", "tmp", "proc", "dev"}

// Builder is the production supervisor.Sandbox.
type Builder struct {
	// InstallDir is the parent directory apps are installed under
	// (APPS_INSTALL_DIR).
	InstallDir string
	Logger     *slog.Logger
}

// NewBuilder returns a Builder rooted at installDir.
func NewBuilder(installDir string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{InstallDir: installDir, Logger: logger}
}

func (b *Builder) rootFor(appName string) string {
	return filepath.Join(b.InstallDir, appName, "sandbox")
}

// Create builds the sandbox root for appName and chowns it (and every
// standard subdirectory) to uid:gid. Chown failures are ignored, not
// returned: this mirrors the ambient setup package's chownRecursive,
// which fails silently when not running as root since sandbox ownership
// does not matter in that case.
func (b *Builder) Create(appName string, uid, gid uint32) (string, error) {
	root := b.rootFor(appName)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return "", fmt.Errorf("sandbox: create root %s: %w", root, err)
	}

	for _, d := range standardDirs {
		path := filepath.Join(root, d)
		if err := os.MkdirAll(path, 0o750); err != nil {
			return "", fmt.Errorf("sandbox: create %s: %w", path, err)
		}
	}

	b.chownRecursive(root, int(uid), int(gid))
	return root, nil
}

// Remove deletes the sandbox root entirely.
func (b *Builder) Remove(appName string) error {
	root := b.rootFor(appName)
	if err := os.RemoveAll(root); err != nil {
		return fmt.Errorf("sandbox: remove %s: %w", root, err)
	}
	return nil
}

func (b *Builder) chownRecursive(path string, uid, gid int) {
	err := filepath.Walk(path, func(name string, info os.FileInfo, err error) error {
		if err == nil {
			_ = os.Chown(name, uid, gid)
		}
		return nil
	})
	if err != nil {
		b.Logger.Warn("sandbox: chown walk failed", "path", path, "error", err)
	}
}

var _ supervisor.Sandbox = (*Builder)(nil)
