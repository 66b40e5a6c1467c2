// Package pkgmgr abstracts the host's native package manager behind a
// fixed capability set: upgrade everything, upgrade a subset, hold (pin)
// packages, and list what is installed. Exactly one variant is selected at
// startup by Detect; every command issued comes from the closed per-variant
// allow-list in this package, never from remote input.
package pkgmgr

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/patchbay-ops/agent/internal/logging"
)

var log = logging.L("pkgmgr")

// Variant identifies the package-manager family present on the host.
type Variant int

const (
	VariantUnknown Variant = iota
	Debian
	RedHat
	FreeBSD
)

func (v Variant) String() string {
	switch v {
	case Debian:
		return "debian"
	case RedHat:
		return "redhat"
	case FreeBSD:
		return "freebsd"
	default:
		return "unknown"
	}
}

// Package is an installed package as reported by the native query tool.
type Package struct {
	Name    string
	Version string
}

// Manager is the uniform capability set over the detected variant.
// All operations block for the duration of the underlying command; no
// timeout is enforced beyond the caller's context.
type Manager interface {
	Variant() Variant
	// UpgradeAll runs the variant's non-interactive full upgrade.
	UpgradeAll(ctx context.Context) error
	// UpgradeSubset upgrades only the named packages.
	UpgradeSubset(ctx context.Context, names []string) error
	// Hold pins the named packages so subsequent upgrades skip them.
	// An empty name list is a no-op.
	Hold(ctx context.Context, names []string) error
	// ListInstalled returns the installed package inventory.
	ListInstalled(ctx context.Context) ([]Package, error)
}

// Runner executes a command and returns its combined output. Production
// uses exec; tests substitute a fake to observe the exact command lines.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec with combined output capture.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// lookPath is a seam for the dnf/yum preference probe.
var lookPath = exec.LookPath

// NewManager returns the Manager for a detected variant.
func NewManager(v Variant, r Runner) (Manager, error) {
	if r == nil {
		r = ExecRunner{}
	}
	switch v {
	case Debian:
		return &debianManager{runner: r}, nil
	case RedHat:
		return &redhatManager{runner: r, tool: redhatTool()}, nil
	case FreeBSD:
		return &freebsdManager{runner: r}, nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// exitCode extracts the process exit status from a Runner error, or -1
// when the command never ran.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// parseTabSeparated parses "name\tversion" lines as emitted by dpkg-query,
// rpm, and pkg query.
func parseTabSeparated(output []byte) []Package {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	packages := []Package{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		packages = append(packages, Package{Name: parts[0], Version: parts[1]})
	}
	return packages
}
