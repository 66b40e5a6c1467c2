package pkgmgr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPlatform indicates no recognized package manager is present.
// Fatal: patching cannot proceed without a known package manager.
var ErrUnsupportedPlatform = errors.New("no supported package manager found")

// UpgradeError is a non-zero exit from an upgrade command, with the
// captured output attached so an operator can diagnose without re-running
// the command.
type UpgradeError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *UpgradeError) Error() string {
	return fmt.Sprintf("upgrade command %q failed with exit code %d: %s",
		e.Command, e.ExitCode, strings.TrimSpace(e.Output))
}

// HoldError is a non-zero exit from a package hold/lock command.
type HoldError struct {
	Command  string
	ExitCode int
	Output   string
}

func (e *HoldError) Error() string {
	return fmt.Sprintf("hold command %q failed with exit code %d: %s",
		e.Command, e.ExitCode, strings.TrimSpace(e.Output))
}

// QueryError is a failure to list installed packages.
type QueryError struct {
	Command string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("package query %q failed: %v", e.Command, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func commandLine(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
