package executor

import (
	"context"
	"errors"
	"os/exec"

	"github.com/patchbay-ops/agent/internal/pkgmgr"
)

// Rebooter issues the privileged host reboot. A reboot, once issued, is
// allowed to complete and take the host down; there is no cancellation.
type Rebooter interface {
	Reboot(ctx context.Context) error
}

// ShutdownRebooter reboots via shutdown(8), the one reboot command on the
// agent's privileged allow-list.
type ShutdownRebooter struct {
	Runner pkgmgr.Runner
}

func (r ShutdownRebooter) Reboot(ctx context.Context) error {
	runner := r.Runner
	if runner == nil {
		runner = pkgmgr.ExecRunner{}
	}

	output, err := runner.Run(ctx, "shutdown", "-r", "now")
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &RebootError{ExitCode: code, Output: string(output)}
	}
	return nil
}
