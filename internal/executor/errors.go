package executor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPatchingDisabled is the non-fatal early return when the host's policy
// has patch: false. An expected steady state, not an error condition; the
// daemon loop absorbs it and one-shot invocations exit with code 1.
var ErrPatchingDisabled = errors.New("patching disabled for host")

// UnknownHostError indicates the host is absent from the manifest. Fatal:
// an agent not in the manifest must not guess a policy.
type UnknownHostError struct {
	Host string
}

func (e *UnknownHostError) Error() string {
	return fmt.Sprintf("host %q not present in manifest", e.Host)
}

// RebootError is a failed reboot command. Fatal: an operator must
// intervene if a scheduled reboot cannot be issued.
type RebootError struct {
	ExitCode int
	Output   string
}

func (e *RebootError) Error() string {
	return fmt.Sprintf("reboot command failed with exit code %d: %s",
		e.ExitCode, strings.TrimSpace(e.Output))
}
