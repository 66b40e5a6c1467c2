package scheduler

import (
	"os"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// ResolveHostname determines the identity this agent uses to look itself
// up in the manifest. Resolved once at startup and stable for the process
// lifetime. The manifest is keyed by FQDN, so an override exists for hosts
// whose kernel hostname is short.
func ResolveHostname(override string) (string, error) {
	if override != "" {
		return strings.TrimSpace(override), nil
	}

	if info, err := host.Info(); err == nil && info.Hostname != "" {
		return info.Hostname, nil
	}

	return os.Hostname()
}
