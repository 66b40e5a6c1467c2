package pkgmgr

import "context"

// debianManager drives apt-get/apt-mark/dpkg-query on Debian-family hosts.
type debianManager struct {
	runner Runner
}

func (m *debianManager) Variant() Variant { return Debian }

func (m *debianManager) UpgradeAll(ctx context.Context) error {
	// dist-upgrade, not upgrade: plain upgrade holds back any package
	// whose upgrade changes the dependency set, which on an unattended
	// host silently keeps kernel-class updates from ever applying.
	args := []string{"-y", "-o", "Dpkg::Options::=--force-confold", "dist-upgrade"}
	output, err := m.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return &UpgradeError{
			Command:  commandLine("apt-get", args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *debianManager) UpgradeSubset(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"-y", "install", "--only-upgrade"}, names...)
	output, err := m.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return &UpgradeError{
			Command:  commandLine("apt-get", args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *debianManager) Hold(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"hold"}, names...)
	output, err := m.runner.Run(ctx, "apt-mark", args...)
	if err != nil {
		return &HoldError{
			Command:  commandLine("apt-mark", args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *debianManager) ListInstalled(ctx context.Context) ([]Package, error) {
	args := []string{"-W", "-f=${Package}\t${Version}\n"}
	output, err := m.runner.Run(ctx, "dpkg-query", args...)
	if err != nil {
		return nil, &QueryError{Command: commandLine("dpkg-query", args), Err: err}
	}
	return parseTabSeparated(output), nil
}
