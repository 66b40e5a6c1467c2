package pkgmgr

import "context"

// redhatManager drives dnf (or yum on older hosts) and rpm.
type redhatManager struct {
	runner Runner
	tool   string // "dnf" or "yum"
}

func (m *redhatManager) Variant() Variant { return RedHat }

func (m *redhatManager) UpgradeAll(ctx context.Context) error {
	args := []string{"-y", "update"}
	output, err := m.runner.Run(ctx, m.tool, args...)
	if err != nil {
		return &UpgradeError{
			Command:  commandLine(m.tool, args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *redhatManager) UpgradeSubset(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"-y", "update"}, names...)
	output, err := m.runner.Run(ctx, m.tool, args...)
	if err != nil {
		return &UpgradeError{
			Command:  commandLine(m.tool, args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *redhatManager) Hold(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	// Requires the versionlock plugin (dnf-plugin-versionlock /
	// yum-plugin-versionlock).
	args := append([]string{"versionlock", "add"}, names...)
	output, err := m.runner.Run(ctx, m.tool, args...)
	if err != nil {
		return &HoldError{
			Command:  commandLine(m.tool, args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *redhatManager) ListInstalled(ctx context.Context) ([]Package, error) {
	args := []string{"-qa", "--queryformat", "%{NAME}\t%{VERSION}-%{RELEASE}\n"}
	output, err := m.runner.Run(ctx, "rpm", args...)
	if err != nil {
		return nil, &QueryError{Command: commandLine("rpm", args), Err: err}
	}
	return parseTabSeparated(output), nil
}
