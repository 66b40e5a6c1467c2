package pkgmgr

import "context"

// freebsdManager drives pkg(8) on FreeBSD hosts.
type freebsdManager struct {
	runner Runner
}

func (m *freebsdManager) Variant() Variant { return FreeBSD }

func (m *freebsdManager) UpgradeAll(ctx context.Context) error {
	args := []string{"upgrade", "-y"}
	output, err := m.runner.Run(ctx, "pkg", args...)
	if err != nil {
		return &UpgradeError{
			Command:  commandLine("pkg", args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *freebsdManager) UpgradeSubset(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"upgrade", "-y"}, names...)
	output, err := m.runner.Run(ctx, "pkg", args...)
	if err != nil {
		return &UpgradeError{
			Command:  commandLine("pkg", args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *freebsdManager) Hold(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := append([]string{"lock", "-y"}, names...)
	output, err := m.runner.Run(ctx, "pkg", args...)
	if err != nil {
		return &HoldError{
			Command:  commandLine("pkg", args),
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}
	return nil
}

func (m *freebsdManager) ListInstalled(ctx context.Context) ([]Package, error) {
	args := []string{"query", "%n\t%v"}
	output, err := m.runner.Run(ctx, "pkg", args...)
	if err != nil {
		return nil, &QueryError{Command: commandLine("pkg", args), Err: err}
	}
	return parseTabSeparated(output), nil
}
