package pkgmgr

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	output []byte
	err    error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	return r.output, r.err
}

func (r *fakeRunner) lastLine() string {
	if len(r.calls) == 0 {
		return ""
	}
	c := r.calls[len(r.calls)-1]
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

func existsAmong(paths ...string) func(string) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestDetectDebian(t *testing.T) {
	v, err := detectWith(existsAmong("/usr/bin/apt-get"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Debian {
		t.Fatalf("variant = %v, want Debian", v)
	}
}

func TestDetectPrecedenceIsDeterministic(t *testing.T) {
	// A Debian host with an rpm tool installed must still detect as
	// Debian: first match in the fixed probe order wins.
	v, err := detectWith(existsAmong("/usr/bin/rpm", "/usr/bin/apt-get"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != Debian {
		t.Fatalf("variant = %v, want Debian (precedence)", v)
	}
}

func TestDetectRedHatAndFreeBSD(t *testing.T) {
	if v, _ := detectWith(existsAmong("/usr/bin/dnf")); v != RedHat {
		t.Fatalf("dnf host variant = %v, want RedHat", v)
	}
	if v, _ := detectWith(existsAmong("/usr/sbin/pkg")); v != FreeBSD {
		t.Fatalf("pkg host variant = %v, want FreeBSD", v)
	}
}

func TestDetectUnsupportedPlatform(t *testing.T) {
	_, err := detectWith(existsAmong())
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestNewManagerUnknownVariant(t *testing.T) {
	_, err := NewManager(VariantUnknown, &fakeRunner{})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestDebianCommandLines(t *testing.T) {
	r := &fakeRunner{}
	m, err := NewManager(Debian, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if err := m.UpgradeAll(ctx); err != nil {
		t.Fatalf("UpgradeAll: %v", err)
	}
	// dist-upgrade is the fixed allow-list entry; plain upgrade would
	// hold back packages with changed dependency sets.
	if got := r.lastLine(); got != "apt-get -y -o Dpkg::Options::=--force-confold dist-upgrade" {
		t.Fatalf("UpgradeAll command = %q", got)
	}

	if err := m.UpgradeSubset(ctx, []string{"openssl", "nginx"}); err != nil {
		t.Fatalf("UpgradeSubset: %v", err)
	}
	if got := r.lastLine(); got != "apt-get -y install --only-upgrade openssl nginx" {
		t.Fatalf("UpgradeSubset command = %q", got)
	}

	if err := m.Hold(ctx, []string{"kernel"}); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if got := r.lastLine(); got != "apt-mark hold kernel" {
		t.Fatalf("Hold command = %q", got)
	}
}

func TestRedHatCommandLines(t *testing.T) {
	r := &fakeRunner{}
	m := &redhatManager{runner: r, tool: "dnf"}
	ctx := context.Background()

	if err := m.UpgradeAll(ctx); err != nil {
		t.Fatalf("UpgradeAll: %v", err)
	}
	if got := r.lastLine(); got != "dnf -y update" {
		t.Fatalf("UpgradeAll command = %q", got)
	}

	if err := m.Hold(ctx, []string{"kernel", "glibc"}); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if got := r.lastLine(); got != "dnf versionlock add kernel glibc" {
		t.Fatalf("Hold command = %q", got)
	}
}

func TestFreeBSDCommandLines(t *testing.T) {
	r := &fakeRunner{}
	m := &freebsdManager{runner: r}
	ctx := context.Background()

	if err := m.UpgradeAll(ctx); err != nil {
		t.Fatalf("UpgradeAll: %v", err)
	}
	if got := r.lastLine(); got != "pkg upgrade -y" {
		t.Fatalf("UpgradeAll command = %q", got)
	}

	if err := m.Hold(ctx, []string{"openssl"}); err != nil {
		t.Fatalf("Hold: %v", err)
	}
	if got := r.lastLine(); got != "pkg lock -y openssl" {
		t.Fatalf("Hold command = %q", got)
	}
}

func TestHoldEmptyIsNoOp(t *testing.T) {
	for _, v := range []Variant{Debian, RedHat, FreeBSD} {
		r := &fakeRunner{}
		m, err := NewManager(v, r)
		if err != nil {
			t.Fatalf("%v: %v", v, err)
		}
		if err := m.Hold(context.Background(), nil); err != nil {
			t.Fatalf("%v: empty hold errored: %v", v, err)
		}
		if len(r.calls) != 0 {
			t.Fatalf("%v: empty hold must not run commands, ran %v", v, r.calls)
		}
	}
}

func TestUpgradeErrorCarriesOutput(t *testing.T) {
	r := &fakeRunner{output: []byte("E: broken packages\n"), err: errors.New("exit status 100")}
	m := &debianManager{runner: r}

	err := m.UpgradeAll(context.Background())
	var ue *UpgradeError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpgradeError, got %T: %v", err, err)
	}
	if !strings.Contains(ue.Output, "broken packages") {
		t.Fatalf("output not captured: %+v", ue)
	}
	if !strings.Contains(ue.Command, "apt-get") {
		t.Fatalf("command not recorded: %+v", ue)
	}
}

func TestHoldErrorType(t *testing.T) {
	r := &fakeRunner{output: []byte("lock failed"), err: errors.New("exit status 1")}
	m := &freebsdManager{runner: r}

	err := m.Hold(context.Background(), []string{"openssl"})
	var he *HoldError
	if !errors.As(err, &he) {
		t.Fatalf("expected HoldError, got %T: %v", err, err)
	}
}

func TestListInstalledParsesOutput(t *testing.T) {
	r := &fakeRunner{output: []byte("openssl\t3.0.11-1\nnginx\t1.24.0-2\n\nmalformed line\n")}
	m := &debianManager{runner: r}

	packages, err := m.ListInstalled(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("expected 2 packages, got %d: %v", len(packages), packages)
	}
	if packages[0].Name != "openssl" || packages[0].Version != "3.0.11-1" {
		t.Fatalf("unexpected first package: %+v", packages[0])
	}
}

func TestRedhatToolPrefersDnf(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(name string) (string, error) {
		if name == "dnf" {
			return "/usr/bin/dnf", nil
		}
		return "", errors.New("not found")
	}
	if got := redhatTool(); got != "dnf" {
		t.Fatalf("redhatTool() = %q, want dnf", got)
	}

	lookPath = func(name string) (string, error) {
		if name == "yum" {
			return "/usr/bin/yum", nil
		}
		return "", errors.New("not found")
	}
	if got := redhatTool(); got != "yum" {
		t.Fatalf("redhatTool() = %q, want yum", got)
	}
}
