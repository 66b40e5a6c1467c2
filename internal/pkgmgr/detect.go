package pkgmgr

import "os"

// probe is one filesystem check in the detection order.
type probe struct {
	variant Variant
	paths   []string
}

// Detection precedence is fixed: Debian, then RedHat, then FreeBSD, first
// match wins. On a host carrying more than one package manager (e.g. an
// rpm tool installed on a Debian box) this picks the distribution's native
// one rather than whichever probe happens to run last.
var probes = []probe{
	{Debian, []string{"/usr/bin/apt-get", "/usr/bin/apt"}},
	{RedHat, []string{"/usr/bin/dnf", "/usr/bin/yum", "/bin/rpm", "/usr/bin/rpm"}},
	{FreeBSD, []string{"/usr/sbin/pkg", "/usr/local/sbin/pkg"}},
}

// Detect probes the host filesystem for a supported package manager and
// returns its variant, or ErrUnsupportedPlatform when none is present.
func Detect() (Variant, error) {
	return detectWith(fileExists)
}

func detectWith(exists func(string) bool) (Variant, error) {
	for _, p := range probes {
		for _, path := range p.paths {
			if exists(path) {
				log.Debug("package manager detected", "variant", p.variant.String(), "path", path)
				return p.variant, nil
			}
		}
	}
	return VariantUnknown, ErrUnsupportedPlatform
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// redhatTool prefers dnf over yum, matching what modern RedHat-family
// systems ship. yum remains for older hosts where dnf is absent.
func redhatTool() string {
	if _, err := lookPath("dnf"); err == nil {
		return "dnf"
	}
	if _, err := lookPath("yum"); err == nil {
		return "yum"
	}
	return "dnf"
}
