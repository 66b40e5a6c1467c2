package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// HostPolicy is the per-host patching policy from the manifest document.
// Values are immutable once parsed; a refresh produces a new Manifest.
type HostPolicy struct {
	Patch     bool     `yaml:"patch"`
	Reboot    bool     `yaml:"reboot"`
	Weekday   int      `yaml:"weekday"` // Monday=0 .. Sunday=6
	Hour      int      `yaml:"hour"`
	Minute    int      `yaml:"minute"`
	Whitelist []string `yaml:"packages_whitelist"`
	Blacklist []string `yaml:"packages_blacklist"`
	Groups    []string `yaml:"group_membership"`
}

// Manifest maps host FQDNs to their patch policies.
type Manifest map[string]HostPolicy

// Lookup returns the policy for the given host.
func (m Manifest) Lookup(fqdn string) (HostPolicy, bool) {
	p, ok := m[fqdn]
	return p, ok
}

// rawPolicy uses pointers so missing required keys are detectable.
type rawPolicy struct {
	Patch     *bool    `yaml:"patch"`
	Reboot    *bool    `yaml:"reboot"`
	Weekday   *int     `yaml:"weekday"`
	Hour      *int     `yaml:"hour"`
	Minute    *int     `yaml:"minute"`
	Whitelist []string `yaml:"packages_whitelist"`
	Blacklist []string `yaml:"packages_blacklist"`
	Groups    []string `yaml:"group_membership"`
}

// Parse deserializes a manifest document. Top-level keys whose value is not
// a mapping (such as the informational group_membership list) are ignored
// for forward compatibility. A host entry missing any of the required keys
// (patch, reboot, weekday, hour, minute) invalidates the whole manifest.
func Parse(raw []byte) (Manifest, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	m := make(Manifest, len(doc))
	for host, node := range doc {
		if node.Kind != yaml.MappingNode {
			continue
		}

		var rp rawPolicy
		if err := node.Decode(&rp); err != nil {
			return nil, &ParseError{Host: host, Err: err}
		}

		if err := rp.validate(host); err != nil {
			return nil, err
		}

		if *rp.Hour < 0 || *rp.Hour > 23 {
			return nil, &ParseError{Host: host, Err: fmt.Errorf("hour %d out of range 0-23", *rp.Hour)}
		}
		if *rp.Minute < 0 || *rp.Minute > 59 {
			return nil, &ParseError{Host: host, Err: fmt.Errorf("minute %d out of range 0-59", *rp.Minute)}
		}

		m[host] = HostPolicy{
			Patch:     *rp.Patch,
			Reboot:    *rp.Reboot,
			Weekday:   *rp.Weekday,
			Hour:      *rp.Hour,
			Minute:    *rp.Minute,
			Whitelist: rp.Whitelist,
			Blacklist: rp.Blacklist,
			Groups:    rp.Groups,
		}
	}

	return m, nil
}

func (rp *rawPolicy) validate(host string) error {
	required := []struct {
		name string
		set  bool
	}{
		{"patch", rp.Patch != nil},
		{"reboot", rp.Reboot != nil},
		{"weekday", rp.Weekday != nil},
		{"hour", rp.Hour != nil},
		{"minute", rp.Minute != nil},
	}
	for _, f := range required {
		if !f.set {
			return &ParseError{Host: host, Err: fmt.Errorf("missing required key %q", f.name)}
		}
	}
	return nil
}
