package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":    true,
	"info":     true,
	"warn":     true,
	"warning":  true,
	"error":    true,
	"critical": true,
}

// Validate checks the config for invalid values and returns all errors found.
// Dangerous zero-values that would break the scheduler are clamped to safe
// defaults. Other validation errors are logged as warnings but do not
// prevent startup; a missing server URL is the caller's problem because
// `status` and `version` work without one.
func (c *Config) Validate() []error {
	var errs []error

	if c.Server != "" {
		u, err := url.Parse(c.Server)
		if err != nil {
			errs = append(errs, fmt.Errorf("server %q is not a valid URL: %w", c.Server, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("server scheme must be http or https, got %q", u.Scheme))
		}
	}

	if c.MonitoringPort < 1 || c.MonitoringPort > 65535 {
		errs = append(errs, fmt.Errorf("monitoring_port %d is out of range, clamping to 8037", c.MonitoringPort))
		c.MonitoringPort = 8037
	}

	// Clamp the poll interval to a safe range: sub-5s polling hammers the
	// manifest server, and anything above an hour can skip patch windows
	// entirely (the window match is minute-granular).
	if c.PollIntervalSeconds < 5 {
		errs = append(errs, fmt.Errorf("poll_interval_seconds %d is below minimum 5, clamping", c.PollIntervalSeconds))
		c.PollIntervalSeconds = 5
	} else if c.PollIntervalSeconds > 60 {
		errs = append(errs, fmt.Errorf("poll_interval_seconds %d exceeds maximum 60, clamping", c.PollIntervalSeconds))
		c.PollIntervalSeconds = 60
	}

	if c.ManifestTTLHours < 1 {
		errs = append(errs, fmt.Errorf("manifest_ttl_hours %d is below minimum 1, clamping", c.ManifestTTLHours))
		c.ManifestTTLHours = 1
	} else if c.ManifestTTLHours > 168 {
		errs = append(errs, fmt.Errorf("manifest_ttl_hours %d exceeds maximum 168, clamping", c.ManifestTTLHours))
		c.ManifestTTLHours = 168
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error, critical)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	// Log validation errors as warnings
	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
