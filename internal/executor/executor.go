// Package executor runs one patch cycle for the local host: validate the
// host against the manifest, evaluate the patch window, drive the package
// manager, and reboot when the policy says so.
package executor

import (
	"context"
	"slices"
	"time"

	"github.com/patchbay-ops/agent/internal/logging"
	"github.com/patchbay-ops/agent/internal/manifest"
	"github.com/patchbay-ops/agent/internal/pkgmgr"
	"github.com/patchbay-ops/agent/internal/window"
)

var log = logging.L("executor")

// Outcome is the result of one patch cycle, used for logging and the
// one-shot exit code. There is no on-disk audit trail.
type Outcome struct {
	PackagesUpgraded bool
	ExitStatus       int
	RebootTriggered  bool
}

// firedWindow records the window minute already executed against a given
// manifest snapshot, so a window observed by more than one poll tick
// within its minute fires exactly once.
type firedWindow struct {
	fetchedAt time.Time
	minute    time.Time
}

// Executor orchestrates patch cycles. It is driven by a single sequential
// scheduler loop; invocations never run concurrently.
type Executor struct {
	rebooter Rebooter
	now      func() time.Time
	detect   func() (pkgmgr.Manager, error)

	// Variant selection happens once, on the first cycle that reaches
	// Patching, and is reused for the process lifetime.
	manager pkgmgr.Manager

	lastFired *firedWindow
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithManager injects a pre-built package manager, bypassing detection.
func WithManager(m pkgmgr.Manager) Option {
	return func(e *Executor) { e.manager = m }
}

// WithRebooter overrides the reboot command.
func WithRebooter(r Rebooter) Option {
	return func(e *Executor) { e.rebooter = r }
}

// New creates an Executor that detects the host's package manager on first
// use and reboots via shutdown(8).
func New(opts ...Option) *Executor {
	e := &Executor{
		rebooter: ShutdownRebooter{},
		now:      time.Now,
		detect: func() (pkgmgr.Manager, error) {
			variant, err := pkgmgr.Detect()
			if err != nil {
				return nil, err
			}
			return pkgmgr.NewManager(variant, nil)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one patch cycle for the given host against the manifest
// snapshot.
//
// Non-fatal returns: ErrPatchingDisabled (policy says patch: false) and a
// nil-error no-op Outcome (outside the window, or this window minute was
// already executed). Everything else — unknown host, unsupported platform,
// failed hold/upgrade/reboot — is fatal for the process per the agent's
// no-retry policy.
func (e *Executor) Run(ctx context.Context, host string, snap *manifest.Snapshot) (Outcome, error) {
	// Validating
	policy, ok := snap.Manifest.Lookup(host)
	if !ok {
		return Outcome{}, &UnknownHostError{Host: host}
	}

	if !policy.Patch {
		log.Warn("patching disabled for host", logging.KeyHost, host)
		return Outcome{}, ErrPatchingDisabled
	}

	// Evaluating
	now := e.now()
	decision := window.Evaluate(now, window.Policy{
		Patch:   policy.Patch,
		Weekday: policy.Weekday,
		Hour:    policy.Hour,
		Minute:  policy.Minute,
	})
	if !decision.Eligible {
		log.Debug("outside patch window",
			logging.KeyHost, host,
			"reason", string(decision.Reason),
			"windowDay", decision.Day.String(),
		)
		return Outcome{}, nil
	}

	minute := now.Truncate(time.Minute)
	if e.alreadyFired(snap.FetchedAt, minute) {
		log.Debug("window already executed this minute", logging.KeyHost, host)
		return Outcome{}, nil
	}

	// Patching
	if e.manager == nil {
		mgr, err := e.detect()
		if err != nil {
			return Outcome{ExitStatus: 2}, err
		}
		e.manager = mgr
	}

	log.Info("patch window open",
		logging.KeyHost, host,
		logging.KeyVariant, e.manager.Variant().String(),
		"reboot", policy.Reboot,
		"whitelist", len(policy.Whitelist),
		"blacklist", len(policy.Blacklist),
	)

	if err := e.patch(ctx, policy); err != nil {
		return Outcome{ExitStatus: 2}, err
	}
	e.lastFired = &firedWindow{fetchedAt: snap.FetchedAt, minute: minute}

	outcome := Outcome{PackagesUpgraded: true}

	// Rebooting
	if policy.Reboot {
		log.Info("rebooting after successful patch cycle", logging.KeyHost, host)
		if err := e.rebooter.Reboot(ctx); err != nil {
			outcome.ExitStatus = 2
			return outcome, err
		}
		outcome.RebootTriggered = true
	}

	return outcome, nil
}

// patch applies blacklist holds first, then upgrades either the whitelist
// (minus held packages) or everything. A package on both lists is held and
// therefore never upgraded.
func (e *Executor) patch(ctx context.Context, policy manifest.HostPolicy) error {
	if len(policy.Blacklist) > 0 {
		log.Info("holding blacklisted packages", "packages", policy.Blacklist)
		if err := e.manager.Hold(ctx, policy.Blacklist); err != nil {
			return err
		}
	}

	if len(policy.Whitelist) > 0 {
		subset := subtract(policy.Whitelist, policy.Blacklist)
		if len(subset) == 0 {
			log.Warn("whitelist fully covered by blacklist, nothing to upgrade")
			return nil
		}
		return e.manager.UpgradeSubset(ctx, subset)
	}

	return e.manager.UpgradeAll(ctx)
}

func (e *Executor) alreadyFired(fetchedAt, minute time.Time) bool {
	return e.lastFired != nil &&
		e.lastFired.fetchedAt.Equal(fetchedAt) &&
		e.lastFired.minute.Equal(minute)
}

// subtract returns the names in keep that are not in drop, preserving order.
func subtract(keep, drop []string) []string {
	if len(drop) == 0 {
		return keep
	}
	out := make([]string, 0, len(keep))
	for _, name := range keep {
		if !slices.Contains(drop, name) {
			out = append(out, name)
		}
	}
	return out
}
