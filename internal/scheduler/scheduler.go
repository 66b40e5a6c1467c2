// Package scheduler drives the agent's patch cycles on a fixed poll
// interval: refresh the manifest, run one executor cycle, sleep, repeat,
// forever. All patch logic runs sequentially on this one loop; the only
// other goroutine in the process is the monitoring responder, which shares
// nothing mutable with this loop beyond the health monitor.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/patchbay-ops/agent/internal/executor"
	"github.com/patchbay-ops/agent/internal/health"
	"github.com/patchbay-ops/agent/internal/logging"
	"github.com/patchbay-ops/agent/internal/manifest"
)

var log = logging.L("scheduler")

// DefaultPollInterval matches the reference agent's 50-second loop. It
// deliberately does not divide a minute evenly; the executor de-duplicates
// the window minute.
const DefaultPollInterval = 50 * time.Second

// ManifestSource provides manifest snapshots (cache-aware).
type ManifestSource interface {
	Fetch(ctx context.Context) (*manifest.Snapshot, error)
}

// CycleRunner runs one patch cycle for a host.
type CycleRunner interface {
	Run(ctx context.Context, host string, snap *manifest.Snapshot) (executor.Outcome, error)
}

// Scheduler owns the agent's control loop. Construct with New; all state
// is explicit, nothing ambient.
type Scheduler struct {
	host     string
	interval time.Duration
	store    ManifestSource
	runner   CycleRunner
	monitor  *health.Monitor
	logger   *slog.Logger
}

// New creates a Scheduler for the given host identity.
func New(host string, interval time.Duration, store ManifestSource, runner CycleRunner, monitor *health.Monitor) *Scheduler {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if monitor == nil {
		monitor = health.NewMonitor()
	}
	return &Scheduler{
		host:     host,
		interval: interval,
		store:    store,
		runner:   runner,
		monitor:  monitor,
		logger:   logging.WithHost(log, host),
	}
}

// Run loops until the context is cancelled or a step fails fatally. A
// fatal error is returned to the caller, which terminates the process;
// restarting after a fatal error is an external supervisor's job, not the
// loop's. "Patching disabled" and "outside window" are steady states, not
// errors, and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)
	s.monitor.Update(health.ComponentScheduler, health.Healthy, "running")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.cycle(ctx); err != nil {
			s.monitor.Update(health.ComponentScheduler, health.Unhealthy, "terminated on fatal error")
			return err
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "cause", ctx.Err())
			s.monitor.Update(health.ComponentScheduler, health.Healthy, "stopped")
			return nil
		}
	}
}

// RunOnce performs a single patch cycle. Used by the one-shot CLI mode;
// the caller maps ErrPatchingDisabled to exit code 1 and fatal errors to
// exit code 2.
func (s *Scheduler) RunOnce(ctx context.Context) (executor.Outcome, error) {
	snap, err := s.store.Fetch(ctx)
	if err != nil {
		s.monitor.Update(health.ComponentManifest, health.Unhealthy, err.Error())
		return executor.Outcome{ExitStatus: 2}, err
	}
	s.monitor.Update(health.ComponentManifest, health.Healthy, "")

	return s.runner.Run(ctx, s.host, snap)
}

// cycle is one loop iteration. It absorbs the disabled steady state and
// propagates everything else.
func (s *Scheduler) cycle(ctx context.Context) error {
	outcome, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, executor.ErrPatchingDisabled):
		s.monitor.Update(health.ComponentPatchCycle, health.Healthy, "patching disabled by policy")
		return nil
	case err != nil:
		s.monitor.Update(health.ComponentPatchCycle, health.Unhealthy, err.Error())
		s.logger.Error("fatal patch cycle error", logging.KeyError, err)
		return err
	}

	s.monitor.Update(health.ComponentPatchCycle, health.Healthy, "")
	if outcome.PackagesUpgraded {
		s.logger.Info("patch cycle completed", "rebootTriggered", outcome.RebootTriggered)
	}
	return nil
}
