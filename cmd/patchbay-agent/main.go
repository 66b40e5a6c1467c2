package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchbay-ops/agent/internal/config"
	"github.com/patchbay-ops/agent/internal/executor"
	"github.com/patchbay-ops/agent/internal/health"
	"github.com/patchbay-ops/agent/internal/logging"
	"github.com/patchbay-ops/agent/internal/manifest"
	"github.com/patchbay-ops/agent/internal/monitoring"
	"github.com/patchbay-ops/agent/internal/pkgmgr"
	"github.com/patchbay-ops/agent/internal/scheduler"
)

var (
	version   = "0.1.0"
	cfgFile   string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "patchbay-agent",
	Short: "Patchbay unattended patching agent",
	Long:  `Patchbay Agent - schedules and applies OS package upgrades from a central manifest`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent loop",
	Run: func(cmd *cobra.Command, args []string) {
		runAgent()
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single patch cycle and exit",
	Run: func(cmd *cobra.Command, args []string) {
		runOnce()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent configuration and detected package manager",
	Run: func(cmd *cobra.Command, args []string) {
		showStatus()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Patchbay Agent v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/patchbay/agent.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "manifest server base URL")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// setup loads config, initializes logging, and builds the scheduler with
// its collaborators. Shared by run and once.
func setup() (*config.Config, *scheduler.Scheduler, *health.Monitor) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	cfg.Validate()

	if cfg.Server == "" {
		fmt.Fprintln(os.Stderr, "Manifest server required. Use --server or set 'server' in config.")
		os.Exit(2)
	}

	var logOut io.Writer
	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, 0, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(2)
		}
		logOut = rw
	}
	logging.Init(cfg.LogFormat, cfg.LogLevel, logOut)

	hostname, err := scheduler.ResolveHostname(cfg.HostnameOverride)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve host identity: %v\n", err)
		os.Exit(2)
	}

	store := manifest.NewStore(cfg.Server,
		manifest.WithTTL(time.Duration(cfg.ManifestTTLHours)*time.Hour),
	)
	exec := executor.New()
	monitor := health.NewMonitor()
	sched := scheduler.New(hostname,
		time.Duration(cfg.PollIntervalSeconds)*time.Second,
		store, exec, monitor)

	return cfg, sched, monitor
}

func runAgent() {
	cfg, sched, monitor := setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring {
		mon := monitoring.New(cfg.MonitoringListener, cfg.MonitoringPort, monitor)
		if err := mon.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start monitoring endpoint: %v\n", err)
			os.Exit(2)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mon.Shutdown(shutdownCtx)
		}()
	}

	if err := sched.Run(ctx); err != nil {
		// Fatal scheduler errors are not retried here; the service
		// manager decides whether to restart the agent.
		os.Exit(2)
	}
}

func runOnce() {
	_, sched, _ := setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err := sched.RunOnce(ctx)
	switch {
	case errors.Is(err, executor.ErrPatchingDisabled):
		os.Exit(1)
	case err != nil:
		os.Exit(2)
	}
}

func showStatus() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Println("Status: not configured")
		return
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}

	fmt.Printf("Server: %s\n", cfg.Server)
	fmt.Printf("Poll interval: %ds\n", cfg.PollIntervalSeconds)
	fmt.Printf("Manifest TTL: %dh\n", cfg.ManifestTTLHours)
	fmt.Printf("Monitoring: %v (%s:%d)\n", cfg.Monitoring, cfg.MonitoringListener, cfg.MonitoringPort)

	hostname, err := scheduler.ResolveHostname(cfg.HostnameOverride)
	if err == nil {
		fmt.Printf("Host identity: %s\n", hostname)
	}

	variant, err := pkgmgr.Detect()
	if err != nil {
		fmt.Printf("Package manager: none detected (%v)\n", err)
		return
	}
	fmt.Printf("Package manager: %s\n", variant)
}
