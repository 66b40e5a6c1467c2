// Package monitoring serves the agent's health endpoint. It runs beside
// the scheduler loop and shares only the read-locked health monitor with
// it; it never touches patch state.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/patchbay-ops/agent/internal/health"
	"github.com/patchbay-ops/agent/internal/logging"
)

var log = logging.L("monitoring")

// Server answers GET /health with a liveness payload. It is started as a
// supervised goroutine and shut down explicitly with the process; it is
// not fire-and-forget.
type Server struct {
	addr    string
	monitor *health.Monitor
	srv     *http.Server
	started time.Time
}

// New creates a monitoring server bound to listener:port.
func New(listener string, port int, monitor *health.Monitor) *Server {
	s := &Server{
		addr:    net.JoinHostPort(listener, fmt.Sprintf("%d", port)),
		monitor: monitor,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins listening. Bind errors are returned synchronously; serve
// errors after that are logged, not fatal for the patch loop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("monitoring listen on %s: %w", s.addr, err)
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("monitoring server stopped", logging.KeyError, err)
		}
	}()

	log.Info("monitoring endpoint listening", "addr", s.addr)
	return nil
}

// Shutdown stops the server, waiting for in-flight requests up to the
// context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type healthPayload struct {
	Alive             bool              `json:"alive"`
	Status            string            `json:"status"`
	Components        map[string]string `json:"components"`
	UptimeSeconds     int64             `json:"uptimeSeconds"`
	HostUptimeSeconds uint64            `json:"hostUptimeSeconds,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	overall := s.monitor.Overall()
	checks := s.monitor.All()
	components := make(map[string]string, len(checks))
	for _, c := range checks {
		components[c.Name] = string(c.Status)
	}

	payload := healthPayload{
		Alive:         overall != health.Unhealthy,
		Status:        string(overall),
		Components:    components,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if up, err := host.Uptime(); err == nil {
		payload.HostUptimeSeconds = up
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn("health response write failed", logging.KeyError, err)
	}
}
