package health

import (
	"sync"
	"time"

	"github.com/patchbay-ops/agent/internal/logging"
)

var log = logging.L("health")

// Status represents the health status of a component.
type Status string

const (
	Healthy   Status = "healthy"
	Degraded  Status = "degraded"
	Unhealthy Status = "unhealthy"
	Unknown   Status = "unknown"
)

// Component names tracked by the agent.
const (
	ComponentManifest   = "manifest"
	ComponentPatchCycle = "patch_cycle"
	ComponentScheduler  = "scheduler"
)

// Check stores the latest health result for a named component.
type Check struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Monitor tracks health checks for multiple components. It is shared
// read-only with the monitoring responder, so all access is locked.
type Monitor struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewMonitor creates a new health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		checks: make(map[string]Check),
	}
}

// Update records the health status for a named component.
func (m *Monitor) Update(name string, status Status, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.checks[name] = Check{
		Name:      name,
		Status:    status,
		Message:   message,
		UpdatedAt: time.Now(),
	}

	if status != Healthy {
		log.Warn("health check degraded", "component", name, "status", string(status), "message", message)
	}
}

// Get returns the health check for a named component.
func (m *Monitor) Get(name string) (Check, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.checks[name]
	return c, ok
}

// Overall returns the worst status across all registered checks.
// A monitor with no checks yet is Unknown, not Healthy: the scheduler
// has not completed a cycle, so liveness cannot be claimed.
func (m *Monitor) Overall() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.checks) == 0 {
		return Unknown
	}

	worst := Healthy
	for _, c := range m.checks {
		if statusRank(c.Status) > statusRank(worst) {
			worst = c.Status
		}
	}
	return worst
}

// All returns a snapshot of all current health checks.
func (m *Monitor) All() []Check {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Check, 0, len(m.checks))
	for _, c := range m.checks {
		result = append(result, c)
	}
	return result
}

// Summary returns a JSON-friendly map for the monitoring endpoint.
func (m *Monitor) Summary() map[string]any {
	overall := m.Overall()
	checks := m.All()

	components := make(map[string]string, len(checks))
	for _, c := range checks {
		components[c.Name] = string(c.Status)
	}

	return map[string]any{
		"status":     string(overall),
		"components": components,
	}
}

func statusRank(s Status) int {
	switch s {
	case Healthy:
		return 0
	case Degraded:
		return 1
	case Unhealthy:
		return 2
	default:
		return 3
	}
}
