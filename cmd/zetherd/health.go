// health.go - Health monitoring for the zetherd node
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"zether/internal/accounts"
	"zether/internal/ledger"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Degraded  HealthStatus = "degraded"
	Unhealthy HealthStatus = "unhealthy"
)

// degradedError marks a check failure that leaves the node usable.
type degradedError struct{ err error }

func (e degradedError) Error() string { return e.err.Error() }
func (e degradedError) Unwrap() error { return e.err }

// Degrade wraps err so that the failing component reports Degraded.
func Degrade(err error) error {
	if err == nil {
		return nil
	}
	return degradedError{err}
}

// ComponentHealth represents the health of a specific component
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message"`
	LastCheck time.Time     `json:"last_check"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// SystemHealth represents the overall system health
type SystemHealth struct {
	OverallStatus HealthStatus      `json:"overall_status"`
	Timestamp     time.Time         `json:"timestamp"`
	Components    []ComponentHealth `json:"components"`
	Uptime        time.Duration     `json:"uptime"`
	Version       string            `json:"version"`
}

// HealthChecker runs the registered component checks.
type HealthChecker struct {
	mu         sync.Mutex
	components map[string]*ComponentHealth
	checkers   map[string]func() error
	startTime  time.Time
	version    string
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		components: make(map[string]*ComponentHealth),
		checkers:   make(map[string]func() error),
		startTime:  time.Now(),
		version:    version,
	}
}

// RegisterComponent registers a health check for a component
func (hc *HealthChecker) RegisterComponent(name string, checker func() error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	hc.components[name] = &ComponentHealth{
		Name:      name,
		Status:    Healthy,
		Message:   "registered",
		LastCheck: time.Now(),
	}
	hc.checkers[name] = checker
}

// CheckHealth runs every check and aggregates the results. Components are
// reported in name order.
func (hc *HealthChecker) CheckHealth() *SystemHealth {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	names := make([]string, 0, len(hc.components))
	for name := range hc.components {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := Healthy
	components := make([]ComponentHealth, 0, len(names))
	for _, name := range names {
		component := hc.components[name]
		if checker := hc.checkers[name]; checker != nil {
			start := time.Now()
			err := checker()
			component.Latency = time.Since(start)
			component.LastCheck = time.Now()

			var degraded degradedError
			switch {
			case err == nil:
				component.Status, component.Message = Healthy, "OK"
			case errors.As(err, &degraded):
				component.Status, component.Message = Degraded, err.Error()
			default:
				component.Status, component.Message = Unhealthy, err.Error()
			}
		}

		switch {
		case component.Status == Unhealthy:
			overall = Unhealthy
		case component.Status == Degraded && overall == Healthy:
			overall = Degraded
		}
		components = append(components, *component)
	}

	return &SystemHealth{
		OverallStatus: overall,
		Timestamp:     time.Now(),
		Components:    components,
		Uptime:        time.Since(hc.startTime),
		Version:       hc.version,
	}
}

// StoreCheck lists the store.
func StoreCheck(s accounts.Store) func() error {
	return func() error {
		_, err := s.Accounts()
		return err
	}
}

// LedgerCheck verifies that the last record ends at the current root.
func LedgerCheck(l *ledger.Ledger) func() error {
	return func() error {
		records := l.Records()
		if len(records) == 0 {
			return nil
		}
		root := l.Root()
		if last := records[len(records)-1]; last.NewRoot != root.String() {
			return fmt.Errorf("record %d ends at %s, tree commits to %s", last.Seq, last.NewRoot, root.String())
		}
		return nil
	}
}

// FilesCheck reports missing files as Degraded.
func FilesCheck(paths ...string) func() error {
	return func() error {
		for _, p := range paths {
			if _, err := os.Stat(p); err != nil {
				return Degrade(fmt.Errorf("%s: %w", p, err))
			}
		}
		return nil
	}
}
