package monitoring

import (
	"context"
	"sync"
	"time"
)

type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

type HealthCheck struct {
	Name        string        `json:"name"`
	Status      HealthStatus  `json:"status"`
	Duration    time.Duration `json:"duration"`
	LastChecked time.Time     `json:"last_checked"`
	Error       string        `json:"error,omitempty"`
}

// HealthChecker runs named dependency probes (database, redis, rights
// service, wallet). Probes are registered at boot and queried by the health
// endpoint.
type HealthChecker struct {
	checks map[string]func(context.Context) error
	mu     sync.RWMutex
}

func CreateHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]func(context.Context) error),
	}
}

func (hc *HealthChecker) AddCheck(name string, check func(context.Context) error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

func (hc *HealthChecker) RunAllChecks(ctx context.Context) map[string]HealthCheck {
	hc.mu.RLock()
	checks := make(map[string]func(context.Context) error, len(hc.checks))
	for name, check := range hc.checks {
		checks[name] = check
	}
	hc.mu.RUnlock()

	results := make(map[string]HealthCheck)
	for name, check := range checks {
		start := time.Now()
		err := check(ctx)

		result := HealthCheck{
			Name:        name,
			Status:      Healthy,
			Duration:    time.Since(start),
			LastChecked: time.Now(),
		}
		if err != nil {
			result.Status = Unhealthy
			result.Error = err.Error()
		}
		results[name] = result
	}
	return results
}

func (hc *HealthChecker) IsHealthy(ctx context.Context) bool {
	for _, check := range hc.RunAllChecks(ctx) {
		if check.Status != Healthy {
			return false
		}
	}
	return true
}

// AvailabilityProbe reports whether a licensing provider can serve quotes.
type AvailabilityProbe interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// WatchProviders refreshes the provider availability gauges on an interval
// until the context is cancelled.
func WatchProviders(ctx context.Context, interval time.Duration, probes ...AvailabilityProbe) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		for _, p := range probes {
			SetProviderAvailable(p.Name(), p.IsAvailable(probeCtx))
		}
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
