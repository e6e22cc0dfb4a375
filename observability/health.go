package observability

import "context"

// HealthStatus represents the health state of a runtime component.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// Health describes the health of an individual component, such as a
// storage engine or the metadata store.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// RuntimeHealth aggregates the health of the runtime and its components.
type RuntimeHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewRuntimeHealth creates a RuntimeHealth with status up.
func NewRuntimeHealth(service, version string) *RuntimeHealth {
	return &RuntimeHealth{
		Service: service,
		Status:  HealthStatusUp,
		Version: version,
	}
}

// AddComponent adds a component health result. Overall status takes the
// worst component status; down is never overridden by degraded.
func (rh *RuntimeHealth) AddComponent(ch Health) {
	rh.Components = append(rh.Components, ch)

	switch ch.Status {
	case HealthStatusDown:
		rh.Status = HealthStatusDown
	case HealthStatusDegraded:
		if rh.Status != HealthStatusDown {
			rh.Status = HealthStatusDegraded
		}
	}
}
