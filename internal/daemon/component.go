package daemon

import (
	"context"
)

type HealthStatus string

const (
	StatusStarting HealthStatus = "starting"
	StatusRunning  HealthStatus = "running"
	StatusStopping HealthStatus = "stopping"
	StatusStopped  HealthStatus = "stopped"
)

// Names of the components a serving bookbot is made of.
const (
	ComponentConversation = "Conversation"
	ComponentIngress      = "Ingress"
	ComponentWorkers      = "Workers"
	ComponentAdapters     = "Adapters"
	ComponentScheduler    = "Scheduler"
	ComponentHTTPServer   = "HTTPServer"
)

type ComponentHealth struct {
	Name    string
	Healthy bool
	Error   error
	// Details carries component specific figures for /health, e.g. queue depth.
	Details map[string]any
}

func Healthy(name string) *ComponentHealth {
	return &ComponentHealth{Name: name, Healthy: true}
}

func Unhealthy(name string, err error) *ComponentHealth {
	return &ComponentHealth{Name: name, Healthy: false, Error: err}
}

// With attaches a detail to the health report.
func (h *ComponentHealth) With(key string, value any) *ComponentHealth {
	if h.Details == nil {
		h.Details = make(map[string]any)
	}
	h.Details[key] = value
	return h
}

// Component is one lifecycle-managed part of the serving bot. Init runs in
// dependency order, Stop in reverse.
type Component interface {
	Name() string
	Dependencies() []string
	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) (*ComponentHealth, error)
}
