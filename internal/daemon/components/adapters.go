package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/bookbot/internal/adapter"
	"github.com/harunnryd/bookbot/internal/daemon"
)

// AdaptersComponent runs the chat platform listeners.
type AdaptersComponent struct {
	manager     *adapter.RuntimeManager
	initialized bool
	started     bool
}

func NewAdaptersComponent(manager *adapter.RuntimeManager) *AdaptersComponent {
	return &AdaptersComponent{manager: manager}
}

func (a *AdaptersComponent) Name() string {
	return daemon.ComponentAdapters
}

func (a *AdaptersComponent) Dependencies() []string {
	return []string{daemon.ComponentIngress, daemon.ComponentWorkers}
}

func (a *AdaptersComponent) Init(ctx context.Context) error {
	if a.manager == nil {
		return fmt.Errorf("adapter manager not configured")
	}
	a.initialized = true
	return nil
}

func (a *AdaptersComponent) Start(ctx context.Context) error {
	if !a.initialized {
		return fmt.Errorf("adapters component not initialized")
	}
	a.manager.Start(ctx)
	a.started = true
	slog.Info("Adapters started", "component", a.Name())
	return nil
}

func (a *AdaptersComponent) Stop(ctx context.Context) error {
	if !a.started {
		return nil
	}
	err := a.manager.Stop(ctx)
	a.started = false
	if err != nil {
		return err
	}
	slog.Info("Adapters stopped", "component", a.Name())
	return nil
}

func (a *AdaptersComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	switch {
	case !a.initialized:
		return daemon.Unhealthy(a.Name(), fmt.Errorf("not initialized")), nil
	case !a.started:
		return daemon.Unhealthy(a.Name(), fmt.Errorf("not started")), nil
	}
	if err := a.manager.Health(ctx); err != nil {
		return daemon.Unhealthy(a.Name(), err), nil
	}
	return daemon.Healthy(a.Name()), nil
}
