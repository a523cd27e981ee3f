package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/daemon"
	"github.com/harunnryd/bookbot/internal/worker"
)

type WorkersComponent struct {
	pool        *worker.Pool
	ingressComp *IngressComponent
	convComp    *ConversationComponent
	out         worker.Sender
	cfg         *config.Config
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewWorkersComponent(cfg *config.Config, ingComp *IngressComponent, convComp *ConversationComponent, out worker.Sender) *WorkersComponent {
	return &WorkersComponent{
		ingressComp: ingComp,
		convComp:    convComp,
		out:         out,
		cfg:         cfg,
	}
}

func (w *WorkersComponent) Name() string {
	return daemon.ComponentWorkers
}

func (w *WorkersComponent) Dependencies() []string {
	return []string{daemon.ComponentIngress, daemon.ComponentConversation}
}

func (w *WorkersComponent) Init(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ingressComp == nil || w.convComp == nil || w.out == nil {
		return fmt.Errorf("required component dependencies not provided")
	}
	if w.cfg == nil {
		return fmt.Errorf("config not provided")
	}

	ing := w.ingressComp.GetIngress()
	stack := w.convComp.Stack()
	if ing == nil || stack == nil {
		return fmt.Errorf("required dependencies not initialized")
	}

	shutdownTimeout, err := config.DurationOrDefault(w.cfg.Daemon.ShutdownTimeout, config.DefaultDaemonShutdownTimeout)
	if err != nil {
		return fmt.Errorf("parse worker shutdown timeout: %w", err)
	}

	size := w.cfg.Ingress.Workers
	if size <= 0 {
		size = config.DefaultIngressWorkers
	}
	w.pool = worker.NewPool(size, ing.Queue(), stack.Engine, w.out, worker.RuntimeConfig{ShutdownTimeout: shutdownTimeout})

	w.initialized = true
	slog.Info("Workers initialized", "component", w.Name(), "lanes", size)
	return nil
}

func (w *WorkersComponent) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return fmt.Errorf("Workers not initialized")
	}

	if err := w.pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	w.started = true
	w.startTime = time.Now()
	slog.Info("Workers started", "component", w.Name())
	return nil
}

func (w *WorkersComponent) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		slog.Info("Workers not started, skipping stop", "component", w.Name())
		return nil
	}

	slog.Info("Stopping Workers...", "component", w.Name())
	err := w.pool.Stop(ctx)
	w.started = false
	slog.Info("Workers stopped", "component", w.Name())
	return err
}

func (w *WorkersComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	switch {
	case !w.initialized:
		return daemon.Unhealthy(w.Name(), fmt.Errorf("not initialized")), nil
	case !w.started:
		return daemon.Unhealthy(w.Name(), fmt.Errorf("not started")), nil
	}
	if err := w.pool.Health(ctx); err != nil {
		return daemon.Unhealthy(w.Name(), err), nil
	}
	return daemon.Healthy(w.Name()).With("lanes", w.pool.Size()), nil
}
