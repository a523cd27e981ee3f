package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/daemon"
	"github.com/harunnryd/bookbot/internal/idempotency"
	"github.com/harunnryd/bookbot/internal/ingress"
)

type IngressComponent struct {
	ingress     *ingress.Ingress
	processed   *idempotency.Store
	cfg         *config.IngressConfig
	initialized bool
	started     bool
	mu          sync.RWMutex
	startTime   time.Time
}

func NewIngressComponent(cfg *config.IngressConfig) *IngressComponent {
	return &IngressComponent{cfg: cfg}
}

func (i *IngressComponent) Name() string {
	return daemon.ComponentIngress
}

func (i *IngressComponent) Dependencies() []string {
	return []string{}
}

func (i *IngressComponent) Init(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cfg == nil {
		return fmt.Errorf("ingress config not provided")
	}

	runtimeCfg, err := ingress.RuntimeConfigFrom(*i.cfg)
	if err != nil {
		return fmt.Errorf("parse ingress config: %w", err)
	}

	processed, err := idempotency.NewStore(i.cfg.IdempotencyPath)
	if err != nil {
		return fmt.Errorf("open idempotency store: %w", err)
	}
	if n := processed.Prune(); n > 0 {
		slog.Info("Pruned expired message keys", "count", n)
	}

	i.processed = processed
	i.ingress = ingress.NewIngress(i.cfg.QueueSize, runtimeCfg, processed)
	i.initialized = true
	slog.Info("Ingress initialized", "component", i.Name(), "queue_size", i.cfg.QueueSize)
	return nil
}

func (i *IngressComponent) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.initialized {
		return fmt.Errorf("Ingress not initialized")
	}

	i.started = true
	i.startTime = time.Now()
	slog.Info("Ingress started", "component", i.Name())
	return nil
}

func (i *IngressComponent) Stop(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.started {
		slog.Info("Ingress not started, skipping stop", "component", i.Name())
		return nil
	}

	slog.Info("Stopping Ingress...", "component", i.Name())
	if i.ingress != nil {
		i.ingress.Close()
	}
	if i.processed != nil {
		if err := i.processed.Save(); err != nil {
			slog.Warn("Failed to persist message keys", "error", err)
		}
	}
	i.started = false
	slog.Info("Ingress stopped", "component", i.Name())
	return nil
}

func (i *IngressComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if !i.started {
		return daemon.Unhealthy(i.Name(), fmt.Errorf("not started")), nil
	}
	if err := i.ingress.Health(ctx); err != nil {
		return daemon.Unhealthy(i.Name(), err), nil
	}
	return daemon.Healthy(i.Name()).With("queued", len(i.ingress.Queue())), nil
}

func (i *IngressComponent) GetIngress() *ingress.Ingress {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.ingress
}
