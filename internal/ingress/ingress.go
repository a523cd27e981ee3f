package ingress

import (
	"context"
	"log/slog"
	"time"

	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
)

// Deduplicator remembers message keys for a while.
type Deduplicator interface {
	CheckAndMark(key string, ttl time.Duration) bool
}

type RuntimeConfig struct {
	SubmitTimeout     time.Duration
	DrainTimeout      time.Duration
	DrainPollInterval time.Duration
	IdempotencyTTL    time.Duration
}

// RuntimeConfigFrom converts the ingress config section, applying defaults.
func RuntimeConfigFrom(cfg config.IngressConfig) (RuntimeConfig, error) {
	submit, err := config.DurationOrDefault(cfg.SubmitTimeout, config.DefaultIngressSubmitTimeout)
	if err != nil {
		return RuntimeConfig{}, err
	}
	ttl, err := config.DurationOrDefault(cfg.IdempotencyTTL, config.DefaultIngressIdempotencyTTL)
	if err != nil {
		return RuntimeConfig{}, err
	}
	return RuntimeConfig{SubmitTimeout: submit, IdempotencyTTL: ttl}, nil
}

type Ingress struct {
	queue             chan *Event
	dedup             Deduplicator
	router            Router
	resolver          Resolver
	submitTimeout     time.Duration
	drainTimeout      time.Duration
	drainPollInterval time.Duration
	idempotencyTTL    time.Duration
}

func NewIngress(queueSize int, runtimeCfg RuntimeConfig, dedup Deduplicator) *Ingress {
	if queueSize <= 0 {
		queueSize = config.DefaultIngressQueueSize
	}

	if runtimeCfg.SubmitTimeout <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultIngressSubmitTimeout)
		if err == nil {
			runtimeCfg.SubmitTimeout = d
		}
	}
	if runtimeCfg.DrainTimeout <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultIngressDrainTimeout)
		if err == nil {
			runtimeCfg.DrainTimeout = d
		}
	}
	if runtimeCfg.DrainPollInterval <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultIngressDrainPollInterval)
		if err == nil {
			runtimeCfg.DrainPollInterval = d
		}
	}
	if runtimeCfg.IdempotencyTTL <= 0 {
		d, err := config.DurationOrDefault("", config.DefaultIngressIdempotencyTTL)
		if err == nil {
			runtimeCfg.IdempotencyTTL = d
		}
	}

	return &Ingress{
		queue:             make(chan *Event, queueSize),
		dedup:             dedup,
		router:            NewStandardRouter(),
		resolver:          NewStandardResolver(),
		submitTimeout:     runtimeCfg.SubmitTimeout,
		drainTimeout:      runtimeCfg.DrainTimeout,
		drainPollInterval: runtimeCfg.DrainPollInterval,
		idempotencyTTL:    runtimeCfg.IdempotencyTTL,
	}
}

// Router exposes the router so callers can register commands.
func (i *Ingress) Router() *StandardRouter {
	r, _ := i.router.(*StandardRouter)
	return r
}

// Accept deduplicates, routes and resolves evt without queueing it.
// It reports whether the event should reach the conversation.
func (i *Ingress) Accept(ctx context.Context, evt *Event) (bool, error) {
	if evt == nil {
		return false, bberrors.InvalidInput("event is nil")
	}
	if i.dedup == nil {
		return false, bberrors.Internal("deduplicator not initialized")
	}

	slog.Debug("Ingress received event", "id", evt.ID, "type", evt.Type, "source", evt.Source)

	key := GenerateIdempotencyKey(evt.Source, evt.ChannelID, evt.ID)
	if i.dedup.CheckAndMark(key, i.idempotencyTTL) {
		slog.Warn("Duplicate event detected", "source", evt.Source, "channel", evt.ChannelID, "id", evt.ID)
		return false, bberrors.ErrDuplicateEvent
	}

	dest := i.router.Route(ctx, evt)
	switch dest.Type {
	case DestDrop:
		slog.Info("Event dropped by router", "id", evt.ID)
		return false, nil
	case DestCommand:
		slog.Info("Handling as command", "id", evt.ID)
		if dest.Handler != nil {
			return false, dest.Handler(ctx, evt)
		}
		return false, nil
	case DestPipeline:
	default:
		return false, bberrors.InvalidInput("unknown destination type")
	}

	sess, err := i.resolver.ResolveSession(ctx, evt)
	if err != nil {
		return false, bberrors.Wrap(err, "session resolution failed")
	}
	evt.SessionID = sess
	return true, nil
}

// Submit ingests an event and queues it for the workers.
// It returns an error if the queue is full (backpressure) or if it's a duplicate.
func (i *Ingress) Submit(ctx context.Context, evt *Event) error {
	ok, err := i.Accept(ctx, evt)
	if err != nil || !ok {
		return err
	}

	select {
	case i.queue <- evt:
		slog.Debug("Event queued", "id", evt.ID, "session", evt.SessionID)
		return nil
	case <-time.After(i.submitTimeout):
		slog.Warn("Queue full, dropping event", "id", evt.ID)
		return bberrors.ErrTransient
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Ingress) Queue() <-chan *Event {
	return i.queue
}

// Close drains what it can within the drain timeout and closes the queue.
func (i *Ingress) Close() error {
	slog.Info("Ingress shutting down, draining queue")

	drainStart := time.Now()
	remaining := len(i.queue)
	for remaining > 0 && time.Since(drainStart) < i.drainTimeout {
		time.Sleep(i.drainPollInterval)
		current := len(i.queue)
		if current == remaining {
			slog.Warn("Queue drain stalled", "remaining", remaining)
			break
		}
		remaining = current
	}
	if remaining > 0 {
		slog.Warn("Queue drain incomplete", "remaining", remaining)
	}

	close(i.queue)
	slog.Info("Ingress shutdown complete")
	return nil
}

func (i *Ingress) Health(ctx context.Context) error {
	if i.queue == nil {
		return bberrors.Internal("queue not initialized")
	}

	usage := float64(len(i.queue)) / float64(cap(i.queue))
	slog.Debug("Ingress health metrics",
		"queue_len", len(i.queue),
		"queue_cap", cap(i.queue),
		"usage", usage,
	)

	if usage > 0.9 {
		return bberrors.Transient("queue nearly full")
	}
	if i.router == nil || i.resolver == nil {
		return bberrors.Internal("router not initialized")
	}
	return nil
}
