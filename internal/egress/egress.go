package egress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harunnryd/bookbot/internal/adapter"
	"github.com/harunnryd/bookbot/internal/config"
	bberrors "github.com/harunnryd/bookbot/internal/errors"
)

type Egress interface {
	// Register registers an output adapter
	Register(adapter adapter.OutputAdapter) error

	// Unregister removes an output adapter
	Unregister(name string) error

	// Send delivers content to channelID through the adapter named source,
	// split into chunks the platform accepts.
	Send(ctx context.Context, source, channelID, content string) error

	// Health checks egress health and all registered adapters
	Health(ctx context.Context) error

	// ListAdapters returns all registered adapters
	ListAdapters() []adapter.OutputAdapter
}

type DefaultEgress struct {
	mu       sync.RWMutex
	adapters map[string]adapter.OutputAdapter
	maxChars int
}

func NewEgress(maxChars int) Egress {
	if maxChars <= 0 {
		maxChars = config.DefaultMaxMessageChars
	}
	return &DefaultEgress{
		adapters: make(map[string]adapter.OutputAdapter),
		maxChars: maxChars,
	}
}

func (e *DefaultEgress) Register(adapter adapter.OutputAdapter) error {
	if adapter == nil {
		return bberrors.InvalidInput("adapter cannot be nil")
	}

	name := adapter.Name()
	if name == "" {
		return bberrors.InvalidInput("adapter name cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.adapters[name]; exists {
		return bberrors.ErrConflict
	}

	e.adapters[name] = adapter
	slog.Info("Egress adapter registered", "name", name)
	return nil
}

func (e *DefaultEgress) Unregister(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.adapters[name]; !exists {
		return bberrors.NotFound("adapter not found: " + name)
	}

	delete(e.adapters, name)
	slog.Info("Egress adapter unregistered", "name", name)
	return nil
}

func (e *DefaultEgress) Send(ctx context.Context, source, channelID, content string) error {
	if source == "" {
		return bberrors.InvalidInput("reply source missing")
	}

	out, err := e.getAdapter(source)
	if err != nil {
		return err
	}

	chunks := Split(content, e.maxChars)
	for i, chunk := range chunks {
		if err := out.Send(ctx, channelID, chunk); err != nil {
			return bberrors.Wrap(err, fmt.Sprintf("failed to send reply part %d/%d", i+1, len(chunks)))
		}
	}

	slog.Debug("Reply sent", "channel", channelID, "source", source, "content_length", len(content), "parts", len(chunks))
	return nil
}

func (e *DefaultEgress) getAdapter(name string) (adapter.OutputAdapter, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out, ok := e.adapters[name]
	if !ok {
		return nil, bberrors.NotFound("no adapter found for source: " + name)
	}
	return out, nil
}

func (e *DefaultEgress) Health(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.adapters) == 0 {
		return bberrors.Internal("no adapters registered")
	}

	var unhealthy []string
	for name, out := range e.adapters {
		if err := out.Health(ctx); err != nil {
			unhealthy = append(unhealthy, name)
			slog.Warn("Adapter unhealthy", "name", name, "error", err)
		}
	}

	if len(unhealthy) > 0 {
		return bberrors.Transient(fmt.Sprintf("%d adapter(s) unhealthy: %v", len(unhealthy), unhealthy))
	}
	return nil
}

func (e *DefaultEgress) ListAdapters() []adapter.OutputAdapter {
	e.mu.RLock()
	defer e.mu.RUnlock()

	adapters := make([]adapter.OutputAdapter, 0, len(e.adapters))
	for _, out := range e.adapters {
		adapters = append(adapters, out)
	}
	return adapters
}
