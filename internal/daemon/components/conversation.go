package components

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harunnryd/bookbot/internal/config"
	"github.com/harunnryd/bookbot/internal/conversation"
	"github.com/harunnryd/bookbot/internal/daemon"
)

// ConversationComponent owns the booking core: calendar, slots, bookings,
// sessions and the intent resolver.
type ConversationComponent struct {
	cfg         *config.Config
	opts        []conversation.StackOption
	stack       *conversation.Stack
	initialized bool
	mu          sync.RWMutex
}

func NewConversationComponent(cfg *config.Config, opts ...conversation.StackOption) *ConversationComponent {
	return &ConversationComponent{cfg: cfg, opts: opts}
}

func (c *ConversationComponent) Name() string {
	return daemon.ComponentConversation
}

func (c *ConversationComponent) Dependencies() []string {
	return []string{}
}

func (c *ConversationComponent) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("Conversation init cancelled: %w", ctx.Err())
	default:
	}

	stack, err := conversation.NewStack(ctx, c.cfg, c.opts...)
	if err != nil {
		return fmt.Errorf("build booking core: %w", err)
	}
	c.stack = stack
	c.initialized = true
	slog.Info("Conversation initialized", "component", c.Name())
	return nil
}

func (c *ConversationComponent) Start(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized {
		return fmt.Errorf("Conversation not initialized")
	}
	return nil
}

func (c *ConversationComponent) Stop(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stack != nil {
		stats := c.stack.Sessions.Stats()
		slog.Info("Conversation stopped", "component", c.Name(), "open_sessions", stats.Total)
	}
	return nil
}

func (c *ConversationComponent) Health(ctx context.Context) (*daemon.ComponentHealth, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.initialized {
		return daemon.Unhealthy(c.Name(), fmt.Errorf("not initialized")), nil
	}
	return daemon.Healthy(c.Name()).With("sessions", c.stack.Engine.Stats().Total), nil
}

func (c *ConversationComponent) Stack() *conversation.Stack {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stack
}
