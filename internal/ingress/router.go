package ingress

import (
	"context"
	"strings"
	"sync"

	"github.com/google/shlex"
)

type DestinationType int

const (
	DestPipeline DestinationType = iota // Continue to Resolver -> Queue
	DestCommand                         // Handle as direct command
	DestDrop                            // Drop the event
)

type Destination struct {
	Type    DestinationType
	Handler func(context.Context, *Event) error // For DestCommand
}

// Router determines the destination of an event.
type Router interface {
	Route(ctx context.Context, event *Event) Destination
}

type StandardRouter struct {
	commands map[string]func(context.Context, *Event) error
	mu       sync.RWMutex
}

func NewStandardRouter() *StandardRouter {
	return &StandardRouter{
		commands: make(map[string]func(context.Context, *Event) error),
	}
}

func (r *StandardRouter) Route(ctx context.Context, event *Event) Destination {
	content := strings.TrimSpace(event.Content)
	if content == "" {
		return Destination{Type: DestDrop}
	}
	if !strings.HasPrefix(content, "/") {
		return Destination{Type: DestPipeline}
	}

	parts, err := shlex.Split(content)
	if err != nil || len(parts) == 0 {
		return Destination{Type: DestPipeline}
	}

	r.mu.RLock()
	handler, exists := r.commands[parts[0]]
	r.mu.RUnlock()

	if exists {
		return Destination{
			Type:    DestCommand,
			Handler: handler,
		}
	}

	// The conversation engine answers its own slash commands.
	event.Type = TypeCommand
	return Destination{Type: DestPipeline}
}

func (r *StandardRouter) RegisterCommand(name string, handler func(context.Context, *Event) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = handler
}
