package adapter

import (
	"context"
)

// Metadata keys attached to incoming messages.
const (
	metaMessageID = "message_id"
	metaUserID    = "user_id"
	metaUserName  = "user_name"
)

// EventHandler receives a message from an adapter.
// channelID is the platform address a reply should go back to.
// It keeps adapters independent of the ingress package.
type EventHandler func(ctx context.Context, source string, channelID string, content string, metadata map[string]string) error

// InputAdapter defines the interface for adapters that receive messages from external platforms
type InputAdapter interface {
	// Name returns the adapter name (e.g. "slack", "telegram", "cli").
	Name() string

	// Start begins listening for events (e.g. starts a server or long-poll).
	// Must respect context cancellation.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the adapter.
	Stop(ctx context.Context) error

	// Health checks if the adapter is healthy and connected.
	Health(ctx context.Context) error
}

// OutputAdapter defines the interface for adapters that send replies to external platforms
type OutputAdapter interface {
	// Name returns the adapter name.
	Name() string

	// Send delivers one reply to channelID (chat ID, channel ID, ...).
	Send(ctx context.Context, channelID string, content string) error

	// Health checks if the adapter is healthy and can send messages.
	Health(ctx context.Context) error
}
