package ingress

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	TypeUserMessage EventType = "user_message"
	TypeCommand     EventType = "command" // Slash command
)

// Metadata keys set by adapters.
const (
	MetaMessageID = "message_id"
	MetaUserID    = "user_id"
	MetaUserName  = "user_name"
)

// Event is the normalized form of an incoming chat message.
type Event struct {
	// Identity
	ID     string `json:"id"`     // ULID or platform message ID
	Source string `json:"source"` // "slack", "telegram", "cli", "web"

	// Routing
	ChannelID string `json:"channel_id"` // platform address replies go to
	SessionID string `json:"session_id"` // conversation key, unique across sources

	Type EventType `json:"type"`

	Content string `json:"content"`

	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewEvent creates a normalized event. A platform message ID in metadata
// becomes the event ID so redeliveries share it.
func NewEvent(source string, eventType EventType, channelID, content string, metadata map[string]string) Event {
	id := metadata[MetaMessageID]
	if id == "" {
		id = ulid.Make().String()
	}
	return Event{
		ID:        id,
		Source:    source,
		Type:      eventType,
		ChannelID: channelID,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

// GenerateIdempotencyKey creates a deterministic key for the event. Message
// IDs are only unique per chat on some platforms, and web clients pick
// their own, so the channel is part of the key.
func GenerateIdempotencyKey(source, channelID, externalID string) string {
	return HashKey(fmt.Sprintf("%s:%s:%s", source, channelID, externalID))
}

// HashKey returns a SHA256 hash of the idempotency key for storage.
func HashKey(key string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
