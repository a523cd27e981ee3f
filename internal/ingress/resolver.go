package ingress

import (
	"context"
	"fmt"
	"strings"
)

type Resolver interface {
	ResolveSession(ctx context.Context, event *Event) (string, error)
}

// StandardResolver keys conversations by source and channel so the same
// chat ID on two platforms never shares state.
type StandardResolver struct{}

func NewStandardResolver() *StandardResolver {
	return &StandardResolver{}
}

func (r *StandardResolver) ResolveSession(ctx context.Context, event *Event) (string, error) {
	if event == nil {
		return "", fmt.Errorf("event is nil")
	}

	if event.Metadata == nil {
		event.Metadata = make(map[string]string)
	}
	if _, ok := event.Metadata["source"]; !ok {
		event.Metadata["source"] = event.Source
	}

	if event.SessionID != "" {
		return event.SessionID, nil
	}

	address := strings.TrimSpace(event.ChannelID)
	if address == "" {
		address = strings.TrimSpace(event.Metadata[MetaUserID])
	}
	if address == "" {
		return "", fmt.Errorf("event %s has no channel or user id", event.ID)
	}
	if event.ChannelID == "" {
		event.ChannelID = address
	}

	return event.Source + ":" + address, nil
}
