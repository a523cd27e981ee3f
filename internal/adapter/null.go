package adapter

import "context"

// NullAdapter discards replies. The web chat source uses it since
// HTTP replies are written synchronously.
type NullAdapter struct {
	name string
}

func NewNullAdapter(name string) *NullAdapter {
	if name == "" {
		name = "null"
	}
	return &NullAdapter{name: name}
}

func (a *NullAdapter) Name() string {
	return a.name
}

func (a *NullAdapter) Send(ctx context.Context, channelID string, content string) error {
	return nil
}

func (a *NullAdapter) Health(ctx context.Context) error {
	return nil
}
