package model

import (
	"context"
	"strings"

	"github.com/harunnryd/bookbot/internal/model/contract"
)

const completerMaxTokens = 256

// Completer exposes a router as a plain system+user completion call.
type Completer struct {
	router ModelRouter
	model  string
}

func NewCompleter(router ModelRouter, model string) *Completer {
	return &Completer{router: router, model: model}
}

func (c *Completer) Complete(ctx context.Context, system, user string) (string, error) {
	var messages []contract.Message
	if system != "" {
		messages = append(messages, contract.Message{Role: contract.RoleSystem, Content: system})
	}
	messages = append(messages, contract.Message{Role: contract.RoleUser, Content: user})

	resp, err := c.router.Route(ctx, c.model, contract.CompletionRequest{
		Messages:  messages,
		MaxTokens: completerMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}
