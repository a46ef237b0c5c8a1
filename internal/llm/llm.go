package llm

import (
	"context"
	"errors"
)

// Chat roles understood by providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client abstracts LLM providers for the assistant.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider key is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, messages []Message) (string, error) {
	_ = ctx
	_ = messages
	return "", ErrNotImplemented
}

// StaticClient returns a fixed reply; handy for local demos and tests.
type StaticClient struct {
	Reply string
	Err   error
	Calls [][]Message
}

// Complete records the request and returns the configured reply.
func (s *StaticClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.Calls = append(s.Calls, messages)
	return s.Reply, s.Err
}
