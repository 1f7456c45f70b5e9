package llm

import (
	"context"
	"errors"
)

// Prompt is one completion request: a system instruction plus the user turn.
type Prompt struct {
	Name   string
	System string
	User   string
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Client abstracts LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not configured")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete returns ErrNotImplemented.
func (PlaceholderClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return "", ErrNotImplemented
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, prompt Prompt) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}
