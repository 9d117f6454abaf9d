// Client - simple wrapper around providers.

package llm

import (
	"context"
)

// Client wraps a Provider with a simple interface.
type Client struct {
	provider Provider
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Chat sends a chat completion request and returns just the content.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	response, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// ChatWithFormat sends a chat completion request with response format
// and returns just the content.
func (c *Client) ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (string, error) {
	response, err := c.provider.ChatWithFormat(ctx, messages, format)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}
