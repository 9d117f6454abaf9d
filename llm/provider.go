// Package llm provides the language-capability boundary.
//
// The orchestrator treats the model as an opaque collaborator: it is shown
// the conversation history plus the technical tool catalogue and returns
// either prose or a structured invocation request. Each provider
// implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for chat completions.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Chat sends a chat completion request.
	Chat(ctx context.Context, messages []ChatMessage) (Response, error)

	// ChatWithFormat sends a chat completion request with a response format.
	// Providers that cannot enforce the format fall back to plain chat; the
	// caller must still tolerate non-conforming output.
	ChatWithFormat(ctx context.Context, messages []ChatMessage, format *ResponseFormat) (Response, error)
}
