package driven

import "context"

// LLMService provides chat-completion generation for answer synthesis.
//
// Implementations must support a deterministic mode (temperature 0 with
// nucleus sampling disabled) so that identical questions over identical
// stored context produce identical answers.
type LLMService interface {
	// Chat sends a conversation and returns the assistant's reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures generation behaviour.
type ChatOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopP is the nucleus sampling parameter. 1.0 disables nucleus
	// sampling, which is required for reproducible answers.
	TopP float64

	// MaxTokens caps the reply length. Zero means the model default.
	MaxTokens int
}
