// Package llm wraps the text generation providers behind one interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoGenerator is returned when no provider can be constructed.
var ErrNoGenerator = errors.New("no generator configured")

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prompt message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// APIStyle selects the request shape a model expects.
type APIStyle string

const (
	// StyleChat sends role-tagged chat messages.
	StyleChat APIStyle = "chat"

	// StyleInput sends one input made of typed content parts.
	StyleInput APIStyle = "input"
)

// Options control a single generation call.
type Options struct {
	Model         string
	FallbackModel string
	Timeout       time.Duration
	MaxTokens     int
	Style         APIStyle
}

// Response is a completed generation.
type Response struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	UsedFallback bool   `json:"used_fallback"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, messages []Message, opts Options) (*Response, error)
}

// APIError is a provider error with its HTTP status.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// splitSystem separates system messages from the conversation.
func splitSystem(messages []Message) (system string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
