// Package llm provides oracle client interfaces and implementations.
//
// Two surfaces are exposed: CompletionClient for plain text generation
// (SQL generation) and AssistantClient for the thread/run/file API that
// drives the conversational orchestration.
package llm

import (
	"context"
	"fmt"
)

// ChatMessage represents a chat message for the completion surface.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float32
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// CompletionClient is the interface for text-generation providers.
type CompletionClient interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of completion provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewCompletionClient creates a completion client for the given provider.
func NewCompletionClient(provider Provider, apiKey string) (CompletionClient, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", provider)
	}
}
