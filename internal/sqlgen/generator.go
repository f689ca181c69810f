// Package sqlgen translates natural-language data requests into single SQL
// statements via the language oracle.
package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/pkg/metrics"
)

// ErrEmptyStatement is returned when the oracle produces no usable SQL.
var ErrEmptyStatement = errors.New("oracle returned an empty statement")

// Generator asks the completion oracle for exactly one SQL statement per
// description. Sampling is pinned to temperature 0 for reproducibility.
type Generator struct {
	client llm.CompletionClient
	model  string
}

// New creates a generator bound to a completion backend and model.
func New(client llm.CompletionClient, model string) *Generator {
	return &Generator{
		client: client,
		model:  model,
	}
}

// Generate produces one SQL statement for the given description.
func (g *Generator) Generate(ctx context.Context, description string) (string, error) {
	req := &llm.CompletionRequest{
		Model:       g.model,
		Messages:    g.buildMessages(description),
		Temperature: 0,
	}

	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		metrics.SQLGenerationsTotal.WithLabelValues(g.client.Name(), "error").Inc()
		return "", fmt.Errorf("generate sql: %w", err)
	}

	sql := StripCodeFences(strings.TrimSpace(resp.Content))
	if sql == "" {
		metrics.SQLGenerationsTotal.WithLabelValues(g.client.Name(), "error").Inc()
		return "", fmt.Errorf("generate sql: %w", ErrEmptyStatement)
	}

	metrics.SQLGenerationsTotal.WithLabelValues(g.client.Name(), "success").Inc()
	return sql, nil
}

// buildMessages assembles the prompt. Reasoning models that reject system
// prompts get the instructions folded into the user turn.
func (g *Generator) buildMessages(description string) []llm.ChatMessage {
	userPrompt := fmt.Sprintf("Generate a read-only SQL query for: '%s'", description)

	if strings.HasPrefix(g.model, "o1") {
		return []llm.ChatMessage{
			{Role: "user", Content: strings.TrimSpace(systemPrompt) + "   " + userPrompt},
		}
	}

	return []llm.ChatMessage{
		{Role: "system", Content: strings.TrimSpace(systemPrompt)},
		{Role: "user", Content: userPrompt},
	}
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, from the oracle output.
func StripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop a language tag occupying the rest of the fence line.
		firstLine := strings.TrimSpace(s[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, " \t") {
			s = s[idx+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "sql")
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
