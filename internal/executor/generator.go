package executor

import "context"

// Prompt is everything a generator needs for one completion.
type Prompt struct {
	System      string
	Summary     string
	History     []Turn
	Message     string
	Temperature float64
	MaxTokens   int
}

// Generator produces text from a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
