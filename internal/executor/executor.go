// Package executor turns a routed chat message into an agent reply, either through a
// generative language model or through deterministic tool and canned-answer logic.
package executor

import (
	"context"
	"errors"
)

const (
	StrategyLive     = "live"
	StrategyFallback = "fallback"

	RoleUser      = "user"
	RoleAssistant = "assistant"

	// EmptyReply is returned when the model produced no text.
	EmptyReply = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
)

var (
	ErrEmptyMessage = errors.New("executor: message is empty")
	ErrNoGenerator  = errors.New("executor: no generator configured")
)

// Turn is one line of prior conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Invocation is a single request to an agent.
type Invocation struct {
	AgentID string
	Message string
	History []Turn
	UserID  string
}

// Result is the agent's answer and how it was produced.
type Result struct {
	Text     string `json:"text"`
	AgentID  string `json:"agent_id"`
	Strategy string `json:"strategy"`
	Tool     string `json:"tool,omitempty"`
}

// Executor produces an agent reply.
type Executor interface {
	Invoke(ctx context.Context, inv Invocation) (Result, error)
}
