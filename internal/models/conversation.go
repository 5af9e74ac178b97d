package models

import (
	"encoding/json"
	"time"
)

type Conversation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastMessage string    `json:"last_message,omitempty"`
	AgentName   string    `json:"agent_name,omitempty"`
}

// Message is one half of a chat turn. Exactly one of UserMessage and AIResponse is set.
type Message struct {
	ID             string          `json:"id"`
	Seq            int64           `json:"-"`
	ConversationID string          `json:"conversation_id"`
	UserID         string          `json:"user_id"`
	UserMessage    string          `json:"user_message,omitempty"`
	AIResponse     string          `json:"ai_response,omitempty"`
	AgentName      string          `json:"agent_name,omitempty"`
	Context        json.RawMessage `json:"context,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// FromUser reports whether the row holds the user's half of a turn.
func (m Message) FromUser() bool {
	return m.UserMessage != ""
}

// Text returns whichever half of the turn the row carries.
func (m Message) Text() string {
	if m.FromUser() {
		return m.UserMessage
	}
	return m.AIResponse
}
