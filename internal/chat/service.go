// Package chat runs one chat turn end to end: it loads or creates the conversation, replays
// recent history, routes the message to an agent, invokes it, and persists both halves.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/executor"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/router"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

const defaultInvokeTimeout = 60 * time.Second

var (
	ErrMessageRequired = errors.New("chat: message is required")
	ErrUserRequired    = errors.New("chat: user id is required")
)

// ExecutorSource hands out the executor to use for a user. *executor.Factory satisfies it.
type ExecutorSource interface {
	ForUser(ctx context.Context, keys *models.APIKeys) executor.Executor
}

// KeyStore loads the credentials a user saved for themselves.
type KeyStore interface {
	GetAPIKeys(ctx context.Context, userID string) (*models.APIKeys, error)
}

type Request struct {
	UserID         string
	ConversationID string
	Message        string
	Context        json.RawMessage
}

// Reply is the envelope returned to clients for each turn.
type Reply struct {
	Message           string    `json:"message"`
	AgentName         string    `json:"agent_name"`
	AgentDisplayName  string    `json:"agent_display_name"`
	AgentIcon         string    `json:"agent_icon"`
	AgentColor        string    `json:"agent_color"`
	ConversationID    string    `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title,omitempty"`
	CreatedAt         time.Time `json:"created_at"`

	Strategy string `json:"-"`
	Tool     string `json:"-"`
}

type Service struct {
	conversations store.ConversationStore
	keys          KeyStore
	router        *router.Router
	executors     ExecutorSource
	logger        *zap.SugaredLogger
	timeout       time.Duration
}

func NewService(conversations store.ConversationStore, keys KeyStore, r *router.Router, executors ExecutorSource, timeout time.Duration, logger *zap.SugaredLogger) *Service {
	if r == nil {
		r = router.New()
	}
	if timeout <= 0 {
		timeout = defaultInvokeTimeout
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Service{
		conversations: conversations,
		keys:          keys,
		router:        r,
		executors:     executors,
		logger:        logger,
		timeout:       timeout,
	}
}

// Handle runs one turn. Executor failures become an error-agent reply and are still persisted;
// only validation and storage failures are returned as errors.
func (s *Service) Handle(ctx context.Context, req Request) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrUserRequired
	}

	conv, created, err := s.conversation(ctx, req.UserID, req.ConversationID, message)
	if err != nil {
		return nil, err
	}

	history, err := s.history(ctx, conv.ID)
	if err != nil {
		s.discard(ctx, conv, created, req.UserID)
		return nil, err
	}

	agentID := s.router.Route(message)
	result, invokeErr := s.invoke(ctx, req.UserID, executor.Invocation{
		AgentID: agentID,
		Message: message,
		History: history,
		UserID:  req.UserID,
	})

	agent := agents.Get(agentID)
	text := result.Text
	if invokeErr != nil {
		s.logger.Errorw("agent invocation failed", "conversation_id", conv.ID, "agent", agentID, "error", invokeErr)
		agent = agents.Get(agents.ErrorID)
		text = errorReply(invokeErr)
	}

	userMsg := &models.Message{
		ConversationID: conv.ID,
		UserID:         req.UserID,
		UserMessage:    message,
		Context:        req.Context,
	}
	agentMsg := &models.Message{
		ConversationID: conv.ID,
		UserID:         req.UserID,
		AIResponse:     text,
		AgentName:      agent.Name,
	}
	if err := s.conversations.AppendTurn(ctx, userMsg, agentMsg); err != nil {
		s.discard(ctx, conv, created, req.UserID)
		return nil, fmt.Errorf("chat: persist turn: %w", err)
	}

	reply := &Reply{
		Message:          text,
		AgentName:        agent.Name,
		AgentDisplayName: agent.DisplayName,
		AgentIcon:        agent.Icon,
		AgentColor:       agent.Color,
		ConversationID:   conv.ID,
		CreatedAt:        agentMsg.CreatedAt,
		Strategy:         result.Strategy,
		Tool:             result.Tool,
	}
	if created {
		reply.ConversationTitle = conv.Title
	}

	s.logger.Infow("chat turn completed",
		"conversation_id", conv.ID,
		"agent", agent.Name,
		"strategy", result.Strategy,
		"tool", result.Tool,
		"history", len(history),
	)
	return reply, nil
}

// discard removes a conversation created by a turn that then failed, so no empty
// conversation is left behind.
func (s *Service) discard(ctx context.Context, conv *models.Conversation, created bool, userID string) {
	if !created {
		return
	}
	if err := s.conversations.DeleteConversation(context.WithoutCancel(ctx), conv.ID, userID); err != nil {
		s.logger.Warnw("failed to remove conversation after failed turn", "conversation_id", conv.ID, "error", err)
	}
}

func (s *Service) conversation(ctx context.Context, userID, id, message string) (*models.Conversation, bool, error) {
	if id = strings.TrimSpace(id); id != "" {
		conv, err := s.conversations.GetConversation(ctx, id, userID)
		if err != nil {
			return nil, false, fmt.Errorf("chat: load conversation: %w", err)
		}
		return conv, false, nil
	}

	conv, err := s.conversations.CreateConversation(ctx, userID, agents.GenerateConversationTitle(message))
	if err != nil {
		return nil, false, fmt.Errorf("chat: create conversation: %w", err)
	}
	return conv, true, nil
}

func (s *Service) history(ctx context.Context, conversationID string) ([]executor.Turn, error) {
	msgs, err := s.conversations.RecentMessages(ctx, conversationID, store.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("chat: load history: %w", err)
	}

	turns := make([]executor.Turn, 0, len(msgs))
	for _, m := range msgs {
		role := executor.RoleAssistant
		if m.FromUser() {
			role = executor.RoleUser
		}
		turns = append(turns, executor.Turn{Role: role, Content: m.Text()})
	}
	return turns, nil
}

func (s *Service) invoke(ctx context.Context, userID string, inv executor.Invocation) (executor.Result, error) {
	if s.executors == nil {
		return executor.Result{}, executor.ErrNoGenerator
	}

	var keys *models.APIKeys
	if s.keys != nil {
		k, err := s.keys.GetAPIKeys(ctx, userID)
		switch {
		case err == nil:
			keys = k
		case !errors.Is(err, store.ErrNotFound):
			s.logger.Warnw("failed to load user api keys", "user_id", userID, "error", err)
		}
	}

	invokeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.executors.ForUser(invokeCtx, keys).Invoke(invokeCtx, inv)
}

func errorReply(err error) string {
	return fmt.Sprintf("I'm sorry, I ran into a problem while answering: %v. Please try again in a moment.", err)
}
