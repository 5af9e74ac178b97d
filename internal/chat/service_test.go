package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/executor"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store/memory"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

type executorFunc func(ctx context.Context, inv executor.Invocation) (executor.Result, error)

func (f executorFunc) Invoke(ctx context.Context, inv executor.Invocation) (executor.Result, error) {
	return f(ctx, inv)
}

type staticSource struct {
	exec executor.Executor
	keys *models.APIKeys
}

func (s *staticSource) ForUser(_ context.Context, keys *models.APIKeys) executor.Executor {
	s.keys = keys
	return s.exec
}

func fallbackService(t *testing.T, st *memory.Store) *Service {
	t.Helper()
	factory := executor.NewFactory(context.Background(), utils.LLMConfig{}, tools.NewSet(tools.Deps{}), nil)
	require.Equal(t, executor.StrategyFallback, factory.Strategy())
	return NewService(st, st, nil, factory, 0, nil)
}

func TestInvestScenarioCreatesConversation(t *testing.T) {
	st := memory.New()
	svc := fallbackService(t, st)
	ctx := context.Background()

	reply, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "How should I invest my money?"})
	require.NoError(t, err)

	assert.Equal(t, agents.PortfolioManager, reply.AgentName)
	assert.Equal(t, agents.Get(agents.PortfolioManager).DisplayName, reply.AgentDisplayName)
	assert.NotEmpty(t, reply.AgentIcon)
	assert.NotEmpty(t, reply.AgentColor)
	assert.Equal(t, executor.CannedReply(agents.PortfolioManager), reply.Message)
	assert.Equal(t, "How should I invest my money?", reply.ConversationTitle)
	assert.Equal(t, executor.StrategyFallback, reply.Strategy)
	assert.False(t, reply.CreatedAt.IsZero())

	msgs, err := st.ListMessages(ctx, reply.ConversationID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "How should I invest my money?", msgs[0].UserMessage)
	assert.Equal(t, reply.Message, msgs[1].AIResponse)
	assert.Equal(t, agents.PortfolioManager, msgs[1].AgentName)

	again, err := svc.Handle(ctx, Request{UserID: "user-1", ConversationID: reply.ConversationID, Message: "How should I invest my money?"})
	require.NoError(t, err)
	assert.Equal(t, reply.Message, again.Message)
	assert.Empty(t, again.ConversationTitle)
}

func TestLongMessageTitleIsTruncated(t *testing.T) {
	st := memory.New()
	svc := fallbackService(t, st)

	msg := strings.Repeat("budget ", 20)
	reply, err := svc.Handle(context.Background(), Request{UserID: "user-1", Message: msg})
	require.NoError(t, err)
	assert.Len(t, []rune(reply.ConversationTitle), 50)
	assert.True(t, strings.HasSuffix(reply.ConversationTitle, "..."))
}

func TestHistoryIsReplayedInOrder(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	var seen []executor.Turn
	source := &staticSource{exec: executorFunc(func(_ context.Context, inv executor.Invocation) (executor.Result, error) {
		seen = inv.History
		return executor.Result{Text: "reply to " + inv.Message, AgentID: inv.AgentID, Strategy: executor.StrategyLive}, nil
	})}
	svc := NewService(st, st, nil, source, 0, nil)

	first, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "hello"})
	require.NoError(t, err)
	assert.Empty(t, seen)

	_, err = svc.Handle(ctx, Request{UserID: "user-1", ConversationID: first.ConversationID, Message: "and then?"})
	require.NoError(t, err)
	require.Len(t, seen, 2)
	assert.Equal(t, executor.Turn{Role: executor.RoleUser, Content: "hello"}, seen[0])
	assert.Equal(t, executor.Turn{Role: executor.RoleAssistant, Content: "reply to hello"}, seen[1])
}

func TestHistoryWindowIsBounded(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	var seen int
	source := &staticSource{exec: executorFunc(func(_ context.Context, inv executor.Invocation) (executor.Result, error) {
		seen = len(inv.History)
		return executor.Result{Text: "ok"}, nil
	})}
	svc := NewService(st, st, nil, source, 0, nil)

	reply, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "start"})
	require.NoError(t, err)
	for i := 0; i < 15; i++ {
		_, err := svc.Handle(ctx, Request{UserID: "user-1", ConversationID: reply.ConversationID, Message: "next"})
		require.NoError(t, err)
	}
	assert.Equal(t, store.HistoryWindow, seen)
}

func TestExecutorErrorBecomesErrorAgentReply(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	source := &staticSource{exec: executorFunc(func(context.Context, executor.Invocation) (executor.Result, error) {
		return executor.Result{}, errors.New("upstream unavailable")
	})}
	svc := NewService(st, st, nil, source, 0, nil)

	reply, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "What is the market doing?"})
	require.NoError(t, err)
	assert.Equal(t, agents.ErrorID, reply.AgentName)
	assert.Equal(t, agents.Get(agents.ErrorID).DisplayName, reply.AgentDisplayName)
	assert.Contains(t, reply.Message, "upstream unavailable")

	msgs, err := st.ListMessages(ctx, reply.ConversationID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, agents.ErrorID, msgs[1].AgentName)
}

func TestUserKeysArePassedToExecutorSource(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.SaveAPIKeys(ctx, &models.APIKeys{UserID: "user-1", GoogleAPIKey: "g-key"}))

	source := &staticSource{exec: executorFunc(func(context.Context, executor.Invocation) (executor.Result, error) {
		return executor.Result{Text: "ok"}, nil
	})}
	svc := NewService(st, st, nil, source, 0, nil)

	_, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "hi"})
	require.NoError(t, err)
	require.NotNil(t, source.keys)
	assert.Equal(t, "g-key", source.keys.GoogleAPIKey)

	_, err = svc.Handle(ctx, Request{UserID: "user-2", Message: "hi"})
	require.NoError(t, err)
	assert.Nil(t, source.keys)
}

func TestValidationAndOwnership(t *testing.T) {
	st := memory.New()
	svc := fallbackService(t, st)
	ctx := context.Background()

	_, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "   "})
	assert.ErrorIs(t, err, ErrMessageRequired)

	_, err = svc.Handle(ctx, Request{Message: "hello"})
	assert.ErrorIs(t, err, ErrUserRequired)

	reply, err := svc.Handle(ctx, Request{UserID: "user-1", Message: "hello"})
	require.NoError(t, err)

	_, err = svc.Handle(ctx, Request{UserID: "intruder", ConversationID: reply.ConversationID, Message: "hello"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	msgs, err := st.ListMessages(ctx, reply.ConversationID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

type failingTurns struct {
	*memory.Store
	err error
}

func (f *failingTurns) AppendTurn(context.Context, *models.Message, *models.Message) error {
	return f.err
}

func TestFailedFirstTurnLeavesNoConversation(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	factory := executor.NewFactory(ctx, utils.LLMConfig{}, tools.NewSet(tools.Deps{}), nil)

	existing, err := NewService(st, st, nil, factory, 0, nil).Handle(ctx, Request{UserID: "user-1", Message: "hello"})
	require.NoError(t, err)

	broken := &failingTurns{Store: st, err: errors.New("disk full")}
	svc := NewService(broken, st, nil, factory, 0, nil)

	_, err = svc.Handle(ctx, Request{UserID: "user-1", Message: "How should I invest my money?"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	convs, err := st.ListConversations(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, existing.ConversationID, convs[0].ID)

	// a failed follow-up keeps the conversation it was appended to
	_, err = svc.Handle(ctx, Request{UserID: "user-1", ConversationID: existing.ConversationID, Message: "and taxes?"})
	require.Error(t, err)
	_, err = st.GetConversation(ctx, existing.ConversationID, "user-1")
	assert.NoError(t, err)
}
