package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
)

// LiveOptions tune prompt construction.
type LiveOptions struct {
	Temperature      float64
	MaxTokens        int
	SummaryThreshold int
	RecentKeep       int
}

// Live asks a Generator for the reply. When the message clearly calls for one of the
// agent's tools, the tool output is handed to the model as grounding data.
type Live struct {
	generator Generator
	tools     *tools.Set
	opts      LiveOptions
	logger    *zap.SugaredLogger
}

func NewLive(generator Generator, toolSet *tools.Set, opts LiveOptions, logger *zap.SugaredLogger) *Live {
	if opts.SummaryThreshold <= 0 {
		opts.SummaryThreshold = defaultSummaryThreshold
	}
	if opts.RecentKeep <= 0 {
		opts.RecentKeep = defaultRecentKeep
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Live{generator: generator, tools: toolSet, opts: opts, logger: logger}
}

func (l *Live) Invoke(ctx context.Context, inv Invocation) (Result, error) {
	message := strings.TrimSpace(inv.Message)
	if message == "" {
		return Result{}, ErrEmptyMessage
	}
	if l.generator == nil {
		return Result{}, ErrNoGenerator
	}

	agent := agents.Get(inv.AgentID)
	summary, history := splitHistory(inv.History, l.opts.SummaryThreshold, l.opts.RecentKeep, agent.DisplayName)

	system := buildSystemPrompt(agent, l.tools)

	result := Result{AgentID: agent.Name, Strategy: StrategyLive}
	if l.tools != nil {
		if intent, ok := tools.DetectIntent(message, agent.Tools); ok {
			out, err := l.tools.Run(ctx, intent.Tool, intent.Input)
			if err != nil {
				l.logger.Warnw("tool failed, continuing without it", "tool", intent.Tool, "agent", agent.Name, "error", err)
			} else {
				result.Tool = intent.Tool
				system += fmt.Sprintf("\n\nResult from the %s tool (use it in your answer):\n%s", intent.Tool, out)
			}
		}
	}

	text, err := l.generator.Generate(ctx, Prompt{
		System:      system,
		Summary:     summary,
		History:     history,
		Message:     message,
		Temperature: l.opts.Temperature,
		MaxTokens:   l.opts.MaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("executor: %s: %w", l.generator.Name(), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = EmptyReply
	}
	result.Text = text

	return result, nil
}

func buildSystemPrompt(agent agents.Definition, toolSet *tools.Set) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(agent.Instructions))
	if toolSet != nil && len(agent.Tools) > 0 {
		if desc := toolSet.Describe(agent.Tools); desc != "" {
			b.WriteString("\n\nTools available:\n")
			b.WriteString(desc)
		}
	}
	b.WriteString("\n\nAnswer in clear paragraphs, use bullet points where they help, and say so when you are not certain about a fact.")
	return b.String()
}
