package executor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

// Factory picks the execution strategy for the process and for individual users.
type Factory struct {
	cfg      utils.LLMConfig
	tools    *tools.Set
	logger   *zap.SugaredLogger
	def      Executor
	gen      Generator
	fallback *Fallback
}

// NewFactory builds the default executor: Live when a generator credential is configured,
// Fallback otherwise. A Gemini client that fails to start degrades to Fallback.
func NewFactory(ctx context.Context, cfg utils.LLMConfig, toolSet *tools.Set, logger *zap.SugaredLogger) *Factory {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	f := &Factory{
		cfg:      cfg,
		tools:    toolSet,
		logger:   logger,
		fallback: NewFallback(toolSet, logger),
	}

	f.def = f.fallback
	if gen, err := f.generatorFor(ctx, cfg.GoogleAPIKey); err != nil {
		logger.Warnw("live generator unavailable, using fallback responses", "error", err)
	} else if gen != nil {
		logger.Infow("live generator configured", "generator", gen.Name())
		f.gen = gen
		f.def = NewLive(gen, toolSet, f.liveOptions(), logger)
	}

	return f
}

// Default returns the process-wide executor.
func (f *Factory) Default() Executor { return f.def }

// Generator returns the process-wide generator, or nil when running on fallback replies.
func (f *Factory) Generator() Generator { return f.gen }

// Strategy names the default executor's strategy.
func (f *Factory) Strategy() string {
	if _, ok := f.def.(*Live); ok {
		return StrategyLive
	}
	return StrategyFallback
}

// ForUser builds the executor for one request. A stored Google key gets a live executor of
// its own; stored market keys are handed to the tools. Without either the process default
// is returned.
func (f *Factory) ForUser(ctx context.Context, keys *models.APIKeys) Executor {
	if keys == nil {
		return f.def
	}
	userTools := f.tools.ForUser(keys)

	if strings.TrimSpace(keys.GoogleAPIKey) != "" {
		gen, err := NewGeminiGenerator(ctx, keys.GoogleAPIKey, f.cfg.GeminiModel)
		if err == nil {
			return NewLive(gen, userTools, f.liveOptions(), f.logger)
		}
		f.logger.Warnw("user gemini key rejected, using default executor", "user_id", keys.UserID, "error", err)
	}

	if userTools == f.tools {
		return f.def
	}
	if f.gen != nil {
		return NewLive(f.gen, userTools, f.liveOptions(), f.logger)
	}
	return NewFallback(userTools, f.logger)
}

func (f *Factory) generatorFor(ctx context.Context, googleKey string) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(f.cfg.Provider))
	hasGoogle := strings.TrimSpace(googleKey) != ""
	hasOpenAI := strings.TrimSpace(f.cfg.APIKey) != ""

	switch {
	case provider == "openai" && hasOpenAI, provider != "gemini" && !hasGoogle && hasOpenAI:
		return NewOpenAIGenerator(f.cfg.BaseURL, f.cfg.APIKey, f.cfg.Model, f.cfg.Timeout, f.logger), nil
	case hasGoogle:
		gen, err := NewGeminiGenerator(ctx, googleKey, f.cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("executor: gemini: %w", err)
		}
		return gen, nil
	default:
		return nil, nil
	}
}

func (f *Factory) liveOptions() LiveOptions {
	return LiveOptions{
		Temperature:      f.cfg.Temperature,
		MaxTokens:        f.cfg.MaxTokens,
		SummaryThreshold: f.cfg.SummaryThreshold,
		RecentKeep:       f.cfg.RecentKeep,
	}
}
