// Package tools implements the actions agents can take on behalf of a user: headline
// search, price lookups, and the portfolio, plan, risk, tax, and chart calculators.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/agents"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

var ErrUnknownTool = errors.New("tools: unknown tool")

// Tool is a single named action.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

// QuoteSource returns the latest price for a symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// NewsSearcher returns headlines for a free-text or ticker query.
type NewsSearcher interface {
	Search(ctx context.Context, query string) ([]models.NewsArticle, error)
}

// Deps are the data sources tools read from. Either source may be nil.
type Deps struct {
	Quotes QuoteSource
	News   NewsSearcher
	Logger *zap.SugaredLogger
}

// keyedQuotes and keyedNews are sources that can authenticate with a user's own API key.
type keyedQuotes interface {
	WithAlphaVantageKey(key string) *market.QuoteService
}

type keyedNews interface {
	WithRapidAPIKey(key string) *market.NewsService
}

// Set is the catalogue of tools keyed by name.
type Set struct {
	deps  Deps
	tools map[string]Tool
}

func NewSet(deps Deps) *Set {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}

	all := []Tool{
		&newsSearch{news: deps.News, logger: deps.Logger},
		&priceCheck{quotes: deps.Quotes, logger: deps.Logger},
		&portfolioAnalyzer{quotes: deps.Quotes},
		&planCreator{},
		&riskAssessor{},
		&chartGenerator{},
		&taxOptimizer{},
	}

	s := &Set{deps: deps, tools: make(map[string]Tool, len(all))}
	for _, t := range all {
		s.tools[t.Name()] = t
	}
	return s
}

// ForUser returns a set whose market tools use the user's stored Alpha Vantage and RapidAPI
// keys. It returns s itself when the user has no keys the sources can take.
func (s *Set) ForUser(keys *models.APIKeys) *Set {
	if s == nil || keys == nil {
		return s
	}

	deps := s.deps
	scoped := false
	if key := strings.TrimSpace(keys.AlphaVantageKey); key != "" {
		if q, ok := deps.Quotes.(keyedQuotes); ok {
			deps.Quotes = q.WithAlphaVantageKey(key)
			scoped = true
		}
	}
	if key := strings.TrimSpace(keys.RapidAPIKey); key != "" {
		if n, ok := deps.News.(keyedNews); ok {
			deps.News = n.WithRapidAPIKey(key)
			scoped = true
		}
	}

	if !scoped {
		return s
	}
	return NewSet(deps)
}

func (s *Set) Get(name string) (Tool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

// Run executes the named tool.
func (s *Set) Run(ctx context.Context, name, input string) (string, error) {
	t, ok := s.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Run(ctx, input)
}

// Describe lists "Name: description" lines for the given tool names, sorted by name.
func (s *Set) Describe(names []string) string {
	lines := make([]string, 0, len(names))
	for _, n := range names {
		if t, ok := s.tools[n]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", t.Name(), t.Description()))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

type newsSearch struct {
	news   NewsSearcher
	logger *zap.SugaredLogger
}

func (t *newsSearch) Name() string { return agents.ToolNewsSearch }

func (t *newsSearch) Description() string {
	return "Searches for recent financial news, market trends, and economic indicators."
}

func (t *newsSearch) Run(ctx context.Context, input string) (string, error) {
	if t.news == nil {
		return "News search is unavailable because no news API key is configured.", nil
	}

	query := strings.TrimSpace(input)
	articles, err := t.news.Search(ctx, query)
	if err != nil {
		if errors.Is(err, market.ErrNotConfigured) {
			return "News search is unavailable because no news API key is configured.", nil
		}
		t.logger.Warnw("news search failed", "query", query, "error", err)
		return fmt.Sprintf("Error fetching news for '%s'. The news service could not be reached, please try again later.", query), nil
	}

	return market.FormatArticles(articles), nil
}

type priceCheck struct {
	quotes QuoteSource
	logger *zap.SugaredLogger
}

func (t *priceCheck) Name() string { return agents.ToolPriceCheck }

func (t *priceCheck) Description() string {
	return "Gets the current stock price for a given ticker symbol."
}

func (t *priceCheck) Run(ctx context.Context, input string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(input), "$")))
	if symbol == "" {
		return "Please tell me which ticker symbol you would like a price for.", nil
	}
	if t.quotes == nil {
		return fmt.Sprintf("Price data is unavailable right now, so I cannot quote %s.", symbol), nil
	}

	q, err := t.quotes.Quote(ctx, symbol)
	if err != nil {
		if errors.Is(err, market.ErrNoData) {
			return fmt.Sprintf("Could not retrieve current price for %s. It might be delisted or an invalid ticker.", symbol), nil
		}
		t.logger.Warnw("price check failed", "symbol", symbol, "error", err)
		return fmt.Sprintf("Error fetching stock price for %s. Please ensure the ticker is correct and try again.", symbol), nil
	}

	return market.FormatPrice(q), nil
}
