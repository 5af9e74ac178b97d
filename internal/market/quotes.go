package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

const (
	defaultQuoteTTL     = time.Minute
	quoteNumCounters    = 1e5
	quoteMaxCost        = 1 << 20
	quoteBufferItems    = 64
	approxQuoteCostSize = 1
)

// QuoteProvider returns the latest price for a symbol.
type QuoteProvider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
}

// HistoryProvider returns daily closes for a symbol.
type HistoryProvider interface {
	History(ctx context.Context, symbol, rangeParam string) ([]PricePoint, error)
}

// QuoteService tries its providers in order and caches the first answer.
type QuoteService struct {
	providers []QuoteProvider
	history   HistoryProvider
	cache     *ristretto.Cache
	ttl       time.Duration
	logger    *zap.SugaredLogger
	view      bool
}

func NewQuoteService(ttl time.Duration, history HistoryProvider, logger *zap.SugaredLogger, providers ...QuoteProvider) (*QuoteService, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: quoteNumCounters,
		MaxCost:     quoteMaxCost,
		BufferItems: quoteBufferItems,
	})
	if err != nil {
		return nil, fmt.Errorf("market: create quote cache: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultQuoteTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &QuoteService{
		providers: providers,
		history:   history,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// Quote returns a cached quote when fresh, otherwise asks each provider in turn.
func (s *QuoteService) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrSymbolRequired
	}

	if cached, ok := s.cache.Get(symbol); ok {
		if q, ok := cached.(models.Quote); ok {
			return &q, nil
		}
	}

	var errs []error
	for _, p := range s.providers {
		q, err := p.Quote(ctx, symbol)
		if err != nil {
			if !errors.Is(err, ErrNotConfigured) {
				s.logger.Warnw("quote provider failed", "provider", p.Name(), "symbol", symbol, "error", err)
			}
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.cache.SetWithTTL(symbol, *q, approxQuoteCostSize, s.ttl)
		s.cache.Wait()
		return q, nil
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("market: quote %s: %w", symbol, ErrNoData)
	}
	return nil, fmt.Errorf("market: quote %s: %w", symbol, errors.Join(errs...))
}

// History returns daily closes from the history provider.
func (s *QuoteService) History(ctx context.Context, symbol, rangeParam string) ([]PricePoint, error) {
	if s.history == nil {
		return nil, fmt.Errorf("market: history: %w", ErrNotConfigured)
	}
	return s.history.History(ctx, symbol, rangeParam)
}

// WithAlphaVantageKey returns a view whose Alpha Vantage provider authenticates with key.
// The view shares the cache and rate limiter with s; closing it is a no-op.
func (s *QuoteService) WithAlphaVantageKey(key string) *QuoteService {
	key = strings.TrimSpace(key)
	if key == "" {
		return s
	}

	view := *s
	view.view = true
	view.providers = make([]QuoteProvider, len(s.providers))
	for i, p := range s.providers {
		if av, ok := p.(*AlphaVantage); ok {
			p = av.WithAPIKey(key)
		}
		view.providers[i] = p
	}
	return &view
}

func (s *QuoteService) Close() {
	if s.cache != nil && !s.view {
		s.cache.Close()
	}
}

// FormatPrice renders the sentence the price tool answers with.
func FormatPrice(q *models.Quote) string {
	return fmt.Sprintf("The current price of %s is $%.2f", q.Symbol, q.Price)
}
