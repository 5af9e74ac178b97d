package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

const (
	alphaVantageProvider    = "alphavantage"
	defaultAlphaVantageBase = "https://www.alphavantage.co"
)

// AlphaVantage fetches quotes from the GLOBAL_QUOTE endpoint. Calls are throttled to the
// configured requests-per-minute budget because the free tier rejects bursts.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  httpDoer
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewAlphaVantage builds a client. requestsPerMinute <= 0 disables throttling.
func NewAlphaVantage(baseURL, apiKey string, requestsPerMinute int, logger *zap.SugaredLogger) *AlphaVantage {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultAlphaVantageBase
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &AlphaVantage{
		baseURL: base,
		apiKey:  strings.TrimSpace(apiKey),
		client:  newDefaultHTTPClient(),
		limiter: limiter,
		logger:  logger,
	}
}

// WithAPIKey returns a copy that authenticates with key but shares the rate limiter.
func (a *AlphaVantage) WithAPIKey(key string) *AlphaVantage {
	clone := *a
	clone.apiKey = strings.TrimSpace(key)
	return &clone
}

func (a *AlphaVantage) Name() string { return alphaVantageProvider }

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
	ErrorMsg    string            `json:"Error Message"`
}

func (a *AlphaVantage) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrSymbolRequired
	}
	if a.apiKey == "" {
		return nil, ErrNotConfigured
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("alphavantage: rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", a.apiKey)

	var resp globalQuoteResponse
	if err := getJSON(ctx, a.client, alphaVantageProvider, a.baseURL+"/query?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if msg := firstNonEmpty(resp.ErrorMsg, resp.Note, resp.Information); msg != "" {
		a.logger.Warnf("alphavantage: upstream notice for %s: %s", symbol, msg)
		return nil, &APIError{Provider: alphaVantageProvider, StatusCode: 200, Message: msg}
	}

	if len(resp.GlobalQuote) == 0 {
		return nil, fmt.Errorf("alphavantage: %s: %w", symbol, ErrNoData)
	}

	price, err := strconv.ParseFloat(resp.GlobalQuote["05. price"], 64)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: parse price for %s: %w", symbol, err)
	}
	change, _ := strconv.ParseFloat(resp.GlobalQuote["09. change"], 64)
	changePct, _ := strconv.ParseFloat(strings.TrimSuffix(resp.GlobalQuote["10. change percent"], "%"), 64)

	return &models.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Currency:      "USD",
		Source:        alphaVantageProvider,
		FetchedAt:     time.Now().UTC(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
