package market

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

const (
	yahooProvider    = "yahoo"
	defaultYahooBase = "https://query1.finance.yahoo.com"
)

// PricePoint is one close in a price history.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Yahoo reads the public v8 chart endpoint, which serves both the latest price and a
// daily close history.
type Yahoo struct {
	baseURL string
	client  httpDoer
}

func NewYahoo(baseURL string) *Yahoo {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultYahooBase
	}
	return &Yahoo{baseURL: base, client: newDefaultHTTPClient()}
}

func (y *Yahoo) Name() string { return yahooProvider }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) chart(ctx context.Context, symbol, rangeParam, interval string) (*yahooChartResponse, error) {
	params := url.Values{}
	params.Set("range", rangeParam)
	params.Set("interval", interval)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), params.Encode())
	headers := map[string]string{"User-Agent": "Mozilla/5.0 (compatible; finance-advisor/1.0)"}

	var resp yahooChartResponse
	if err := getJSON(ctx, y.client, yahooProvider, endpoint, headers, &resp); err != nil {
		return nil, err
	}

	if resp.Chart.Error != nil && resp.Chart.Error.Description != "" {
		return nil, &APIError{Provider: yahooProvider, StatusCode: 200, Message: resp.Chart.Error.Description}
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, ErrNoData)
	}

	return &resp, nil
}

func (y *Yahoo) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrSymbolRequired
	}

	resp, err := y.chart(ctx, symbol, "1d", "1d")
	if err != nil {
		return nil, err
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, ErrNoData)
	}

	prev := meta.ChartPreviousClose
	if prev <= 0 {
		prev = meta.PreviousClose
	}

	quote := &models.Quote{
		Symbol:    symbol,
		Price:     meta.RegularMarketPrice,
		Currency:  meta.Currency,
		Source:    yahooProvider,
		FetchedAt: time.Now().UTC(),
	}
	if prev > 0 {
		quote.Change = meta.RegularMarketPrice - prev
		quote.ChangePercent = quote.Change / prev * 100
	}

	return quote, nil
}

// History returns daily closes over rangeParam (for example "1mo", "6mo", "1y").
func (y *Yahoo) History(ctx context.Context, symbol, rangeParam string) ([]PricePoint, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrSymbolRequired
	}
	if strings.TrimSpace(rangeParam) == "" {
		rangeParam = "1mo"
	}

	resp, err := y.chart(ctx, symbol, rangeParam, "1d")
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %s history: %w", symbol, ErrNoData)
	}

	closes := result.Indicators.Quote[0].Close
	points := make([]PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, PricePoint{Date: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo: %s history: %w", symbol, ErrNoData)
	}

	return points, nil
}
