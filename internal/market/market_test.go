package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

func TestAlphaVantageQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "IBM", r.URL.Query().Get("symbol"))
		assert.Equal(t, "demo", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Global Quote":{"01. symbol":"IBM","05. price":"182.5000","09. change":"1.2500","10. change percent":"0.6897%"}}`))
	}))
	defer srv.Close()

	av := NewAlphaVantage(srv.URL, "demo", 0, nil)
	q, err := av.Quote(context.Background(), " ibm ")
	require.NoError(t, err)
	assert.Equal(t, "IBM", q.Symbol)
	assert.InDelta(t, 182.5, q.Price, 1e-9)
	assert.InDelta(t, 1.25, q.Change, 1e-9)
	assert.InDelta(t, 0.6897, q.ChangePercent, 1e-9)
	assert.Equal(t, "alphavantage", q.Source)
	assert.Equal(t, "The current price of IBM is $182.50", FormatPrice(q))
}

func TestAlphaVantageRateLimitNotice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Note":"Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`))
	}))
	defer srv.Close()

	_, err := NewAlphaVantage(srv.URL, "demo", 0, nil).Quote(context.Background(), "IBM")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "call frequency")
}

func TestAlphaVantageRequiresKey(t *testing.T) {
	_, err := NewAlphaVantage("", "", 5, nil).Quote(context.Background(), "IBM")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestYahooQuoteAndHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","regularMarketPrice":200,"chartPreviousClose":190},
			"timestamp":[1700000000,1700086400,1700172800],
			"indicators":{"quote":[{"close":[190.0,null,200.0]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYahoo(srv.URL)

	q, err := y.Quote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.InDelta(t, 200.0, q.Price, 1e-9)
	assert.InDelta(t, 10.0, q.Change, 1e-9)
	assert.Equal(t, "USD", q.Currency)

	points, err := y.History(context.Background(), "AAPL", "")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 200.0, points[1].Close, 1e-9)
}

func TestYahooUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahoo(srv.URL).Quote(context.Background(), "ZZZZ")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

type stubProvider struct {
	name  string
	quote *models.Quote
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Quote(context.Context, string) (*models.Quote, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	q := *s.quote
	return &q, nil
}

func TestQuoteServiceFallsBackAndCaches(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("down")}
	secondary := &stubProvider{name: "secondary", quote: &models.Quote{Symbol: "MSFT", Price: 410}}

	svc, err := NewQuoteService(time.Minute, nil, nil, primary, secondary)
	require.NoError(t, err)
	defer svc.Close()

	q, err := svc.Quote(context.Background(), "msft")
	require.NoError(t, err)
	assert.InDelta(t, 410.0, q.Price, 1e-9)

	_, err = svc.Quote(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), secondary.calls.Load())
}

func TestQuoteServiceAllProvidersFail(t *testing.T) {
	svc, err := NewQuoteService(time.Minute, nil, nil, &stubProvider{name: "a", err: ErrNoData})
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Quote(context.Background(), "XYZ")
	require.ErrorIs(t, err, ErrNoData)

	_, err = svc.History(context.Background(), "XYZ", "1mo")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestLooksLikeTicker(t *testing.T) {
	cases := map[string]bool{
		"AAPL":          true,
		"BRK.B":         true,
		"T":             true,
		"aapl":          false,
		"GOOGLE":        false,
		"market update": false,
		"":              false,
	}
	for in, want := range cases {
		assert.Equal(t, want, LooksLikeTicker(in), in)
	}
}

func newsServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "secret", r.Header.Get("x-rapidapi-key"))
		switch r.URL.Path {
		case "/stock-news":
			assert.Equal(t, "TSLA", r.URL.Query().Get("symbol"))
		case "/market-trends":
			assert.NotEmpty(t, r.URL.Query().Get("trend_type"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"OK","data":{"news":[
			{"article_title":"One","article_url":"https://x/1","source":"Reuters","post_time_utc":"2024-01-12 15:30:00"},
			{"article_title":"Two","article_url":"https://x/2","source":"CNBC","post_time_utc":"2024-01-12 14:30:00"},
			{"article_title":"Three","article_url":"https://x/3","source":"WSJ","post_time_utc":""},
			{"article_title":"Four","article_url":"https://x/4","source":"FT","post_time_utc":""},
			{"article_title":"Five","article_url":"https://x/5","source":"AP","post_time_utc":""},
			{"article_title":"Six","article_url":"https://x/6","source":"BBC","post_time_utc":""}]}}`))
	}))
}

func TestNewsClientSearch(t *testing.T) {
	var hits atomic.Int32
	srv := newsServer(t, &hits)
	defer srv.Close()

	client := NewNewsClient("", "secret")
	client.baseURL = srv.URL

	articles, err := client.Search(context.Background(), "TSLA")
	require.NoError(t, err)
	require.Len(t, articles, MaxArticles)
	assert.Equal(t, "TSLA", articles[0].Ticker)
	assert.Equal(t, 2024, articles[0].PublishedAt.Year())

	articles, err = client.Search(context.Background(), "what is moving the market")
	require.NoError(t, err)
	assert.Len(t, articles, MaxArticles)
	assert.Empty(t, articles[0].Ticker)

	text := FormatArticles(articles)
	assert.Contains(t, text, "1. One (Reuters) - https://x/1")
	assert.NotContains(t, text, "Six")
}

func TestNewsClientWithoutKey(t *testing.T) {
	_, err := NewNewsClient("", "").Search(context.Background(), "TSLA")
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "No recent news articles were found.", FormatArticles(nil))
}

func TestNewsServiceCaches(t *testing.T) {
	var hits atomic.Int32
	srv := newsServer(t, &hits)
	defer srv.Close()

	client := NewNewsClient("", "secret")
	client.baseURL = srv.URL
	svc := NewNewsService(client, NewMemoryNewsCache(time.Minute))

	for i := 0; i < 3; i++ {
		_, err := svc.Stock(context.Background(), "tsla")
		require.NoError(t, err)
	}
	_, err := svc.Latest(context.Background())
	require.NoError(t, err)
	_, err = svc.Trending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(3), hits.Load())
}

func TestAPIErrorSnippetKeepsRunesWhole(t *testing.T) {
	body := []byte(strings.Repeat("é", 300))

	err := buildAPIError("yahoo", http.StatusBadGateway, body)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, utf8.ValidString(apiErr.Message))
	assert.Equal(t, 256, utf8.RuneCountInString(apiErr.Message))
}

func TestQuoteServiceWithAlphaVantageKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"Global Quote":{"01. symbol":"IBM","05. price":"182.5000"}}`))
	}))
	defer srv.Close()

	down := &stubProvider{name: "yahoo", err: errors.New("down")}
	svc, err := NewQuoteService(time.Minute, nil, nil, down, NewAlphaVantage(srv.URL, "", 0, nil))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Quote(context.Background(), "IBM")
	require.ErrorIs(t, err, ErrNotConfigured)

	assert.Same(t, svc, svc.WithAlphaVantageKey("  "))

	user := svc.WithAlphaVantageKey("user-key")
	q, err := user.Quote(context.Background(), "IBM")
	require.NoError(t, err)
	assert.InDelta(t, 182.5, q.Price, 1e-9)
	user.Close()

	// the view shares the cache, which is still open
	q, err = svc.Quote(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Equal(t, "alphavantage", q.Source)
}

func TestNewsServiceWithRapidAPIKey(t *testing.T) {
	var hits atomic.Int32
	srv := newsServer(t, &hits)
	defer srv.Close()

	client := NewNewsClient("", "")
	client.baseURL = srv.URL
	svc := NewNewsService(client, NewMemoryNewsCache(time.Minute))

	_, err := svc.Stock(context.Background(), "TSLA")
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Same(t, svc, svc.WithRapidAPIKey(""))

	articles, err := svc.WithRapidAPIKey("secret").Stock(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Len(t, articles, MaxArticles)
	assert.Equal(t, int32(1), hits.Load())
}
