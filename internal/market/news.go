package market

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

const (
	rapidAPIProvider    = "rapidapi"
	defaultRapidAPIHost = "real-time-finance-data.p.rapidapi.com"

	// MaxArticles caps every news answer.
	MaxArticles = 5

	TrendMostActive    = "MOST_ACTIVE"
	TrendMarketIndexes = "MARKET_INDEXES"
)

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,4}$`)

// LooksLikeTicker reports whether query is an upper-case symbol of at most five characters.
func LooksLikeTicker(query string) bool {
	q := strings.TrimSpace(query)
	return len(q) <= 5 && tickerPattern.MatchString(q)
}

// NewsClient reads headlines from the real-time-finance-data API on RapidAPI.
type NewsClient struct {
	baseURL string
	host    string
	apiKey  string
	client  httpDoer
}

func NewNewsClient(host, apiKey string) *NewsClient {
	h := strings.TrimSpace(host)
	if h == "" {
		h = defaultRapidAPIHost
	}
	return &NewsClient{
		baseURL: "https://" + h,
		host:    h,
		apiKey:  strings.TrimSpace(apiKey),
		client:  newDefaultHTTPClient(),
	}
}

// WithAPIKey returns a copy authenticating with key.
func (n *NewsClient) WithAPIKey(key string) *NewsClient {
	clone := *n
	clone.apiKey = strings.TrimSpace(key)
	return &clone
}

// Configured reports whether an API key is present.
func (n *NewsClient) Configured() bool { return n != nil && n.apiKey != "" }

type rapidNewsResponse struct {
	Status string `json:"status"`
	Data   struct {
		News []struct {
			Title    string `json:"article_title"`
			URL      string `json:"article_url"`
			Source   string `json:"source"`
			PostTime string `json:"post_time_utc"`
		} `json:"news"`
	} `json:"data"`
}

// StockNews returns headlines for one ticker.
func (n *NewsClient) StockNews(ctx context.Context, ticker string) ([]models.NewsArticle, error) {
	ticker = normalizeSymbol(ticker)
	if ticker == "" {
		return nil, ErrSymbolRequired
	}

	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("language", "en")

	return n.fetch(ctx, "/stock-news", params, ticker)
}

// MarketTrends returns the headlines attached to a market trend listing.
func (n *NewsClient) MarketTrends(ctx context.Context, trendType string) ([]models.NewsArticle, error) {
	if strings.TrimSpace(trendType) == "" {
		trendType = TrendMostActive
	}

	params := url.Values{}
	params.Set("trend_type", trendType)
	params.Set("country", "us")
	params.Set("language", "en")

	return n.fetch(ctx, "/market-trends", params, "")
}

// Search picks stock news for ticker-looking queries and market trends otherwise.
func (n *NewsClient) Search(ctx context.Context, query string) ([]models.NewsArticle, error) {
	if LooksLikeTicker(query) {
		return n.StockNews(ctx, query)
	}
	return n.MarketTrends(ctx, TrendMostActive)
}

func (n *NewsClient) fetch(ctx context.Context, path string, params url.Values, ticker string) ([]models.NewsArticle, error) {
	if !n.Configured() {
		return nil, ErrNotConfigured
	}

	headers := map[string]string{
		"x-rapidapi-key":  n.apiKey,
		"x-rapidapi-host": n.host,
	}

	var resp rapidNewsResponse
	if err := getJSON(ctx, n.client, rapidAPIProvider, n.baseURL+path+"?"+params.Encode(), headers, &resp); err != nil {
		return nil, err
	}

	if resp.Status != "" && !strings.EqualFold(resp.Status, "OK") {
		return nil, &APIError{Provider: rapidAPIProvider, StatusCode: 200, Message: fmt.Sprintf("status %s", resp.Status)}
	}

	articles := make([]models.NewsArticle, 0, MaxArticles)
	for _, item := range resp.Data.News {
		if len(articles) == MaxArticles {
			break
		}
		articles = append(articles, models.NewsArticle{
			Title:       item.Title,
			URL:         item.URL,
			Source:      item.Source,
			PublishedAt: parsePostTime(item.PostTime),
			Ticker:      ticker,
		})
	}

	return articles, nil
}

func parsePostTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatArticles renders headlines as the numbered list the chat tools return.
func FormatArticles(articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return "No recent news articles were found."
	}

	var b strings.Builder
	b.WriteString("Here are the latest financial news articles:\n")
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s", i+1, a.Title)
		if a.Source != "" {
			fmt.Fprintf(&b, " (%s)", a.Source)
		}
		if a.URL != "" {
			fmt.Fprintf(&b, " - %s", a.URL)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
