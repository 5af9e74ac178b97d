package market

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

const (
	defaultNewsTTL   = 5 * time.Minute
	newsCachePrefix  = "news:"
	lruNewsCacheSize = 256
)

// NewsCache stores article lists by key.
type NewsCache interface {
	Get(ctx context.Context, key string) ([]models.NewsArticle, bool)
	Set(ctx context.Context, key string, articles []models.NewsArticle)
}

type redisNewsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewRedisNewsCache keeps articles as JSON under "news:<key>".
func NewRedisNewsCache(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) NewsCache {
	if ttl <= 0 {
		ttl = defaultNewsTTL
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &redisNewsCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisNewsCache) Get(ctx context.Context, key string) ([]models.NewsArticle, bool) {
	raw, err := c.client.Get(ctx, newsCachePrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warnw("news cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var articles []models.NewsArticle
	if err := json.Unmarshal(raw, &articles); err != nil {
		return nil, false
	}
	return articles, true
}

func (c *redisNewsCache) Set(ctx context.Context, key string, articles []models.NewsArticle) {
	payload, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, newsCachePrefix+key, payload, c.ttl).Err(); err != nil {
		c.logger.Warnw("news cache write failed", "key", key, "error", err)
	}
}

type lruNewsCache struct {
	lru *expirable.LRU[string, []models.NewsArticle]
}

// NewMemoryNewsCache is the in-process cache used when redis is not configured.
func NewMemoryNewsCache(ttl time.Duration) NewsCache {
	if ttl <= 0 {
		ttl = defaultNewsTTL
	}
	return &lruNewsCache{lru: expirable.NewLRU[string, []models.NewsArticle](lruNewsCacheSize, nil, ttl)}
}

func (c *lruNewsCache) Get(_ context.Context, key string) ([]models.NewsArticle, bool) {
	return c.lru.Get(key)
}

func (c *lruNewsCache) Set(_ context.Context, key string, articles []models.NewsArticle) {
	c.lru.Add(key, articles)
}

// NewsSource is the subset of NewsClient the service needs.
type NewsSource interface {
	StockNews(ctx context.Context, ticker string) ([]models.NewsArticle, error)
	MarketTrends(ctx context.Context, trendType string) ([]models.NewsArticle, error)
}

// NewsService fronts a NewsSource with a cache.
type NewsService struct {
	source NewsSource
	cache  NewsCache
}

func NewNewsService(source NewsSource, cache NewsCache) *NewsService {
	if cache == nil {
		cache = NewMemoryNewsCache(defaultNewsTTL)
	}
	return &NewsService{source: source, cache: cache}
}

// WithRapidAPIKey returns a service whose RapidAPI client authenticates with key. The
// cache is shared: headlines are not user specific.
func (s *NewsService) WithRapidAPIKey(key string) *NewsService {
	client, ok := s.source.(*NewsClient)
	if !ok || strings.TrimSpace(key) == "" {
		return s
	}
	return &NewsService{source: client.WithAPIKey(key), cache: s.cache}
}

func (s *NewsService) Latest(ctx context.Context) ([]models.NewsArticle, error) {
	return s.cached(ctx, "latest", func() ([]models.NewsArticle, error) {
		return s.source.MarketTrends(ctx, TrendMarketIndexes)
	})
}

func (s *NewsService) Trending(ctx context.Context) ([]models.NewsArticle, error) {
	return s.cached(ctx, "trending", func() ([]models.NewsArticle, error) {
		return s.source.MarketTrends(ctx, TrendMostActive)
	})
}

func (s *NewsService) Stock(ctx context.Context, ticker string) ([]models.NewsArticle, error) {
	ticker = normalizeSymbol(ticker)
	if ticker == "" {
		return nil, ErrSymbolRequired
	}
	return s.cached(ctx, "stock:"+ticker, func() ([]models.NewsArticle, error) {
		return s.source.StockNews(ctx, ticker)
	})
}

// Search routes ticker-looking queries to Stock and everything else to Trending.
func (s *NewsService) Search(ctx context.Context, query string) ([]models.NewsArticle, error) {
	if LooksLikeTicker(query) {
		return s.Stock(ctx, strings.TrimSpace(query))
	}
	return s.Trending(ctx)
}

func (s *NewsService) cached(ctx context.Context, key string, load func() ([]models.NewsArticle, error)) ([]models.NewsArticle, error) {
	if articles, ok := s.cache.Get(ctx, key); ok {
		return articles, nil
	}

	articles, err := load()
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, articles)
	return articles, nil
}
