package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

type bookmarkRequest struct {
	Title       string    `json:"title" binding:"required,max=500"`
	URL         string    `json:"url" binding:"required,url"`
	Source      string    `json:"source" binding:"max=200"`
	Ticker      string    `json:"ticker" binding:"max=16"`
	PublishedAt time.Time `json:"published_at"`
	Tags        []string  `json:"tags" binding:"max=20,dive,max=40"`
}

type keyedQuoteSource interface {
	WithAlphaVantageKey(key string) *market.QuoteService
}

type keyedNewsSource interface {
	WithRapidAPIKey(key string) *market.NewsService
}

// marketFor returns the quote and news sources authenticated with the caller's stored
// Alpha Vantage and RapidAPI keys, or the process-wide ones when none are stored.
func (h *Handler) marketFor(c *gin.Context) (QuoteSource, NewsSource) {
	quotes, news := h.quotes, h.news

	keys, err := h.users.GetAPIKeys(c.Request.Context(), userID(c))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Warnw("failed to load api keys, using shared market keys", "user_id", userID(c), "error", err)
		}
		return quotes, news
	}

	if key := strings.TrimSpace(keys.AlphaVantageKey); key != "" {
		if q, ok := quotes.(keyedQuoteSource); ok {
			quotes = q.WithAlphaVantageKey(key)
		}
	}
	if key := strings.TrimSpace(keys.RapidAPIKey); key != "" {
		if n, ok := news.(keyedNewsSource); ok {
			news = n.WithRapidAPIKey(key)
		}
	}
	return quotes, news
}

func (h *Handler) handleLatestNews(c *gin.Context) {
	h.serveNews(c, func(ctx context.Context, news NewsSource) ([]models.NewsArticle, error) {
		return news.Latest(ctx)
	})
}

func (h *Handler) handleTrendingNews(c *gin.Context) {
	h.serveNews(c, func(ctx context.Context, news NewsSource) ([]models.NewsArticle, error) {
		return news.Trending(ctx)
	})
}

func (h *Handler) handleStockNews(c *gin.Context) {
	ticker := c.Param("ticker")
	h.serveNews(c, func(ctx context.Context, news NewsSource) ([]models.NewsArticle, error) {
		return news.Stock(ctx, ticker)
	})
}

func (h *Handler) serveNews(c *gin.Context, load func(ctx context.Context, news NewsSource) ([]models.NewsArticle, error)) {
	if h.news == nil {
		writeError(c, http.StatusServiceUnavailable, "news is not configured", market.ErrNotConfigured)
		return
	}

	_, news := h.marketFor(c)
	articles, err := load(c.Request.Context(), news)
	if err != nil {
		h.writeMarketError(c, "failed to fetch news", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

func (h *Handler) handleListBookmarks(c *gin.Context) {
	bookmarks, err := h.bookmarks.ListBookmarks(c.Request.Context(), userID(c))
	if err != nil {
		h.writeStoreError(c, "failed to list bookmarks", err)
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}

func (h *Handler) handleCreateBookmark(c *gin.Context) {
	var req bookmarkRequest
	if !bindJSON(c, &req) {
		return
	}

	b := &models.Bookmark{
		UserID:      userID(c),
		Title:       strings.TrimSpace(req.Title),
		URL:         strings.TrimSpace(req.URL),
		Source:      req.Source,
		Ticker:      strings.ToUpper(strings.TrimSpace(req.Ticker)),
		PublishedAt: req.PublishedAt,
		Tags:        req.Tags,
	}
	if err := h.bookmarks.CreateBookmark(c.Request.Context(), b); err != nil {
		h.writeStoreError(c, "failed to create bookmark", err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) handleDeleteBookmark(c *gin.Context) {
	if err := h.bookmarks.DeleteBookmark(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		h.writeStoreError(c, "failed to delete bookmark", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": c.Param("id")})
}

func (h *Handler) handleQuote(c *gin.Context) {
	if h.quotes == nil {
		writeError(c, http.StatusServiceUnavailable, "market data is not configured", market.ErrNotConfigured)
		return
	}

	quotes, _ := h.marketFor(c)
	quote, err := quotes.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.writeMarketError(c, "failed to fetch quote", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
