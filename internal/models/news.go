package models

import (
	"time"

	"github.com/lib/pq"
)

type NewsArticle struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Ticker      string    `json:"ticker,omitempty"`
}

// Bookmark is a news article saved by a user.
type Bookmark struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	UserID      string         `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_bookmarks_user_url"`
	Title       string         `json:"title" gorm:"not null"`
	URL         string         `json:"url" gorm:"not null;uniqueIndex:idx_bookmarks_user_url"`
	Source      string         `json:"source"`
	Ticker      string         `json:"ticker"`
	PublishedAt time.Time      `json:"published_at"`
	Tags        pq.StringArray `json:"tags" gorm:"type:text[]"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Quote is a point-in-time price for a ticker.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Currency      string    `json:"currency"`
	Source        string    `json:"source"`
	FetchedAt     time.Time `json:"fetched_at"`
}
