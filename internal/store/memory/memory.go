// Package memory keeps every store in process maps guarded by one RWMutex. It backs
// DEV_MODE runs without databases and the service tests.
package memory

import (
	"sync"
	"time"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
)

var (
	_ store.ConversationStore = (*Store)(nil)
	_ store.UserStore         = (*Store)(nil)
	_ store.PortfolioStore    = (*Store)(nil)
	_ store.BookmarkStore     = (*Store)(nil)
	_ store.PlanStore         = (*Store)(nil)
)

type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	conversations map[string]*models.Conversation
	messages      map[string][]models.Message

	users   map[string]*models.User
	apiKeys map[string]*models.APIKeys

	portfolios map[string]*models.Portfolio
	stocks     map[string][]models.Stock
	bookmarks  map[string]*models.Bookmark
	plans      []models.FinancialPlan
}

func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		conversations: make(map[string]*models.Conversation),
		messages:      make(map[string][]models.Message),
		users:         make(map[string]*models.User),
		apiKeys:       make(map[string]*models.APIKeys),
		portfolios:    make(map[string]*models.Portfolio),
		stocks:        make(map[string][]models.Stock),
		bookmarks:     make(map[string]*models.Bookmark),
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]T(nil), items[offset:end]...)
}
