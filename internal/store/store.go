// Package store defines the persistence contracts the services depend on. Postgres, GORM,
// and Mongo implementations live in internal/db; an in-process one lives in store/memory.
package store

import (
	"context"
	"errors"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
)

var (
	// ErrNotFound covers both missing rows and rows owned by another user.
	ErrNotFound      = errors.New("store: not found")
	ErrUsernameTaken = errors.New("store: username already exists")
	ErrEmailTaken    = errors.New("store: email already exists")
	ErrDuplicate     = errors.New("store: duplicate record")
)

const (
	DefaultConversationLimit = 20
	MaxConversationLimit     = 100
	DefaultMessageLimit      = 100
	MaxMessageLimit          = 500
	HistoryWindow            = 20

	lastMessagePreview = 100
)

type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error)
	// ListConversations returns the user's conversations, most recently updated first,
	// each carrying a preview of its latest reply.
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]models.Conversation, error)
	TouchConversation(ctx context.Context, id string) error
	UpdateTitle(ctx context.Context, id, userID, title string) (*models.Conversation, error)
	AppendMessage(ctx context.Context, msg *models.Message) error
	// AppendTurn stores the user row then the agent row and bumps the conversation's
	// updated_at, atomically where the backend allows.
	AppendTurn(ctx context.Context, userMsg, agentMsg *models.Message) error
	// ListMessages returns rows in (created_at, seq) ascending order.
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	// RecentMessages returns the last n rows, still in ascending order.
	RecentMessages(ctx context.Context, conversationID string, n int) ([]models.Message, error)
	DeleteConversation(ctx context.Context, id, userID string) error
	ClearMessages(ctx context.Context, id, userID string) error
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// FindUser looks a user up by username or email, case-insensitively.
	FindUser(ctx context.Context, identifier string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	GetAPIKeys(ctx context.Context, userID string) (*models.APIKeys, error)
	SaveAPIKeys(ctx context.Context, keys *models.APIKeys) error
}

type PortfolioStore interface {
	ListPortfolios(ctx context.Context, userID string) ([]models.Portfolio, error)
	GetPortfolio(ctx context.Context, id, userID string) (*models.Portfolio, error)
	CreatePortfolio(ctx context.Context, p *models.Portfolio) error
	UpdatePortfolio(ctx context.Context, p *models.Portfolio) error
	DeletePortfolio(ctx context.Context, id, userID string) error
	ListStocks(ctx context.Context, portfolioID, userID string) ([]models.Stock, error)
	AddStock(ctx context.Context, userID string, s *models.Stock) error
	UpdateStock(ctx context.Context, userID string, s *models.Stock) error
	DeleteStock(ctx context.Context, portfolioID, stockID, userID string) error
}

type BookmarkStore interface {
	ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error)
	CreateBookmark(ctx context.Context, b *models.Bookmark) error
	DeleteBookmark(ctx context.Context, id, userID string) error
}

type PlanStore interface {
	SavePlan(ctx context.Context, plan *models.FinancialPlan) error
	// ListPlans returns the user's plans, newest first.
	ListPlans(ctx context.Context, userID string) ([]models.FinancialPlan, error)
}

// ClampLimit applies a default and an upper bound to a page size.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Preview truncates an agent reply for conversation listings.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= lastMessagePreview {
		return text
	}
	return string(runes[:lastMessagePreview]) + "..."
}
