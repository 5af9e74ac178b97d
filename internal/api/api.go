package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/auth"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/chat"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/models"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/planner"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

// QuoteSource serves live quotes and the daily closes behind performance charts.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	History(ctx context.Context, symbol, rangeParam string) ([]market.PricePoint, error)
}

type NewsSource interface {
	Latest(ctx context.Context) ([]models.NewsArticle, error)
	Trending(ctx context.Context) ([]models.NewsArticle, error)
	Stock(ctx context.Context, ticker string) ([]models.NewsArticle, error)
}

// Dependencies are the services the HTTP layer fronts. Quotes and News may be nil, in which
// case their endpoints answer 503.
type Dependencies struct {
	Auth          *auth.Service
	Chat          *chat.Service
	Conversations store.ConversationStore
	Users         store.UserStore
	Portfolios    store.PortfolioStore
	Bookmarks     store.BookmarkStore
	Planner       *planner.Planner
	Quotes        QuoteSource
	News          NewsSource
	Server        utils.ServerConfig
	Market        utils.MarketConfig
	Logger        *zap.SugaredLogger
}

type Handler struct {
	authService   *auth.Service
	chat          *chat.Service
	conversations store.ConversationStore
	users         store.UserStore
	portfolios    store.PortfolioStore
	bookmarks     store.BookmarkStore
	planner       *planner.Planner
	quotes        QuoteSource
	news          NewsSource
	server        utils.ServerConfig
	market        utils.MarketConfig
	logger        *zap.SugaredLogger
}

func NewHandler(deps Dependencies) *Handler {
	useJSONFieldNames()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Handler{
		authService:   deps.Auth,
		chat:          deps.Chat,
		conversations: deps.Conversations,
		users:         deps.Users,
		portfolios:    deps.Portfolios,
		bookmarks:     deps.Bookmarks,
		planner:       deps.Planner,
		quotes:        deps.Quotes,
		news:          deps.News,
		server:        deps.Server,
		market:        deps.Market,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.handleHealth)

	apiGroup := router.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.handleRegister)
	authGroup.POST("/login", h.handleLogin)

	if h.server.DevMode {
		apiGroup.POST("/dev/chat", h.devUser(), h.handleChat)
	}

	protected := apiGroup.Group("", h.requireAuth())

	protectedAuth := protected.Group("/auth")
	protectedAuth.POST("/logout", h.handleLogout)
	protectedAuth.GET("/me", h.handleMe)
	protectedAuth.POST("/reset-password", h.handleResetPassword)
	protectedAuth.PUT("/profile", h.handleUpdateProfile)

	protected.POST("/chat", h.handleChat)
	protected.GET("/chat/ws", h.handleChatWebsocket)

	conversations := protected.Group("/conversations")
	conversations.GET("", h.handleListConversations)
	conversations.POST("", h.handleCreateConversation)
	conversations.GET("/:id", h.handleGetConversation)
	conversations.DELETE("/:id", h.handleDeleteConversation)
	conversations.POST("/:id/clear", h.handleClearConversation)
	conversations.PUT("/:id/title", h.handleUpdateTitle)
	conversations.GET("/:id/messages", h.handleListMessages)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("", h.handleListPortfolios)
	portfolio.POST("", h.handleCreatePortfolio)
	portfolio.GET("/:id", h.handleGetPortfolio)
	portfolio.PUT("/:id", h.handleUpdatePortfolio)
	portfolio.DELETE("/:id", h.handleDeletePortfolio)
	portfolio.GET("/:id/stocks", h.handleListStocks)
	portfolio.POST("/:id/stocks", h.handleAddStock)
	portfolio.PUT("/:id/stocks/:stockId", h.handleUpdateStock)
	portfolio.DELETE("/:id/stocks/:stockId", h.handleDeleteStock)
	portfolio.GET("/:id/performance", h.handlePerformance)

	news := protected.Group("/news")
	news.GET("/latest", h.handleLatestNews)
	news.GET("/trending", h.handleTrendingNews)
	news.GET("/stock/:ticker", h.handleStockNews)
	news.GET("/bookmarks", h.handleListBookmarks)
	news.POST("/bookmarks", h.handleCreateBookmark)
	news.DELETE("/bookmarks/:id", h.handleDeleteBookmark)

	protected.GET("/market/quote/:symbol", h.handleQuote)

	protected.POST("/financial-plan", h.handleCreatePlan)
	protected.GET("/financial-plans", h.handleListPlans)

	protected.GET("/user/api-keys", h.handleGetAPIKeys)
	protected.POST("/user/api-keys", h.handleSaveAPIKeys)
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// bindJSON decodes the body and reports validator failures per field. It writes the 400
// itself and returns false when the request should stop.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		writeValidationError(c, err)
		return false
	}
	return true
}

func writeValidationError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"details": err.Error(),
		"fields":  fields,
	})
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json tag.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// writeStoreError maps store sentinels onto HTTP statuses.
func (h *Handler) writeStoreError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "not found", err)
	case errors.Is(err, store.ErrDuplicate):
		writeError(c, http.StatusConflict, "already exists", err)
	default:
		h.logger.Errorw(message, "path", c.FullPath(), "error", err)
		writeError(c, http.StatusInternalServerError, message, err)
	}
}

func writeError(c *gin.Context, status int, message string, err error) {
	details := message
	if err != nil {
		details = err.Error()
	}
	c.JSON(status, gin.H{
		"error":   message,
		"details": details,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
