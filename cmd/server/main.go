package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/api"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/auth"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/chat"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/db"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/executor"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/market"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/planner"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/router"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store/memory"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/tools"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

// stores groups the persistence backends the server runs on.
type stores struct {
	conversations store.ConversationStore
	users         store.UserStore
	portfolios    store.PortfolioStore
	bookmarks     store.BookmarkStore
	plans         store.PlanStore
	redis         *redis.Client
	closers       []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: failed to load: %v", err)
	}

	baseLogger, err := utils.NewLogger(cfg.Logging, cfg.Server.DevMode)
	if err != nil {
		log.Fatalf("logger: failed to build: %v", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	logger := baseLogger.Sugar()

	ctx := context.Background()

	backends := openStores(ctx, cfg, logger)
	defer backends.close()

	yahoo := market.NewYahoo(cfg.Market.YahooBaseURL)
	alphaVantage := market.NewAlphaVantage(cfg.Market.AlphaVantageURL, cfg.Market.AlphaVantageKey, cfg.Market.AlphaVantageRPM, logger)
	quotes, err := market.NewQuoteService(cfg.Market.QuoteTTL, yahoo, logger, yahoo, alphaVantage)
	if err != nil {
		logger.Fatalw("market: failed to build quote service", "error", err)
	}
	defer quotes.Close()

	var newsCache market.NewsCache
	if backends.redis != nil {
		newsCache = market.NewRedisNewsCache(backends.redis, cfg.Market.NewsTTL, logger)
	} else {
		newsCache = market.NewMemoryNewsCache(cfg.Market.NewsTTL)
	}
	news := market.NewNewsService(market.NewNewsClient(cfg.Market.RapidAPIHost, cfg.Market.RapidAPIKey), newsCache)

	toolSet := tools.NewSet(tools.Deps{Quotes: quotes, News: news, Logger: logger})
	factory := executor.NewFactory(ctx, cfg.LLM, toolSet, logger)
	logger.Infow("agent executor ready", "strategy", factory.Strategy())

	chatService := chat.NewService(backends.conversations, backends.users, router.New(), factory, cfg.Server.ChatTimeout, logger)
	planService := planner.New(factory.Generator(), backends.plans, logger)

	var revocations auth.Revocations
	if backends.redis != nil {
		revocations = db.NewRedisRevocations(backends.redis)
	}
	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer, backends.users, revocations)
	if err != nil {
		logger.Fatalw("failed to initialise auth service", "error", err)
	}

	handler := api.NewHandler(api.Dependencies{
		Auth:          authService,
		Chat:          chatService,
		Conversations: backends.conversations,
		Users:         backends.users,
		Portfolios:    backends.portfolios,
		Bookmarks:     backends.bookmarks,
		Planner:       planService,
		Quotes:        quotes,
		News:          news,
		Server:        cfg.Server,
		Market:        cfg.Market,
		Logger:        logger,
	})

	engine := setupRouter(handler, cfg.Server, baseLogger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Infow("server listening", "addr", server.Addr, "dev_mode", cfg.Server.DevMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("server crashed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown failed", "error", err)
	}

	logger.Info("server stopped cleanly")
}

func setupRouter(handler *api.Handler, cfg utils.ServerConfig, logger *zap.Logger) *gin.Engine {
	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(api.RequestLogger(logger), gin.Recovery(), api.CORS(cfg.FrontendURL))
	handler.RegisterRoutes(engine)

	return engine
}

// openStores connects Postgres, Mongo, and Redis. A database that cannot be reached is
// replaced by the in-memory store in dev mode and is fatal otherwise.
func openStores(ctx context.Context, cfg *utils.Config, logger *zap.SugaredLogger) *stores {
	mem := memory.New()
	s := &stores{
		conversations: mem,
		users:         mem,
		portfolios:    mem,
		bookmarks:     mem,
		plans:         mem,
	}

	unavailable := func(name string, err error) {
		if !cfg.Server.DevMode {
			logger.Fatalw(name+": unavailable", "error", err)
		}
		logger.Warnw(name+": unavailable, using in-memory store", "error", err)
	}

	if pg, err := connectPostgres(ctx, cfg.Postgres); err != nil {
		unavailable("postgres", err)
	} else {
		s.conversations = pg
		s.users = pg
		s.closers = append(s.closers, pg.Close)
	}

	if rel, err := db.NewGORM(cfg.Postgres); err != nil {
		unavailable("gorm", err)
	} else if err := rel.AutoMigrate(ctx); err != nil {
		_ = rel.Close()
		unavailable("gorm", err)
	} else {
		s.portfolios = rel
		s.bookmarks = rel
		s.closers = append(s.closers, func() {
			if err := rel.Close(); err != nil {
				logger.Warnw("gorm: close error", "error", err)
			}
		})
	}

	if cfg.Mongo.URI != "" {
		if mongoStore, err := connectMongo(ctx, cfg.Mongo); err != nil {
			unavailable("mongo", err)
		} else {
			s.plans = mongoStore
			s.closers = append(s.closers, func() {
				if err := mongoStore.Close(context.Background()); err != nil {
					logger.Warnw("mongo: close error", "error", err)
				}
			})
		}
	}

	if cfg.Redis.Addr != "" {
		if client, err := db.NewRedisClient(ctx, cfg.Redis); err != nil {
			unavailable("redis", err)
		} else {
			s.redis = client
			s.closers = append(s.closers, func() { _ = client.Close() })
		}
	}

	return s
}

func connectPostgres(ctx context.Context, cfg utils.PostgresConfig) (*db.Postgres, error) {
	pg, err := db.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func connectMongo(ctx context.Context, cfg utils.MongoConfig) (*db.Mongo, error) {
	mongoStore, err := db.NewMongo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := mongoStore.EnsureCollections(ctx); err != nil {
		_ = mongoStore.Close(ctx)
		return nil, err
	}
	return mongoStore, nil
}
