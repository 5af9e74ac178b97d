package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	LLM      LLMConfig
	Market   MarketConfig
}

type ServerConfig struct {
	Port            string
	FrontendURL     string
	DevMode         bool
	DevUserID       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	ChatTimeout     time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

type PostgresConfig struct {
	DSN               string
	Host              string
	Port              int
	User              string
	Password          string
	Database          string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	ConnectTimeout    time.Duration
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level string
	// Encoding is "json" or "console"; empty follows DEV_MODE.
	Encoding     string
	EnableCaller bool
	ServiceName  string
}

type LLMConfig struct {
	// Provider is "gemini" or "openai"; empty picks whichever has a key, Gemini first.
	Provider         string
	GoogleAPIKey     string
	GeminiModel      string
	BaseURL          string
	APIKey           string
	Model            string
	Temperature      float64
	MaxTokens        int
	SummaryThreshold int
	RecentKeep       int
	Timeout          time.Duration
}

// Configured reports whether any live generator credential is present.
func (l LLMConfig) Configured() bool {
	return strings.TrimSpace(l.GoogleAPIKey) != "" || strings.TrimSpace(l.APIKey) != ""
}

type MarketConfig struct {
	AlphaVantageKey  string
	AlphaVantageURL  string
	AlphaVantageRPM  int
	RapidAPIKey      string
	RapidAPIHost     string
	YahooBaseURL     string
	QuoteTTL         time.Duration
	NewsTTL          time.Duration
	PerformanceRange string
}

func LoadConfig() (*Config, error) {
	pgPort, _ := strconv.Atoi(envOrDefault("POSTGRES_PORT", "5432"))
	maxConns := parseInt32(envOrDefault("POSTGRES_MAX_CONNS", "8"), 8)
	minConns := parseInt32(envOrDefault("POSTGRES_MIN_CONNS", "1"), 1)
	redisDB, _ := strconv.Atoi(envOrDefault("REDIS_DB", "0"))

	cfg := &Config{
		Server: ServerConfig{
			Port:            envOrDefault("PORT", "8000"),
			FrontendURL:     envOrDefault("FRONTEND_URL", "http://localhost:3000"),
			DevMode:         parseBool(envOrDefault("DEV_MODE", "false"), false),
			DevUserID:       envOrDefault("DEV_USER_ID", "00000000-0000-0000-0000-000000000001"),
			ReadTimeout:     parseDuration(envOrDefault("SERVER_READ_TIMEOUT", "15s"), 15*time.Second),
			WriteTimeout:    parseDuration(envOrDefault("SERVER_WRITE_TIMEOUT", "90s"), 90*time.Second),
			IdleTimeout:     parseDuration(envOrDefault("SERVER_IDLE_TIMEOUT", "60s"), 60*time.Second),
			ShutdownTimeout: parseDuration(envOrDefault("SERVER_SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
			ChatTimeout:     parseDuration(envOrDefault("CHAT_TIMEOUT", "60s"), 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: envOrDefault("JWT_SECRET", envOrDefault("SUPABASE_JWT_SECRET", "dev-secret")),
			TokenTTL:  parseDuration(envOrDefault("JWT_TTL", "24h"), 24*time.Hour),
			Issuer:    envOrDefault("JWT_ISSUER", "finance-advisor"),
		},
		Postgres: PostgresConfig{
			DSN:               os.Getenv("POSTGRES_DSN"),
			Host:              envOrDefault("POSTGRES_HOST", "localhost"),
			Port:              pgPort,
			User:              envOrDefault("POSTGRES_USER", "postgres"),
			Password:          envOrDefault("POSTGRES_PASSWORD", "postgres"),
			Database:          envOrDefault("POSTGRES_DB", "postgres"),
			MaxConns:          maxConns,
			MinConns:          minConns,
			MaxConnLifetime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_LIFETIME", "1h"), time.Hour),
			MaxConnIdleTime:   parseDuration(envOrDefault("POSTGRES_MAX_CONN_IDLE", "30m"), 30*time.Minute),
			HealthCheckPeriod: parseDuration(envOrDefault("POSTGRES_HEALTH_CHECK_PERIOD", "1m"), time.Minute),
			ConnectTimeout:    parseDuration(envOrDefault("POSTGRES_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Mongo: MongoConfig{
			URI:            os.Getenv("MONGO_URI"),
			Database:       envOrDefault("MONGO_DATABASE", "finance_advisor"),
			ConnectTimeout: parseDuration(envOrDefault("MONGO_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logging: LoggingConfig{
			Level:        strings.ToLower(os.Getenv("LOG_LEVEL")),
			Encoding:     strings.ToLower(os.Getenv("LOG_ENCODING")),
			EnableCaller: parseBool(envOrDefault("LOG_CALLER", "false"), false),
			ServiceName:  envOrDefault("SERVICE_NAME", "finance-advisor"),
		},
		LLM: LLMConfig{
			Provider:         strings.ToLower(os.Getenv("LLM_PROVIDER")),
			GoogleAPIKey:     os.Getenv("GOOGLE_API_KEY"),
			GeminiModel:      envOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:          envOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:           os.Getenv("LLM_API_KEY"),
			Model:            envOrDefault("LLM_MODEL", "gpt-4o-mini"),
			Temperature:      parseFloat(envOrDefault("LLM_TEMPERATURE", "0.7"), 0.7),
			MaxTokens:        parseInt(envOrDefault("LLM_MAX_TOKENS", "1024"), 1024),
			SummaryThreshold: parseInt(envOrDefault("LLM_SUMMARY_THRESHOLD", "12"), 12),
			RecentKeep:       parseInt(envOrDefault("LLM_RECENT_KEEP", "6"), 6),
			Timeout:          parseDuration(envOrDefault("LLM_TIMEOUT", "45s"), 45*time.Second),
		},
		Market: MarketConfig{
			AlphaVantageKey:  os.Getenv("ALPHA_VANTAGE_API_KEY"),
			AlphaVantageURL:  envOrDefault("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
			AlphaVantageRPM:  parseInt(envOrDefault("ALPHA_VANTAGE_RPM", "5"), 5),
			RapidAPIKey:      os.Getenv("RAPIDAPI_KEY"),
			RapidAPIHost:     envOrDefault("RAPIDAPI_HOST", "real-time-finance-data.p.rapidapi.com"),
			YahooBaseURL:     envOrDefault("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			QuoteTTL:         parseDuration(envOrDefault("QUOTE_CACHE_TTL", "1m"), time.Minute),
			NewsTTL:          parseDuration(envOrDefault("NEWS_CACHE_TTL", "5m"), 5*time.Minute),
			PerformanceRange: envOrDefault("PERFORMANCE_RANGE", "6mo"),
		},
	}

	return cfg, nil
}

func (c PostgresConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt32(value string, fallback int32) int32 {
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return int32(i)
}

func parseInt(value string, fallback int) int {
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return i
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}
