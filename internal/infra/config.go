package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	EngineBaseURL    string
	EngineTimeout    time.Duration
	PreflightTimeout time.Duration
	HeartbeatEvery   time.Duration

	ModelFree    string
	ModelPro     string
	ModelPremium string

	MaxTokensFree    int
	MaxTokensPro     int
	MaxTokensPremium int

	PromptVersion     string
	ModerationVersion string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	ArtifactDir string

	AllowedOrigins  []string
	HTTPReadTimeout time.Duration
	HTTPIdleTimeout time.Duration
	RateLimitPerMin int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		EngineBaseURL:     getEnv("ENGINE_BASE_URL", "http://localhost:9000"),
		EngineTimeout:     time.Second * time.Duration(getEnvInt("ENGINE_TIMEOUT_SECONDS", 300)),
		PreflightTimeout:  time.Second * time.Duration(getEnvInt("ENGINE_PREFLIGHT_TIMEOUT_SECONDS", 5)),
		HeartbeatEvery:    time.Second * time.Duration(getEnvInt("HEARTBEAT_INTERVAL_SECONDS", 15)),
		ModelFree:         getEnv("MODEL_FREE", "creator-small"),
		ModelPro:          getEnv("MODEL_PRO", "creator-medium"),
		ModelPremium:      getEnv("MODEL_PREMIUM", "creator-large"),
		MaxTokensFree:     getEnvInt("MAX_TOKENS_FREE", 2048),
		MaxTokensPro:      getEnvInt("MAX_TOKENS_PRO", 4096),
		MaxTokensPremium:  getEnvInt("MAX_TOKENS_PREMIUM", 8192),
		PromptVersion:     getEnv("PROMPT_VERSION", "2025-06"),
		ModerationVersion: getEnv("MODERATION_VERSION", "v2"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		CacheTTL:          time.Second * time.Duration(getEnvInt("CACHE_TTL_SECONDS", 24*3600)),
		ArtifactDir:       getEnv("ARTIFACT_DIR", "./artifacts"),
		AllowedOrigins:    splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.EngineBaseURL == "" {
		return nil, fmt.Errorf("ENGINE_BASE_URL is required")
	}

	if cfg.EngineTimeout <= 0 {
		return nil, fmt.Errorf("ENGINE_TIMEOUT_SECONDS must be positive")
	}

	return cfg, nil
}

// ModelForTier maps a subscription tier name to the engine model it runs on.
func (c *Config) ModelForTier(tier string) string {
	switch strings.ToLower(tier) {
	case "premium":
		return c.ModelPremium
	case "pro":
		return c.ModelPro
	default:
		return c.ModelFree
	}
}

// MaxTokensForTier maps a subscription tier name to its output token budget.
func (c *Config) MaxTokensForTier(tier string) int {
	switch strings.ToLower(tier) {
	case "premium":
		return c.MaxTokensPremium
	case "pro":
		return c.MaxTokensPro
	default:
		return c.MaxTokensFree
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
