package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config holds the application configuration.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"debug"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// Storage backend: "redis" or "memory". The memory backend exists for
	// local development and tests; production uses Redis.
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"redis"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	// Secret field WITHOUT an envconfig tag
	RedisPassword string

	// AI gateway settings
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"` // openai or ollama
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel          string        `envconfig:"AI_MODEL" default:"deepseek/deepseek-chat"`
	AIImageModel     string        `envconfig:"AI_IMAGE_MODEL" default:"dall-e-3"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxAttempts    int           `envconfig:"AI_MAX_ATTEMPTS" default:"3"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	// Secret field WITHOUT an envconfig tag
	AIAPIKey string

	// Auth shim settings
	AccessTokenTTL time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"168h"`
	AuthDelay      time.Duration `envconfig:"AUTH_SIMULATED_DELAY" default:"800ms"`
	// Secret field WITHOUT an envconfig tag
	JWTSecret string

	// Forge pipeline settings
	ForgeStageInterval time.Duration `envconfig:"FORGE_STAGE_INTERVAL" default:"1200ms"`

	// CORS settings
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// GetAllowedOrigins splits the CORSAllowedOrigins string into a slice.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// Load reads configuration from environment variables. Secrets are read
// either from a *_FILE path or the bare environment variable, outside of
// envconfig, so they never appear in struct-tag defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	cfg.AIAPIKey = readSecret("AI_API_KEY")
	cfg.RedisPassword = readSecret("REDIS_PASSWORD")
	cfg.JWTSecret = readSecret("JWT_SECRET")

	if cfg.AIClientType == "openai" && cfg.AIAPIKey == "" {
		return nil, fmt.Errorf("AI_API_KEY is required when AI_CLIENT_TYPE is openai")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &cfg, nil
}

// readSecret resolves NAME_FILE to the file's trimmed contents, falling back
// to the NAME environment variable.
func readSecret(name string) string {
	if path := os.Getenv(name + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	return strings.TrimSpace(os.Getenv(name))
}

// LogSummary writes the loaded configuration with secrets masked.
func (c *Config) LogSummary(log *zap.Logger) {
	log.Info("Configuration loaded",
		zap.String("env", c.Env),
		zap.String("port", c.ServerPort),
		zap.String("storage", c.StorageBackend),
		zap.String("redisAddr", c.RedisAddr),
		zap.String("aiClientType", c.AIClientType),
		zap.String("aiBaseURL", c.AIBaseURL),
		zap.String("aiModel", c.AIModel),
		zap.Duration("aiTimeout", c.AITimeout),
		zap.Int("aiMaxAttempts", c.AIMaxAttempts),
		zap.Duration("forgeStageInterval", c.ForgeStageInterval),
		zap.String("aiAPIKey", mask(c.AIAPIKey)),
		zap.String("jwtSecret", mask(c.JWTSecret)),
	)
}

func mask(s string) string {
	if s == "" {
		return "[unset]"
	}
	return "[loaded]"
}
