// Package config resolves process configuration from the environment once at
// startup. Components receive the sub-struct they need at construction.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// placeholderAPIKey is shipped in sample .env files and means "not configured".
const placeholderAPIKey = "your-api-key-here"

type Config struct {
	Port        string
	Environment string

	DB          DBConfig
	Redis       RedisConfig
	AI          AIConfig
	Transcribe  TranscribeConfig
	Translation TranslationConfig

	JWTSecret   string
	UploadDir   string
	MaxUploadMB int64
}

type DBConfig struct {
	Driver         string
	DSN            string
	SQLitePath     string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled is false when no address is configured; events are then dropped.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type AIConfig struct {
	GatewayURL string
	APIKey     string
	Model      string
	Timeout    time.Duration
}

// Enabled reports whether the AI backend can be called at all.
func (c AIConfig) Enabled() bool {
	return c.GatewayURL != "" && c.APIKey != "" && c.APIKey != placeholderAPIKey
}

type TranscribeConfig struct {
	URL     string
	UseMock bool
	Timeout time.Duration
}

type TranslationConfig struct {
	CacheSize int
	CacheTTL  time.Duration
}

// Load reads the environment. Invalid numeric or duration values are errors.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        envOr("PORT", "8080"),
		Environment: envOr("ENVIRONMENT", "local"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		UploadDir:   envOr("UPLOAD_DIR", "uploads"),
	}
	var err error

	cfg.DB.Driver = strings.ToLower(envOr("DB_DRIVER", "sqlite"))
	if cfg.DB.Driver != "sqlite" && cfg.DB.Driver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER: unsupported driver %q, allowed: sqlite, postgres", cfg.DB.Driver)
	}
	cfg.DB.DSN = os.Getenv("DATABASE_DSN")
	if cfg.DB.Driver == "postgres" && cfg.DB.DSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN: required when DB_DRIVER=postgres")
	}
	cfg.DB.SQLitePath = envOr("SQLITE_DB_PATH", "data/grievances.db")
	if cfg.DB.ConnectTimeout, err = envDuration("DB_CONNECT_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.AI.GatewayURL = os.Getenv("LLM_GATEWAY_URL")
	cfg.AI.APIKey = os.Getenv("LLM_API_KEY")
	cfg.AI.Model = envOr("LLM_MODEL", "deepseek-chat")
	if cfg.AI.Timeout, err = envDuration("LLM_TIMEOUT", 12*time.Second); err != nil {
		return nil, err
	}

	cfg.Transcribe.URL = os.Getenv("TRANSCRIBE_URL")
	cfg.Transcribe.UseMock = os.Getenv("USE_MOCK_TRANSCRIBE") == "true"
	if cfg.Transcribe.Timeout, err = envDuration("TRANSCRIBE_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	if cfg.Translation.CacheSize, err = envInt("TRANSLATION_CACHE_SIZE", 512); err != nil {
		return nil, err
	}
	if cfg.Translation.CacheTTL, err = envDuration("TRANSLATION_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}

	maxUpload, err := envInt("MAX_UPLOAD_MB", 5)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadMB = int64(maxUpload)

	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", k, v)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", k, v)
	}
	return d, nil
}
