package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "DB_DRIVER", "DATABASE_DSN", "SQLITE_DB_PATH", "DB_CONNECT_TIMEOUT",
		"REDIS_ADDR", "REDIS_DB", "LLM_GATEWAY_URL", "LLM_API_KEY", "LLM_MODEL", "LLM_TIMEOUT",
		"TRANSCRIBE_URL", "USE_MOCK_TRANSCRIBE", "TRANSCRIBE_TIMEOUT",
		"TRANSLATION_CACHE_SIZE", "TRANSLATION_CACHE_TTL", "MAX_UPLOAD_MB",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 12*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 512, cfg.Translation.CacheSize)
	assert.Equal(t, int64(5), cfg.MaxUploadMB)
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_AIEnabledOnlyWithRealKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_GATEWAY_URL", "https://llm.example/v1/chat/completions")

	t.Setenv("LLM_API_KEY", placeholderAPIKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AI.Enabled())

	t.Setenv("LLM_API_KEY", "sk-live")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.AI.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad driver", "DB_DRIVER", "mongo"},
		{"postgres without dsn", "DB_DRIVER", "postgres"},
		{"bad duration", "LLM_TIMEOUT", "soon"},
		{"bad int", "REDIS_DB", "zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
