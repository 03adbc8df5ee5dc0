package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "http://api.local/api")
	t.Setenv("LOCAL_STORAGE_DRIVER", "")

	cfg, err := LoadConfig(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "propertify-view-service", cfg.AppName)
	assert.Equal(t, "8085", cfg.Rest.PORT)
	assert.Equal(t, 15*time.Second, cfg.Marketplace.Timeout)
	assert.Equal(t, 5, cfg.Views.TablePageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Views.SearchDebounce)
	assert.Equal(t, 10, cfg.Views.FeedPageSize)
	assert.Equal(t, StorageDriverMemory, cfg.LocalStorage.Driver)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.False(t, cfg.FluentBit.Enabled)
}

func TestLoadConfig_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "MARKETPLACE_API_URL=http://env-file/api\n" +
		"CORS_ALLOWED_ORIGINS=http://a.local, http://b.local\n" +
		"MARKETPLACE_API_TIMEOUT=0\n" +
		"TABLE_SEARCH_DEBOUNCE=250ms\n" +
		"LOCAL_STORAGE_DRIVER=Redis\n" +
		"REDIS_DB=2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	// godotenv не перезаписывает уже заданные переменные.
	for _, k := range []string{"MARKETPLACE_API_URL", "CORS_ALLOWED_ORIGINS", "MARKETPLACE_API_TIMEOUT", "TABLE_SEARCH_DEBOUNCE", "LOCAL_STORAGE_DRIVER", "REDIS_DB", "REDIS_KEY_PREFIX"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env-file/api", cfg.Marketplace.URL)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.Rest.AllowedOrigins)
	assert.Equal(t, time.Duration(0), cfg.Marketplace.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Views.SearchDebounce)
	assert.Equal(t, StorageDriverRedis, cfg.LocalStorage.Driver)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "localstorage", cfg.Redis.Prefix)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing api url", env: map[string]string{"MARKETPLACE_API_URL": ""}},
		{name: "postgres without url", env: map[string]string{"LOCAL_STORAGE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{name: "unknown driver", env: map[string]string{"LOCAL_STORAGE_DRIVER": "sqlite"}},
		{name: "rabbit without url", env: map[string]string{"RABBITMQ_ENABLED": "true", "RABBITMQ_URL": ""}},
		{name: "zero page size", env: map[string]string{"FEED_PAGE_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MARKETPLACE_API_URL", "http://api.local")
			t.Setenv("LOCAL_STORAGE_DRIVER", "memory")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(missingEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_FluentWithoutHostIsDisabled(t *testing.T) {
	t.Setenv("MARKETPLACE_API_URL", "http://api.local")
	t.Setenv("LOCAL_STORAGE_DRIVER", "memory")
	t.Setenv("FLUENTBIT_ENABLED", "true")
	t.Setenv("FLUENTBIT_HOST", "")

	cfg, err := LoadConfig(missingEnvFile(t))
	require.NoError(t, err)
	assert.False(t, cfg.FluentBit.Enabled)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_LIST", " , ")

	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.True(t, getEnvAsBool("X_BOOL", true))
	assert.Equal(t, time.Second, getEnvAsDuration("X_DUR", time.Second))
	assert.Equal(t, []string{"d"}, getEnvAsList("X_LIST", []string{"d"}))
}
