package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, BrokerNone, cfg.Broker)
	assert.Equal(t, 3, cfg.CheckoutMaxAttempts)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.SeedCatalog)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BROKER", "watermill")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CHECKOUT_MAX_ATTEMPTS", "5")
	t.Setenv("SEED_CATALOG", "false")
	t.Setenv("CATEGORY_CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, BrokerWatermill, cfg.Broker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5, cfg.CheckoutMaxAttempts)
	assert.False(t, cfg.SeedCatalog)
	assert.Equal(t, 30*time.Second, cfg.CategoryCacheTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CHECKOUT_MAX_ATTEMPTS", "many"},
		{"CHECKOUT_MAX_ATTEMPTS", "0"},
		{"LOW_STOCK_THRESHOLD", "-1"},
		{"SHUTDOWN_TIMEOUT", "soon"},
		{"SEED_CATALOG", "maybe"},
		{"BROKER", "rabbit"},
		{"STORE_DRIVER", "sqlite"},
		{"DB_DRIVER", "mysql"},
		{"LOG_LEVEL", "loud"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
