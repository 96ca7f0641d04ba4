package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.AllowSelfMessaging)
	assert.True(t, cfg.RealtimeRequireAuth)
	assert.False(t, cfg.MongoTransactions)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
}

func TestFromEnvMongoNeedsURI(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "MONGO_URI")
}

func TestFromEnvProductionNeedsSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestFromEnvParsesLists(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("CORS_ORIGINS", "https://x.example, https://y.example")
	t.Setenv("ALLOW_SELF_MESSAGING", "yes")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.AllowSelfMessaging)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "JWT_TTL")
}
