package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, BackendFile, cfg.Registry.Backend)
	assert.Equal(t, "users.json", cfg.Registry.FilePath)
	assert.Equal(t, "registrations", cfg.Events.Topic)
	assert.Equal(t, 3*time.Second, cfg.Client.CheckTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Server.IsDevelopment())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REGDESK_ADDR", ":9090")
	t.Setenv("REGISTRY_BACKEND", "SQLite")
	t.Setenv("REGISTRY_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,,b1:9092")
	t.Setenv("REGDESK_CHECK_TIMEOUT", "2s")
	t.Setenv("REGDESK_ENV", "production")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendSQLite, cfg.Registry.Backend)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, 2*time.Second, cfg.Client.CheckTimeout)
	assert.False(t, cfg.Server.IsDevelopment())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown backend", map[string]string{"REGISTRY_BACKEND": "mongo"}, "unknown REGISTRY_BACKEND"},
		{"postgres without dsn", map[string]string{"REGISTRY_BACKEND": "postgres"}, "DATABASE_URL is required"},
		{"redis without url", map[string]string{"REGISTRY_BACKEND": "redis"}, "REDIS_URL is required"},
		{"zero buffer", map[string]string{"EVENTS_BUFFER": "0"}, "EVENTS_BUFFER must be positive"},
		{"bad duration", map[string]string{"REGDESK_CHECK_TIMEOUT": "soon"}, "parse environment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
