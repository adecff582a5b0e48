package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "ledger.db", cfg.DBPath)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, HintSourceStatic, cfg.HintSource)
	assert.Equal(t, 5*time.Second, cfg.HintAPITimeout)
	assert.Equal(t, "affiliation", cfg.RedisKeyPrefix)
	assert.Equal(t, uint64(3), cfg.TxMaxRetries)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("HINT_SOURCE", HintSourceHTTP)
	t.Setenv("HINT_API_URL", "http://directory.local")
	t.Setenv("HINT_API_TIMEOUT", "750ms")
	t.Setenv("TX_MAX_RETRIES", "5")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, HintSourceHTTP, cfg.HintSource)
	assert.Equal(t, 750*time.Millisecond, cfg.HintAPITimeout)
	assert.Equal(t, uint64(5), cfg.TxMaxRetries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"static", Config{HintSource: HintSourceStatic, LogLevel: "info"}, ""},
		{"redis", Config{HintSource: HintSourceRedis, LogLevel: "debug"}, ""},
		{"http without url", Config{HintSource: HintSourceHTTP, LogLevel: "info"}, "HINT_API_URL"},
		{"unknown source", Config{HintSource: "ldap", LogLevel: "info"}, "unknown HINT_SOURCE"},
		{"bad level", Config{HintSource: HintSourceStatic, LogLevel: "loud"}, "invalid LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
