package cache

import (
	"context"
	"fmt"
	"match-ledger/internal/config"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHints(t *testing.T) *RedisHints {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	cfg := &config.Config{
		RedisAddr:      addr,
		RedisKeyPrefix: fmt.Sprintf("ledger-test-%d", time.Now().UnixNano()),
	}

	rdb, err := NewRedisClient(cfg)
	if err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return NewRedisHints(rdb, cfg, zerolog.Nop())
}

func TestRedisHints(t *testing.T) {
	hints := newTestHints(t)
	ctx := context.Background()
	t.Cleanup(func() { hints.rdb.Del(ctx, hints.key("guild", "1")) })

	got, err := hints.Hints(ctx, "guild", "1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, hints.SetHints(ctx, "guild", "1", "Red", "Casuals"))
	got, err = hints.Hints(ctx, "guild", "1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Red", "Casuals"}, got)

	require.NoError(t, hints.SetHints(ctx, "guild", "1", "Blue"))
	got, err = hints.Hints(ctx, "guild", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue"}, got)

	got, err = hints.Hints(ctx, "other", "1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, hints.SetHints(ctx, "guild", "1"))
	got, err = hints.Hints(ctx, "guild", "1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisHints_Key(t *testing.T) {
	h := &RedisHints{prefix: "affiliation"}
	assert.Equal(t, "affiliation:guild:42", h.key("guild", "42"))
}
