package cache

import (
	"context"
	"fmt"
	"match-ledger/internal/config"
	"match-ledger/internal/constants"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisHints serves affiliation hints from Redis sets keyed
// {prefix}:{namespace}:{externalID}.
type RedisHints struct {
	rdb    *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisClient connects to the configured Redis and checks it answers.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.HintFetchTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}

func NewRedisHints(rdb *redis.Client, cfg *config.Config, logger zerolog.Logger) *RedisHints {
	return &RedisHints{rdb: rdb, prefix: cfg.RedisKeyPrefix, logger: logger}
}

func (h *RedisHints) key(namespace, externalID string) string {
	return h.prefix + ":" + namespace + ":" + externalID
}

func (h *RedisHints) Hints(ctx context.Context, namespace, externalID string) ([]string, error) {
	hints, err := h.rdb.SMembers(ctx, h.key(namespace, externalID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hints for %s: %w", externalID, err)
	}
	return hints, nil
}

// SetHints replaces the hints of one participant.
func (h *RedisHints) SetHints(ctx context.Context, namespace, externalID string, hints ...string) error {
	key := h.key(namespace, externalID)
	_, err := h.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(hints) > 0 {
			members := make([]interface{}, len(hints))
			for i, hint := range hints {
				members[i] = hint
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store hints for %s: %w", externalID, err)
	}
	h.logger.Debug().Str("namespace", namespace).Str("external_id", externalID).Int("hints", len(hints)).Msg("hints stored")
	return nil
}
