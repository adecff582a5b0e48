package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Hint sources for participant affiliations.
const (
	HintSourceStatic = "static"
	HintSourceHTTP   = "http"
	HintSourceRedis  = "redis"
)

type Config struct {
	DBPath     string `env:"DB_PATH" envDefault:"ledger.db"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	HintSource     string        `env:"HINT_SOURCE" envDefault:"static"`
	HintAPIURL     string        `env:"HINT_API_URL"`
	HintAPIKey     string        `env:"HINT_API_KEY"`
	HintAPITimeout time.Duration `env:"HINT_API_TIMEOUT" envDefault:"5s"`

	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"affiliation"`

	TxMaxRetries uint64 `env:"TX_MAX_RETRIES" envDefault:"3"`
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("hint_source", cfg.HintSource).
		Uint64("tx_max_retries", cfg.TxMaxRetries).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.HintSource {
	case HintSourceStatic, HintSourceRedis:
	case HintSourceHTTP:
		if c.HintAPIURL == "" {
			return fmt.Errorf("HINT_API_URL is required when HINT_SOURCE=%s", HintSourceHTTP)
		}
	default:
		return fmt.Errorf("unknown HINT_SOURCE %q", c.HintSource)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

var Module = fx.Provide(Load)
