package fx

import (
	"context"
	"match-ledger/internal/api"
	"match-ledger/internal/cache"
	"match-ledger/internal/config"
	"match-ledger/internal/database"
	"match-ledger/internal/logger"
	"match-ledger/internal/repository"
	"match-ledger/internal/server"
	"match-ledger/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideHintSource picks the affiliation source named by HINT_SOURCE.
func ProvideHintSource(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (service.HintSource, error) {
	switch cfg.HintSource {
	case config.HintSourceHTTP:
		logger.Info().Str("url", cfg.HintAPIURL).Msg("using HTTP affiliation hints")
		return api.NewHintClient(cfg), nil
	case config.HintSourceRedis:
		rdb, err := cache.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return rdb.Close()
			},
		})
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using Redis affiliation hints")
		return cache.NewRedisHints(rdb, cfg, logger), nil
	default:
		logger.Info().Msg("using static affiliation hints")
		return service.NewStaticHints(), nil
	}
}

// levelLogger applies LOG_LEVEL to every logger handed out inside the ledger
// module. Configuration itself is loaded with the base logger.
func levelLogger(base zerolog.Logger, cfg *config.Config) zerolog.Logger {
	return logger.Leveled(base, cfg.LogLevel)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Module("ledger",
		fx.Decorate(levelLogger),
		fx.Provide(database.New),
		// store
		fx.Provide(repository.NewStore),
		// hints
		fx.Provide(ProvideHintSource),
		// svc
		fx.Provide(service.NewAffiliationResolver),
		fx.Provide(service.NewSquadResolver),
		fx.Provide(service.NewLookupService),
		fx.Provide(service.NewMatchService),
		fx.Provide(service.NewTeamService),
		fx.Provide(service.NewParticipantService),
		fx.Provide(service.NewFlairService),
		// server
		fx.Provide(server.NewLedgerServer),
	),
)
