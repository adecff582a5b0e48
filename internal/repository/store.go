package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"match-ledger/internal/config"
	"match-ledger/internal/constants"
	"match-ledger/internal/db"
	"match-ledger/internal/domain"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Repos bundles every repository over one set of queries, either the pool or
// a single transaction.
type Repos struct {
	Participants  *ParticipantRepository
	Teams         *TeamRepository
	Squads        *SquadRepository
	Matches       *MatchRepository
	Flairs        *FlairRepository
	RatingChanges *RatingChangeRepository
}

func newRepos(q *db.Queries, logger zerolog.Logger) *Repos {
	return &Repos{
		Participants:  NewParticipantRepository(q, logger),
		Teams:         NewTeamRepository(q, logger),
		Squads:        NewSquadRepository(q, logger),
		Matches:       NewMatchRepository(q, logger),
		Flairs:        NewFlairRepository(q, logger),
		RatingChanges: NewRatingChangeRepository(q, logger),
	}
}

type Store struct {
	db         *sql.DB
	queries    *db.Queries
	repos      *Repos
	maxRetries uint64
	logger     zerolog.Logger
}

func NewStore(sqlDB *sql.DB, cfg *config.Config, logger zerolog.Logger) *Store {
	queries := db.New(sqlDB)
	maxRetries := cfg.TxMaxRetries
	if maxRetries == 0 {
		maxRetries = constants.TxMaxRetries
	}
	return &Store{
		db:         sqlDB,
		queries:    queries,
		repos:      newRepos(queries, logger),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Repos returns repositories bound to the connection pool, for reads outside a
// transaction.
func (s *Store) Repos() *Repos {
	return s.repos
}

// InTx runs fn inside one write transaction. The transaction is retried when
// SQLite reports the database busy or locked; any other error, ledger errors
// included, rolls back and is returned as is.
func (s *Store) InTx(ctx context.Context, fn func(r *Repos) error) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(constants.TxRetryBackoff))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := s.runTx(ctx, fn)
		if err != nil && isBusy(err) {
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("database busy, retrying transaction")
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *Store) runTx(ctx context.Context, fn func(r *Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newRepos(s.queries.WithTx(tx), s.logger)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isBusy(err error) bool {
	if domain.IsDomain(err) {
		return false
	}
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// notFound maps sql.ErrNoRows onto a ledger not-found error and wraps anything
// else as an infrastructure failure.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf(format, args...)
	}
	return fmt.Errorf("failed to load "+format+": %w", append(args, err)...)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
