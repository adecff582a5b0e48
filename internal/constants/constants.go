package constants

import "time"

const (
	HintFetchTimeout = 5 * time.Second
	DatabaseTimeout  = 5 * time.Second
	MigrationTimeout = 30 * time.Second
	RequestTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns      = 16
	DBMaxIdleConns      = 4
	DBConnMaxLifetime   = 1 * time.Hour
	DBMaxIdleTime       = 10 * time.Minute
	DBBusyTimeoutMillis = 5000
)

const (
	TxMaxRetries   = 3
	TxRetryBackoff = 25 * time.Millisecond
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LookupLimit         = 25
	RatingHistoryLimit  = 50
	HintFetchConcurrent = 8
)
