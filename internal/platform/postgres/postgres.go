package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolOptions sizes the connection pool behind the checkout repositories.
// Zero values fall back to DefaultPoolOptions.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolOptions keeps a small pool: staging rows are short transactions
// holding one row lock each.
var DefaultPoolOptions = PoolOptions{
	MaxOpenConns:    10,
	MaxIdleConns:    5,
	ConnMaxLifetime: 30 * time.Minute,
	PingTimeout:     5 * time.Second,
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = DefaultPoolOptions.MaxOpenConns
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = DefaultPoolOptions.MaxIdleConns
	}
	if o.MaxIdleConns > o.MaxOpenConns {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = DefaultPoolOptions.ConnMaxLifetime
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = DefaultPoolOptions.PingTimeout
	}
	return o
}

func (o PoolOptions) apply(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(o.ConnMaxLifetime)
}

// Connect opens the checkout database, sizes its pool and verifies connectivity.
// Driver errors are translated so adapters can match gorm.ErrDuplicatedKey.
// The only ping is the one bounded by PingTimeout.
func Connect(ctx context.Context, dsn string, pool PoolOptions) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	pool = pool.withDefaults()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true, DisableAutomaticPing: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pool.apply(sqlDB)
	ctx, cancel := context.WithTimeout(ctx, pool.PingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectDSN dials PostgreSQL and returns the DB plus a cleanup function.
// An empty DSN or a failed dial is logged and yields a nil DB with a no-op cleanup,
// letting callers fall back to in-memory adapters.
func ConnectDSN(ctx context.Context, dsn string, pool PoolOptions, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, staging requests in memory")
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn, pool)
	if err != nil {
		logger.Warn("failed to connect to postgres, staging requests in memory", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, staging requests in memory", slog.String("error", err.Error()))
		return nil, func() {}
	}
	stats := sqlDB.Stats()
	logger.Info("postgres connection established", slog.Int("pool.max_open", stats.MaxOpenConnections))
	return db, func() { _ = sqlDB.Close() }
}
