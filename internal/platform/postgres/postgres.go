// Package postgres opens the optional manifest ledger database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lineforge/weekboard/internal/platform/env"
)

type Config struct {
	URL             string
	PingTimeout     time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ConfigFromEnv reads the ledger database configuration. An empty
// WEEKBOARD_DATABASE_URL means the ledger is disabled.
func ConfigFromEnv() (Config, error) {
	pingTimeout, err := env.Duration("WEEKBOARD_DB_PING_TIMEOUT", 2*time.Second)
	if err != nil {
		return Config{}, err
	}
	maxOpenConns, err := env.Int("WEEKBOARD_DB_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := env.Int("WEEKBOARD_DB_MAX_IDLE_CONNS", 2)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := env.Duration("WEEKBOARD_DB_CONN_MAX_LIFETIME", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	connMaxIdleTime, err := env.Duration("WEEKBOARD_DB_CONN_MAX_IDLE_TIME", 5*time.Minute)
	if err != nil {
		return Config{}, err
	}
	return Config{
		URL:             env.String("WEEKBOARD_DATABASE_URL", ""),
		PingTimeout:     pingTimeout,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		ConnMaxIdleTime: connMaxIdleTime,
	}, nil
}

// Enabled reports whether a ledger database is configured.
func (c Config) Enabled() bool { return c.URL != "" }

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("WEEKBOARD_DATABASE_URL is required")
	}
	if c.PingTimeout <= 0 {
		return errors.New("WEEKBOARD_DB_PING_TIMEOUT must be positive")
	}
	if c.MaxOpenConns < 1 {
		return errors.New("WEEKBOARD_DB_MAX_OPEN_CONNS must be >= 1")
	}
	if c.MaxIdleConns < 0 {
		return errors.New("WEEKBOARD_DB_MAX_IDLE_CONNS must be >= 0")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("WEEKBOARD_DB_MAX_IDLE_CONNS must be <= WEEKBOARD_DB_MAX_OPEN_CONNS")
	}
	return nil
}

func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
