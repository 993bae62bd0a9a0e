package store

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/catalogsvc/internal/config"
	"github.com/JonMunkholm/catalogsvc/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend is a core.Store that can also manage its own schema and data.
type Backend interface {
	core.Store
	Migrate(ctx context.Context) error
	Reset(ctx context.Context) error
}

var (
	_ Backend = (*Postgres)(nil)
	_ Backend = (*Memory)(nil)
)

// Open returns the backend selected by cfg.Driver. The returned close
// function releases the connection pool, if any.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Backend, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on exit")
		return NewMemory(), func() {}, nil
	case config.DriverPostgres, "":
		pool, err := connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
