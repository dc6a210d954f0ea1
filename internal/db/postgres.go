package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

type Postgres struct {
	Pool *pgxpool.Pool
}

// New opens a pool and pings it, retrying while the database comes up.
func New(ctx context.Context, cfg config.PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres connstr: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres connection pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = dbPool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			dbPool.Close()
			return nil, fmt.Errorf("failed to ping db after %d attempts: %w", attempt, err)
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("db: postgres not ready, retrying")
		select {
		case <-ctx.Done():
			dbPool.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff * time.Duration(attempt)):
		}
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("db: connected to PostgreSQL")
	return &Postgres{Pool: dbPool}, nil
}

func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
		log.Info().Msg("db: database connection closed")
	}
}
