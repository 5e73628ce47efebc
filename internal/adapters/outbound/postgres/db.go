// Package postgres provides PostgreSQL adapters for the gateway's audit trail
// and signal history.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// defaultApplicationName shows up in pg_stat_activity.
	defaultApplicationName = "mt5-gateway"
	minPoolConns           = 4
)

// PoolConfig holds configuration for the gateway's connection pool.
type PoolConfig struct {
	// URL is the PostgreSQL connection string.
	URL string

	// ApplicationName is reported to the server unless the URL sets one.
	ApplicationName string

	// ConnectorConcurrency is the number of connector runs allowed at once.
	// Every in-flight manual trade holds an audit insert and later a
	// completion update, so the pool is sized from it.
	ConnectorConcurrency int64

	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PoolConfigDefaults returns a PoolConfig for the given URL and connector
// concurrency.
func PoolConfigDefaults(url string, connectorConcurrency int64) PoolConfig {
	return PoolConfig{
		URL:                  url,
		ApplicationName:      defaultApplicationName,
		ConnectorConcurrency: connectorConcurrency,
		MaxConnLifetime:      30 * time.Minute,
		MaxConnIdleTime:      5 * time.Minute,
	}
}

// MaxConns is two connections per concurrent connector run plus headroom
// for signal writes and readiness pings.
func (c PoolConfig) MaxConns() int32 {
	n := 2*c.ConnectorConcurrency + 2
	if n < minPoolConns {
		n = minPoolConns
	}
	return int32(n)
}

func (c PoolConfig) pgxConfig() (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	poolConfig.MaxConns = c.MaxConns()
	poolConfig.MinConns = 1
	if c.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = c.MaxConnIdleTime
	}

	params := poolConfig.ConnConfig.RuntimeParams
	if _, ok := params["application_name"]; !ok && c.ApplicationName != "" {
		params["application_name"] = c.ApplicationName
	}
	return poolConfig, nil
}

// OpenPool connects and pings the database. The caller closes the pool.
func OpenPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
