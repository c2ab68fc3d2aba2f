// Package postgres implements the PersistenceGateway against a PostgreSQL
// database: a pgxpool.Pool wrapped by typed, parameterized operations.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zk-passport/tee-prover-server/internal/rpcerr"
)

// Gateway is the PersistenceGateway: typed operations against the proofs
// table. The record operations (Create, MarkWitnessGenerated,
// UpdateWithProof, Fail, Get) fail with rpcerr.KindPersistenceError on
// database error; Ping returns the driver's error unwrapped.
type Gateway struct {
	pool *pgxpool.Pool
}

// Config holds the PostgreSQL connection parameters. The operator supplies
// a single connection URL on the CLI; Config is parsed from it.
type Config struct {
	ConnString string
	MaxConns   int32 // recommended 20
}

// NewGateway opens a connection pool and verifies connectivity.
func NewGateway(ctx context.Context, cfg Config) (*Gateway, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Gateway{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (g *Gateway) Close() { g.pool.Close() }

// Ping checks database connectivity.
func (g *Gateway) Ping(ctx context.Context) error { return g.pool.Ping(ctx) }

func wrapDBErr(op string, err error) error {
	return rpcerr.Wrap(rpcerr.KindPersistenceError, op, err)
}
