// Package store is the Postgres-backed persistence layer for every other
// package: jobs.Store, the archive metadata cache, and the per-module
// config/events tables. Connection pooling follows
// malbeclabs-doublezero's lake/api/config/postgres.go (pgxpool.Pool sized
// with Min/MaxConns and a ping on startup); schema application uses
// database/sql + lib/pq so the same schema.sql also works with plain
// migration tooling that expects a database/sql.DB.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// Store is the aggregate handle every engine package depends on: it holds
// a pgx pool (the hot path for all query/upsert methods). schema.sql is
// applied through a short-lived lib/pq *sql.DB opened inside migrate,
// since pgx's extended-query protocol rejects the multi-statement DDL file.
type Store struct {
	Pool *pgxpool.Pool
	log  *logrus.Entry
}

// Config holds the connection parameters for Open.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	return c
}

// Open parses cfg, establishes a pool, pings it, and applies schema.sql.
func Open(ctx context.Context, cfg Config, log *logrus.Entry) (*Store, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	cfg = cfg.withDefaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "store: parse dsn")
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, "store: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "store: ping")
	}

	s := &Store{Pool: pool, log: log}
	if err := s.migrate(cfg.DSN); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies schema.sql via database/sql + lib/pq, since the schema
// contains multiple DDL statements separated by semicolons that pgx's
// pool.Exec (a single extended-protocol statement) does not accept.
func (s *Store) migrate(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return errors.Wrap(err, "store: open lib/pq handle for migration")
	}
	defer db.Close()

	s.log.Info("applying schema")
	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "store: apply schema")
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.Pool.Close()
}
