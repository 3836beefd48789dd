package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/jfind/pkg/domain/interfaces"
	"github.com/m-mizutani/jfind/pkg/domain/types"
)

type scanRepository struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. Call EnsureSchema before using it.
func New(pool *pgxpool.Pool) interfaces.ScanRepository {
	return &scanRepository{pool: pool}
}

// NewDB opens a pgx pool with tuned defaults and verifies connectivity.
func NewDB(ctx context.Context, dsn types.DatabaseDSN) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn.Unmask())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse database config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping database")
	}
	return pool, nil
}

// EnsureSchema creates the scan tables if they are missing. Idempotent, run
// at startup. The partial unique index on (computer_name) WHERE most_recent
// makes a second current snapshot per host unrepresentable.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS scan_info (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  scan_ts TIMESTAMPTZ NOT NULL,
  computer_name TEXT NOT NULL,
  user_name TEXT NOT NULL,
  scan_duration TEXT NOT NULL,
  has_oracle_jdk BOOLEAN NOT NULL,
  count_result INTEGER NOT NULL,
  count_require_license INTEGER NOT NULL,
  scanned_dirs INTEGER NOT NULL,
  scan_path TEXT NOT NULL,
  platform_info TEXT,
  most_recent BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scan_info_host_ts
  ON scan_info (computer_name, scan_ts DESC);

CREATE UNIQUE INDEX IF NOT EXISTS idx_scan_info_current
  ON scan_info (computer_name) WHERE most_recent;

CREATE TABLE IF NOT EXISTS java_info (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  scan_id BIGINT NOT NULL REFERENCES scan_info(id) ON DELETE CASCADE,
  computer_name TEXT NOT NULL,
  java_executable TEXT NOT NULL,
  java_runtime TEXT,
  java_vendor TEXT,
  is_oracle BOOLEAN,
  java_version TEXT,
  java_version_major INTEGER,
  java_version_update INTEGER,
  require_license BOOLEAN,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_java_info_scan ON java_info (scan_id);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return goerr.Wrap(err, "failed to create scan tables")
	}
	return nil
}
