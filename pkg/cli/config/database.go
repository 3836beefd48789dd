package config

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/jfind/pkg/domain/interfaces"
	"github.com/m-mizutani/jfind/pkg/domain/types"
	"github.com/m-mizutani/jfind/pkg/repository/postgres"
	"github.com/urfave/cli/v3"
)

type Database struct {
	dsn string
}

func (x *Database) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "database-dsn",
			Usage:       "PostgreSQL connection string",
			Category:    "Database",
			Sources:     cli.EnvVars("JFIND_DATABASE_DSN"),
			Destination: &x.dsn,
			Required:    true,
		},
	}
}

func (x *Database) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("dsn", types.DatabaseDSN(x.dsn)),
	)
}

// NewRepository opens the connection pool, ensures the schema exists, and
// returns the scan repository with the pool for lifecycle management.
func (x *Database) NewRepository(ctx context.Context) (interfaces.ScanRepository, *pgxpool.Pool, error) {
	pool, err := postgres.NewDB(ctx, types.DatabaseDSN(x.dsn))
	if err != nil {
		return nil, nil, err
	}

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return postgres.New(pool), pool, nil
}
