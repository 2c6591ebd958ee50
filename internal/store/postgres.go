package store

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// NewPostgresStore connects to Postgres through the pgx stdlib driver,
// verifies the connection and runs any pending schema migrations.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	s, err := newSQLStore(ctx, db, dialectPostgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
