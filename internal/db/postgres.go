package db

import (
	"context"
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Expected schema:
//
//	CREATE TABLE users (
//	    id            TEXT PRIMARY KEY,
//	    username      TEXT UNIQUE NOT NULL,
//	    password_hash TEXT NOT NULL,
//	    name          TEXT,
//	    phone         TEXT,
//	    address       TEXT,
//	    photo_url     TEXT,
//	    role          TEXT NOT NULL DEFAULT 'driver',
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
//	CREATE TABLE route_documents (
//	    user_id    TEXT PRIMARY KEY,
//	    doc        JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);

var newPoolFn = pgxpool.New
var pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := pingPoolFn(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
