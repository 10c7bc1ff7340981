package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pilots (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	pass_hash TEXT NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id BIGSERIAL PRIMARY KEY,
	pilot_name TEXT NOT NULL,
	pilot_id BIGINT NOT NULL DEFAULT 0,
	score INTEGER NOT NULL DEFAULT 0,
	seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	encircled INTEGER NOT NULL DEFAULT 0,
	loops INTEGER NOT NULL DEFAULT 0,
	cause TEXT NOT NULL DEFAULT '',
	ended_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL,
	arena_id TEXT NOT NULL DEFAULT '',
	pilot_id BIGINT NOT NULL DEFAULT 0,
	data JSONB NOT NULL DEFAULT '{}',
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC);
CREATE INDEX IF NOT EXISTS idx_runs_pilot ON runs(pilot_id);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
`

// OpenPostgres connects to PostgreSQL and creates the schema if needed
func OpenPostgres(dsn string) (*sqlStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty connection string (set DATABASE_URL or -db)")
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.Exec(postgresSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &sqlStore{conn: conn, dollar: true, isUnique: postgresUnique}, nil
}

func postgresUnique(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
