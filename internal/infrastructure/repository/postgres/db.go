package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS symptom_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	symptoms JSONB NOT NULL DEFAULT '[]'::jsonb,
	narrative TEXT NOT NULL DEFAULT '',
	ai_analysis JSONB NOT NULL,
	user_responses JSONB NOT NULL DEFAULT '[]'::jsonb,
	urgency_level TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symptom_sessions_user_created ON symptom_sessions(user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS doctors (
	id TEXT PRIMARY KEY,
	full_name TEXT NOT NULL,
	specialty TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	years_experience INTEGER NOT NULL DEFAULT 0,
	consultation_fee DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_available BOOLEAN NOT NULL DEFAULT TRUE,
	available_slots JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	doctor_id TEXT NOT NULL REFERENCES doctors(id),
	session_id TEXT REFERENCES symptom_sessions(id),
	appointment_date DATE NOT NULL,
	appointment_time TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	symptoms_summary TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_user_date ON appointments(user_id, appointment_date);
CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_doctor_slot
	ON appointments(doctor_id, appointment_date, appointment_time)
	WHERE status <> 'cancelled';
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}
