package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ccms/internal/ports"
)

// Repository is the SQL-backed store for tenants, chain configs, research and runs.
// It works against Postgres (lib/pq) and SQLite (modernc) with the same queries.
type Repository struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
}

var (
	_ ports.ConfigStore   = (*Repository)(nil)
	_ ports.ResearchStore = (*Repository)(nil)
	_ ports.RunRecorder   = (*Repository)(nil)
)

// Open connects to the database using the named driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// NewRepository wires a sql.DB for the given driver's placeholder style.
func NewRepository(db *sql.DB, driver string) *Repository {
	format := sq.Question
	if driver == "postgres" {
		format = sq.Dollar
	}
	return &Repository{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(format),
	}
}

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("database is not configured")
	}
	return r.db.PingContext(ctx)
}

// Close releases the underlying pool.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) exec(ctx context.Context, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

func (r *Repository) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.db.QueryRowContext(ctx, query, args...), nil
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(raw), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
