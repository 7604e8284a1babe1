package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
)

// PostgresStore shares preferences between dashboard replicas through a preferences table.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT NOW()
	)`)
	return err
}

func (s *PostgresStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	raw, found, err := s.GetString(ctx, key)
	if err != nil || !found {
		return false, found, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, true, wrongType(key, raw)
	}
	return b, true, nil
}

func (s *PostgresStore) SetBool(ctx context.Context, key string, value bool) error {
	return s.SetString(ctx, key, strconv.FormatBool(value))
}

func (s *PostgresStore) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query preference %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) SetString(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO preferences (key, value, updated_at) VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, key, value)
	if err != nil {
		return fmt.Errorf("upsert preference %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
