package localstorage_adapter

import (
	"context"
	"errors"
	"fmt"
	"propertify-view-service/internal/contextkeys"
	"propertify-view-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier - подмножество *pgxpool.Pool, которое нужно хранилищу.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createTableQuery = `
CREATE TABLE IF NOT EXISTS client_local_storage (
	scope      TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (scope, key)
)`

// PostgresStorage хранит значения клиентов в таблице client_local_storage.
type PostgresStorage struct {
	db querier
}

func NewPostgresStorage(db querier) (*PostgresStorage, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres pool cannot be nil")
	}
	return &PostgresStorage{db: db}, nil
}

// EnsureSchema создает таблицу, если ее нет.
func (s *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create client_local_storage: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM client_local_storage WHERE scope = $1 AND key = $2`, scope, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		contextkeys.LoggerFromContext(ctx).Error("Failed to read local storage value", err, port.Fields{
			"component": "PostgresStorage",
			"scope":     scope,
			"key":       key,
		})
		return "", false, fmt.Errorf("failed to get %s/%s: %w", scope, key, err)
	}
	return value, true, nil
}

func (s *PostgresStorage) Set(ctx context.Context, scope, key, value string) error {
	query := `
		INSERT INTO client_local_storage (scope, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
	if _, err := s.db.Exec(ctx, query, scope, key, value); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *PostgresStorage) Remove(ctx context.Context, scope, key string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM client_local_storage WHERE scope = $1 AND key = $2`, scope, key)
	if err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", scope, key, err)
	}
	if tag.RowsAffected() == 0 {
		contextkeys.LoggerFromContext(ctx).Debug("Nothing to remove", port.Fields{"scope": scope, "key": key})
	}
	return nil
}
