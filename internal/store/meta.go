package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetMeta reads one key from the meta table. ok is false when the key is not
// set.
func GetMeta(ctx context.Context, q Queryer, key string) (value string, ok bool, err error) {
	row := q.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetMeta writes one key in the meta table, replacing any existing value.
func SetMeta(ctx context.Context, q Queryer, key, value string) error {
	_, err := q.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}
