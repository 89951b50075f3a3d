package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/boundary/internal/host"
)

// Area is a persistent key/value storage area. It implements host.Storage
// so the localStorage and sessionStorage effects survive restarts.
type Area struct {
	s    *Store
	name string
}

var _ host.Storage = (*Area)(nil)

// Area returns the storage area called name.
func (s *Store) Area(name string) *Area {
	return &Area{s: s, name: name}
}

// Name returns the area name.
func (a *Area) Name() string { return a.name }

// GetItem implements host.Storage.
func (a *Area) GetItem(key string) (string, bool, error) {
	var value string
	err := a.s.db.QueryRowContext(context.Background(), `
		SELECT value FROM storage_items WHERE area = ? AND key = ?
	`, a.name, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s item %q: %w", a.name, key, err)
	}
	return value, true, nil
}

// SetItem implements host.Storage. Later writes replace earlier ones.
func (a *Area) SetItem(key, value string) error {
	_, err := a.s.db.ExecContext(context.Background(), `
		INSERT INTO storage_items (area, key, value) VALUES (?, ?, ?)
		ON CONFLICT(area, key) DO UPDATE SET value = excluded.value
	`, a.name, key, value)
	if err != nil {
		return fmt.Errorf("set %s item %q: %w", a.name, key, err)
	}
	return nil
}

// Keys returns the keys of the area in byte order.
func (a *Area) Keys(ctx context.Context) ([]string, error) {
	rows, err := a.s.db.QueryContext(ctx, `
		SELECT key FROM storage_items WHERE area = ? ORDER BY key COLLATE BINARY ASC
	`, a.name)
	if err != nil {
		return nil, fmt.Errorf("list %s keys: %w", a.name, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan %s key: %w", a.name, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Clear removes every item of the area. sessionStorage is cleared at the
// start of each run.
func (a *Area) Clear(ctx context.Context) error {
	if _, err := a.s.db.ExecContext(ctx, `DELETE FROM storage_items WHERE area = ?`, a.name); err != nil {
		return fmt.Errorf("clear %s: %w", a.name, err)
	}
	return nil
}
