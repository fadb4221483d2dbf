package store

import (
	"context"
	"time"
)

// CorruptForTest writes a raw payload row, bypassing encoding.
func CorruptForTest(ctx context.Context, r *SQLite, id, payload string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, payload, updated_at) VALUES (?, ?, ?)`,
		id, payload, time.Now().Unix())
	return err
}
