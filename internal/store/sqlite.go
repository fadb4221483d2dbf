package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// ErrPaymentNotFound is returned for an unknown provider payment id.
var ErrPaymentNotFound = errors.New("payment not found")

// SQLite persists user snapshots and payments in an embedded database.
type SQLite struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLite) Close() error {
	return r.db.Close()
}

// LoadAll decodes every user row. Any undecodable payload makes the whole
// load fail with *domain.CorruptStoreError naming the bad rows.
func (r *SQLite) LoadAll(ctx context.Context) (map[string]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, payload FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]*domain.User)
	var (
		bad     []string
		firstEr error
	)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		u, err := decodeUser(id, payload)
		if err != nil {
			bad = append(bad, id)
			if firstEr == nil {
				firstEr = err
			}
			continue
		}
		users[id] = u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bad) > 0 {
		return nil, &domain.CorruptStoreError{IDs: bad, Err: firstEr}
	}
	return users, nil
}

// SaveAll replaces the users table with the snapshot in one transaction.
func (r *SQLite) SaveAll(ctx context.Context, users map[string]*domain.User) error {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.PersistenceError{Op: "begin snapshot", Err: err}
	}
	fail := func(op string, err error) error {
		_ = tx.Rollback()
		return &domain.PersistenceError{Op: op, Err: err}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fail("clear snapshot", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (id, payload, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fail("prepare snapshot", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Unix()
	for _, id := range ids {
		payload, err := encodeUser(users[id])
		if err != nil {
			return fail("encode user "+id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, payload, now); err != nil {
			return fail("write user "+id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit snapshot", Err: err}
	}
	return nil
}

// CreatePayment inserts a checkout record.
func (r *SQLite) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if p == nil {
		return errors.New("nil payment")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, user_id, provider_id, plan, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.ProviderID, p.Plan, p.Amount, p.Status,
		p.CreatedAt.UTC().Unix(), toNullInt64(p.UpdatedAt),
	)
	return err
}

// GetPaymentByProviderID returns the checkout created for a provider payment.
func (r *SQLite) GetPaymentByProviderID(ctx context.Context, providerID string) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider_id, plan, amount, status, created_at, updated_at
		FROM payments
		WHERE provider_id = ?`,
		providerID,
	)

	var (
		p         domain.Payment
		createdAt int64
		updatedNS sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.ProviderID, &p.Plan, &p.Amount, &p.Status, &createdAt, &updatedNS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = fromNullInt64(updatedNS)
	return &p, nil
}

// UpdatePaymentStatus sets the provider status of a checkout.
func (r *SQLite) UpdatePaymentStatus(ctx context.Context, providerID, status string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET status = ?, updated_at = ?
		WHERE provider_id = ?`,
		status, toNullInt64(&now), providerID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
