package store

import (
	"context"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// Persister is the durable snapshot behind Store. Loads and saves are whole
// snapshots; there are no partial-record writes.
type Persister interface {
	// LoadAll returns every user. Undecodable payloads yield *domain.CorruptStoreError.
	LoadAll(ctx context.Context) (map[string]*domain.User, error)
	// SaveAll replaces the persisted snapshot. Failures are *domain.PersistenceError.
	SaveAll(ctx context.Context, users map[string]*domain.User) error
}

// PaymentRepo stores pending and settled checkouts.
type PaymentRepo interface {
	CreatePayment(ctx context.Context, p *domain.Payment) error
	GetPaymentByProviderID(ctx context.Context, providerID string) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, providerID, status string) error
}
