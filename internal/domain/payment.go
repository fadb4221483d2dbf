package domain

import "time"

// Payment statuses reported by the provider.
const (
	PaymentPending   = "pending"
	PaymentSucceeded = "succeeded"
	PaymentCanceled  = "canceled"
)

// Payment links a provider checkout to the user and plan it was created for.
type Payment struct {
	ID         string
	UserID     string
	ProviderID string
	Plan       string
	Amount     string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}
