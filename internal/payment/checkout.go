// Package payment sells premium plans through YooKassa: it creates redirect
// checkouts and settles them from provider notifications.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rvinnie/yookassa-sdk-go/yookassa"
	yoocommon "github.com/rvinnie/yookassa-sdk-go/yookassa/common"
	yoopayment "github.com/rvinnie/yookassa-sdk-go/yookassa/payment"
	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
)

// ErrNoRedirect is returned when the provider answers without a payment page.
var ErrNoRedirect = errors.New("redirect URL not found")

// provider is the part of the YooKassa SDK the checkout uses.
type provider interface {
	CreatePayment(p *yoopayment.Payment) (*yoopayment.Payment, error)
	FindPayment(id string) (*yoopayment.Payment, error)
}

// YooKassa creates checkouts and records them as pending payments.
type YooKassa struct {
	payments  provider
	repo      store.PaymentRepo
	returnURL string
	log       *zap.Logger
	now       func() time.Time
}

// NewYooKassa creates a checkout for the given shop credentials.
func NewYooKassa(shopID, secretKey, returnURL string, repo store.PaymentRepo, log *zap.Logger) *YooKassa {
	return newYooKassa(
		yookassa.NewPaymentHandler(yookassa.NewClient(shopID, secretKey)),
		repo, returnURL, log,
	)
}

func newYooKassa(p provider, repo store.PaymentRepo, returnURL string, log *zap.Logger) *YooKassa {
	return &YooKassa{payments: p, repo: repo, returnURL: returnURL, log: log, now: time.Now}
}

// CreatePayment creates a redirect payment for plan and returns its page URL.
func (y *YooKassa) CreatePayment(ctx context.Context, userID string, plan domain.Plan) (string, error) {
	paymentID := uuid.New()

	created, err := y.payments.CreatePayment(&yoopayment.Payment{
		Amount: &yoocommon.Amount{
			Value:    plan.Amount,
			Currency: "RUB",
		},
		Confirmation: yoopayment.Redirect{
			Type:      "redirect",
			ReturnURL: y.returnURL,
		},
		Capture:     true,
		Description: plan.Describe,
	})
	if err != nil {
		return "", fmt.Errorf("yookassa create payment: %w", err)
	}

	createdAt := y.now().UTC()
	if created.CreatedAt != nil {
		createdAt = created.CreatedAt.UTC()
	}
	status := string(created.Status)
	if status == "" {
		status = domain.PaymentPending
	}
	rec := &domain.Payment{
		ID:         paymentID.String(),
		UserID:     userID,
		ProviderID: created.ID,
		Plan:       plan.Name,
		Amount:     plan.Amount,
		Status:     status,
		CreatedAt:  createdAt,
	}
	if err := y.repo.CreatePayment(ctx, rec); err != nil {
		return "", fmt.Errorf("save payment %s: %w", created.ID, err)
	}
	y.log.Info("payment created",
		zap.String("user", userID),
		zap.String("plan", plan.Name),
		zap.String("provider_id", created.ID),
	)

	if confirmation, ok := created.Confirmation.(map[string]interface{}); ok {
		if url, ok := confirmation["confirmation_url"].(string); ok && url != "" {
			return url, nil
		}
	}
	return "", ErrNoRedirect
}

// PaymentStatus asks the provider for the current status of a payment.
func (y *YooKassa) PaymentStatus(_ context.Context, providerID string) (string, error) {
	p, err := y.payments.FindPayment(providerID)
	if err != nil {
		return "", fmt.Errorf("yookassa find payment %s: %w", providerID, err)
	}
	if p == nil {
		return "", fmt.Errorf("yookassa find payment %s: empty response", providerID)
	}
	return string(p.Status), nil
}
