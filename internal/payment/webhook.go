package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
)

// WebhookPath is where YooKassa posts notifications.
const WebhookPath = "/yookassa-webhook"

// Publisher receives the premium-granted intent.
type Publisher interface {
	Publish(ctx context.Context, intents ...domain.Intent) error
}

// Verifier reports a payment's status as the provider sees it. YooKassa
// implements it.
type Verifier interface {
	PaymentStatus(ctx context.Context, providerID string) (string, error)
}

// ErrUnverified means the provider could not confirm a notification. The
// notification is answered with an error so the provider redelivers it.
var ErrUnverified = errors.New("payment status not confirmed by provider")

// Webhook settles payments from provider notifications. A success is
// re-checked with the provider before premium is granted, and grants once;
// redelivered notifications are acknowledged and ignored.
type Webhook struct {
	mu     sync.Mutex
	repo   store.PaymentRepo
	users  *store.Store
	gate   *quota.Gate
	verify Verifier
	out    Publisher
	log    *zap.Logger
}

// NewWebhook creates the notification handler.
func NewWebhook(repo store.PaymentRepo, users *store.Store, gate *quota.Gate, verify Verifier, out Publisher, log *zap.Logger) *Webhook {
	return &Webhook{repo: repo, users: users, gate: gate, verify: verify, out: out, log: log}
}

// Register mounts the handler on r.
func (w *Webhook) Register(r gin.IRoutes) {
	r.POST(WebhookPath, w.Handle)
}

// Handle answers 200 to every well-formed notification, including ones it
// could not apply, so the provider stops redelivering them. Only a failed
// provider check gets a 502.
func (w *Webhook) Handle(c *gin.Context) {
	var event map[string]interface{}
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
		return
	}
	if err := w.Process(c.Request.Context(), event); err != nil {
		w.log.Error("webhook processing failed", zap.Error(err))
		if errors.Is(err, ErrUnverified) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "retry later"})
			return
		}
	}
	c.Status(http.StatusOK)
}

// Process applies one notification.
func (w *Webhook) Process(ctx context.Context, event map[string]interface{}) error {
	object, ok := event["object"].(map[string]interface{})
	if !ok {
		return errors.New("invalid payment object")
	}
	providerID, ok := object["id"].(string)
	if !ok || providerID == "" {
		return errors.New("invalid payment ID")
	}
	status, ok := object["status"].(string)
	if !ok {
		return errors.New("invalid payment status")
	}

	log := w.log.With(zap.String("provider_id", providerID), zap.String("status", status))
	switch status {
	case domain.PaymentSucceeded:
		return w.succeed(ctx, log, providerID)
	case domain.PaymentCanceled:
		err := w.repo.UpdatePaymentStatus(ctx, providerID, status)
		if errors.Is(err, store.ErrPaymentNotFound) {
			log.Warn("canceled payment is unknown")
			return nil
		}
		return err
	case domain.PaymentPending, "waiting_for_capture":
		log.Info("payment in progress")
		return nil
	default:
		return fmt.Errorf("unexpected payment status %q", status)
	}
}

func (w *Webhook) succeed(ctx context.Context, log *zap.Logger, providerID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, err := w.repo.GetPaymentByProviderID(ctx, providerID)
	if errors.Is(err, store.ErrPaymentNotFound) {
		log.Warn("succeeded payment is unknown")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}
	if p.Status == domain.PaymentSucceeded {
		log.Info("payment already settled")
		return nil
	}

	actual, err := w.verify.PaymentStatus(ctx, providerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnverified, err)
	}
	if actual != domain.PaymentSucceeded {
		log.Warn("success notification not confirmed by provider", zap.String("provider_status", actual))
		return nil
	}

	plan := domain.PlanOrDefault(p.Plan)
	var (
		until time.Time
		zone  string
	)
	if err := w.users.Update(p.UserID, func(u *domain.User) (bool, error) {
		until = w.gate.Grant(u, plan)
		zone = u.TimeZone
		return true, nil
	}); err != nil {
		return fmt.Errorf("grant premium: %w", err)
	}
	if err := w.repo.UpdatePaymentStatus(ctx, providerID, domain.PaymentSucceeded); err != nil {
		return fmt.Errorf("mark payment settled: %w", err)
	}
	log.Info("premium granted", zap.String("user", p.UserID), zap.String("plan", plan.Name), zap.Time("until", until))

	return w.out.Publish(ctx, domain.Intent{
		UserID:   p.UserID,
		Kind:     domain.IntentPremiumGranted,
		Plan:     plan.Name,
		At:       until,
		TimeZone: zone,
	})
}
