package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
)

// DefaultSweepInterval is the premium expiry polling period.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper demotes users whose premium expired or whose expiry cannot be
// parsed. It is the only writer that turns Premium off.
type Sweeper struct {
	store    *store.Store
	gate     *quota.Gate
	out      Publisher
	log      *zap.Logger
	interval time.Duration
}

// NewSweeper creates a sweeper. A non-positive interval means
// DefaultSweepInterval.
func NewSweeper(s *store.Store, gate *quota.Gate, out Publisher, log *zap.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{store: s, gate: gate, out: out, log: log, interval: interval}
}

// Run starts the loop until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("premium sweeper started", zap.Duration("interval", s.interval))
	loop(ctx, s.log, s.interval, s.RunOnce)
}

// RunOnce performs one sweep and returns the number of users demoted.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	var expired []domain.Intent
	s.store.Sweep(func(u *domain.User) bool {
		if !s.gate.Expired(u) {
			return false
		}
		if _, err := u.PremiumExpiry(); err != nil {
			s.log.Warn("demoting user with unreadable premium expiry",
				zap.String("user", u.ID), zap.String("until", u.PremiumUntil))
		}
		s.gate.Demote(u)
		expired = append(expired, domain.Intent{UserID: u.ID, Kind: domain.IntentPremiumExpired})
		return true
	})

	if len(expired) == 0 {
		return 0, nil
	}
	if err := publish(ctx, s.out, expired); err != nil {
		return 0, fmt.Errorf("publish %d expiries: %w", len(expired), err)
	}
	return len(expired), nil
}
