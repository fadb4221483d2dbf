package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/reminder"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
)

// DefaultDispatchInterval is the reminder polling period.
const DefaultDispatchInterval = time.Minute

// Dispatcher delivers due reminders. Reminders are marked delivered and
// collected under one store lock, then published after it is released, so
// overlapping cycles never deliver a reminder twice.
type Dispatcher struct {
	store    *store.Store
	out      Publisher
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. A non-positive interval means
// DefaultDispatchInterval; a nil clock means time.Now.
func NewDispatcher(s *store.Store, out Publisher, log *zap.Logger, interval time.Duration, now func() time.Time) *Dispatcher {
	if interval <= 0 {
		interval = DefaultDispatchInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{store: s, out: out, log: log, interval: interval, now: now}
}

// Run starts the loop until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("dispatcher started", zap.Duration("interval", d.interval))
	loop(ctx, d.log, d.interval, d.RunOnce)
}

// RunOnce performs one dispatch cycle and returns the number of intents
// published.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now().UTC()

	var due []domain.Intent
	d.store.Sweep(func(u *domain.User) bool {
		changed := false
		for _, r := range reminder.Due(u, now) {
			in, err := domain.NewReminderDue(u.ID, r)
			if err != nil {
				// Left undelivered; the next cycle tries again.
				d.log.Error("build reminder intent failed",
					zap.String("user", u.ID), zap.Int("reminder", r.ID), zap.Error(err))
				continue
			}
			if reminder.MarkDelivered(u, r.ID) {
				changed = true
				due = append(due, in)
			}
		}
		return changed
	})

	if len(due) == 0 {
		return 0, nil
	}
	if err := publish(ctx, d.out, due); err != nil {
		return 0, fmt.Errorf("publish %d reminders: %w", len(due), err)
	}
	return len(due), nil
}
