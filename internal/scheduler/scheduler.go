// Package scheduler runs the background workers that scan the user store on
// a fixed interval: the reminder dispatcher and the premium expiry sweeper.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// Publisher receives the intents produced by a cycle. outbox.Queue
// implements it.
type Publisher interface {
	Publish(ctx context.Context, intents ...domain.Intent) error
}

// publishTimeout bounds the hand-off of intents whose records were already
// changed. It does not follow the cycle's cancellation, so a shutdown
// arriving mid-cycle still queues them.
const publishTimeout = 10 * time.Second

// cycle is one scan; it returns the number of intents it produced.
type cycle func(ctx context.Context) (int, error)

// loop calls fn every interval until ctx is canceled.
func loop(ctx context.Context, log *zap.Logger, interval time.Duration, fn cycle) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopping")
			return
		case <-ticker.C:
			n, err := safe(ctx, fn)
			if err != nil {
				log.Error("scheduler cycle failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("scheduler cycle", zap.Int("intents", n))
			}
		}
	}
}

// safe runs fn and turns a panic into an error so one bad cycle does not
// stop the worker.
func safe(ctx context.Context, fn cycle) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in cycle: %v", r)
		}
	}()
	return fn(ctx)
}

func publish(ctx context.Context, out Publisher, intents []domain.Intent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return out.Publish(ctx, intents...)
}
