package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

const (
	shardBuffer = 16
	sealWait    = 10 * time.Second
)

// Poll handles updates on workers goroutines until ctx is canceled or
// updates is closed. Updates from one user always land on the same worker,
// so each user's turns are handled in arrival order.
func (r *Router) Poll(ctx context.Context, updates <-chan tgbotapi.Update, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)

	shards := make([]chan tgbotapi.Update, workers)
	for i := range shards {
		ch := make(chan tgbotapi.Update, shardBuffer)
		shards[i] = ch
		g.Go(func() error {
			for upd := range ch {
				r.HandleUpdate(ctx, upd)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, ch := range shards {
				close(ch)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case upd, ok := <-updates:
				if !ok {
					return nil
				}
				select {
				case shards[shard(upd, workers)] <- upd:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return g.Wait()
}

// Source is the outbox side Drain reads from.
type Source interface {
	C() <-chan domain.Intent
	Done() <-chan struct{}
}

// Drain delivers queued intents until src is closed. After ctx is canceled
// it waits up to sealWait for src to close, then delivers what is still
// buffered before returning, so notifications already taken off the
// schedule survive a graceful shutdown.
func (r *Router) Drain(ctx context.Context, src Source) error {
	for {
		select {
		case in, ok := <-src.C():
			if !ok {
				return nil
			}
			r.Deliver(in)
		case <-src.Done():
			r.flush(src)
			return nil
		case <-ctx.Done():
			r.settle(src)
			return nil
		}
	}
}

// settle keeps delivering after cancellation until src is sealed or
// sealWait passes, then flushes the buffer.
func (r *Router) settle(src Source) {
	t := time.NewTimer(sealWait)
	defer t.Stop()
	for {
		select {
		case in, ok := <-src.C():
			if !ok {
				return
			}
			r.Deliver(in)
		case <-src.Done():
			r.flush(src)
			return
		case <-t.C:
			r.log.Warn("outbox still open at shutdown, flushing anyway")
			r.flush(src)
			return
		}
	}
}

func (r *Router) flush(src Source) {
	n := 0
	defer func() {
		if n > 0 {
			r.log.Info("outbox flushed", zap.Int("intents", n))
		}
	}()
	for {
		select {
		case in, ok := <-src.C():
			if !ok {
				return
			}
			r.Deliver(in)
			n++
		default:
			return
		}
	}
}

func shard(upd tgbotapi.Update, n int) int {
	var id int64
	switch {
	case upd.Message != nil && upd.Message.From != nil:
		id = upd.Message.From.ID
	case upd.Message != nil && upd.Message.Chat != nil:
		id = upd.Message.Chat.ID
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		id = upd.CallbackQuery.From.ID
	}
	if id < 0 {
		id = -id
	}
	return int(id % int64(n))
}
