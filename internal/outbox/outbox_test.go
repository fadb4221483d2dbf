package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/outbox"
)

func TestPublish_Order(t *testing.T) {
	q := outbox.New(4)
	require.NoError(t, q.Publish(context.Background(),
		domain.Intent{UserID: "1", Kind: domain.IntentReminderDue},
		domain.Intent{UserID: "2", Kind: domain.IntentPremiumExpired},
	))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, "1", (<-q.C()).UserID)
	assert.Equal(t, "2", (<-q.C()).UserID)
}

func TestPublish_FullQueueHonoursContext(t *testing.T) {
	q := outbox.New(1)
	require.NoError(t, q.Publish(context.Background(), domain.Intent{UserID: "1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Publish(ctx, domain.Intent{UserID: "2"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublish_AfterClose(t *testing.T) {
	q := outbox.New(1)
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Publish(context.Background(), domain.Intent{UserID: "1"}), outbox.ErrClosed)
}

func TestClose_UnblocksPublisherAndSeals(t *testing.T) {
	q := outbox.New(1)
	require.NoError(t, q.Publish(context.Background(), domain.Intent{UserID: "1"}))

	errc := make(chan error, 1)
	go func() { errc <- q.Publish(context.Background(), domain.Intent{UserID: "2"}) }()

	q.Close()
	assert.ErrorIs(t, <-errc, outbox.ErrClosed)
	select {
	case <-q.Done():
	default:
		t.Fatal("queue not sealed after Close")
	}
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, "1", (<-q.C()).UserID)
}
