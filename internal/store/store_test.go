package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
	"github.com/berdskdekor-ux/agro-bot/internal/reminder"
	"github.com/berdskdekor-ux/agro-bot/internal/store"
)

type memPersister struct {
	mu      sync.Mutex
	loadErr error
	saveErr error
	saves   int
	last    map[string]*domain.User
}

func (m *memPersister) LoadAll(context.Context) (map[string]*domain.User, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return map[string]*domain.User{}, nil
}

func (m *memPersister) SaveAll(_ context.Context, users map[string]*domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return &domain.PersistenceError{Op: "save", Err: m.saveErr}
	}
	m.last = make(map[string]*domain.User, len(users))
	for id, u := range users {
		m.last[id] = u.Clone()
	}
	return nil
}

func openSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpdate_WriteThrough(t *testing.T) {
	p := &memPersister{}
	s := store.Open(context.Background(), p, zap.NewNop())

	err := s.Update("1", func(u *domain.User) (bool, error) {
		u.Region = "Moscow"
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.saves)
	assert.Equal(t, "Moscow", p.last["1"].Region)

	// Unchanged existing record: no write.
	require.NoError(t, s.Update("1", func(*domain.User) (bool, error) { return false, nil }))
	assert.Equal(t, 1, p.saves)
}

func TestUpdate_ReturnsCallbackError(t *testing.T) {
	s := store.Open(context.Background(), &memPersister{}, zap.NewNop())
	want := errors.New("boom")
	err := s.Update("1", func(*domain.User) (bool, error) { return false, want })
	assert.ErrorIs(t, err, want)
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	p := &memPersister{saveErr: errors.New("disk full")}
	s := store.Open(context.Background(), p, zap.NewNop())

	require.NoError(t, s.Update("1", func(u *domain.User) (bool, error) {
		u.Region = "Kazan"
		return true, nil
	}))
	u, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Kazan", u.Region)
}

func TestOpen_CorruptStartsEmpty(t *testing.T) {
	p := &memPersister{loadErr: &domain.CorruptStoreError{IDs: []string{"9"}, Err: errors.New("bad json")}}
	s := store.Open(context.Background(), p, zap.NewNop())
	assert.Equal(t, 0, s.Len())
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := store.Open(context.Background(), &memPersister{}, zap.NewNop())
	require.NoError(t, s.Update("1", func(u *domain.User) (bool, error) {
		u.Reminders = []domain.Reminder{{ID: 1, Text: "a"}}
		return true, nil
	}))
	u, _ := s.Get("1")
	u.Reminders[0].Text = "changed"

	again, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "a", again.Reminders[0].Text)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestConcurrentUse_NoLostUpdates(t *testing.T) {
	s := store.Open(context.Background(), &memPersister{}, zap.NewNop())
	g := quota.NewGate(quota.Limits{domain.FeatureQuestions: 1000}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update("1", func(u *domain.User) (bool, error) {
				ok, _ := g.Consume(u, domain.FeatureQuestions)
				return ok, nil
			})
		}()
	}
	wg.Wait()

	u, _ := s.Get("1")
	assert.Equal(t, 50, u.Usage[domain.FeatureQuestions].Count)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	s := store.Open(ctx, db, zap.NewNop())

	now := time.Now().UTC()
	g := quota.NewGate(quota.Limits{domain.FeaturePhotos: 2}, nil)
	require.NoError(t, s.Update("100", func(u *domain.User) (bool, error) {
		u.Region = "Новосибирск"
		u.TimeZone = "Asia/Novosibirsk"
		g.Use(u, domain.FeaturePhotos)
		plan, _ := domain.LookupPlan("day")
		g.Grant(u, plan)
		d := now.Add(48 * time.Hour)
		_, err := reminder.Create(u, "prune raspberries", domain.LocalParts(d, u.Location()), now)
		return true, err
	}))
	require.NoError(t, s.Update("200", func(u *domain.User) (bool, error) {
		u.Enter(domain.StateAddingReminderDate)
		u.Stash(domain.ScratchText, "harvest")
		return true, nil
	}))

	loaded, err := db.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	for _, id := range []string{"100", "200"} {
		want, _ := s.Get(id)
		got := loaded[id]
		require.NotNil(t, got, id)
		assert.Equal(t, want.Region, got.Region)
		assert.Equal(t, want.TimeZone, got.TimeZone)
		assert.Equal(t, want.State, got.State)
		assert.Equal(t, want.Scratch, got.Scratch)
		assert.Equal(t, want.Premium, got.Premium)
		assert.Equal(t, want.PremiumUntil, got.PremiumUntil)
		assert.Equal(t, want.Usage, got.Usage)
		assert.Equal(t, want.LastReminder, got.LastReminder)
		require.Len(t, got.Reminders, len(want.Reminders))
		for i := range want.Reminders {
			assert.Equal(t, want.Reminders[i].ID, got.Reminders[i].ID)
			assert.Equal(t, want.Reminders[i].Text, got.Reminders[i].Text)
			assert.True(t, want.Reminders[i].DueAt.Equal(got.Reminders[i].DueAt))
		}
	}
}

func TestSQLite_CorruptPayload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := store.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SaveAll(ctx, map[string]*domain.User{
		"1": domain.NewUser("1", time.Now()),
	}))
	require.NoError(t, store.CorruptForTest(ctx, db, "2", `{"state":"no-such-state"}`))

	_, err = db.LoadAll(ctx)
	var corrupt *domain.CorruptStoreError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, []string{"2"}, corrupt.IDs)

	s := store.Open(ctx, db, zap.NewNop())
	assert.Equal(t, 0, s.Len())
}

func TestSQLite_Payments(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	p := &domain.Payment{
		ID: "p-1", UserID: "100", ProviderID: "yk-1", Plan: "week",
		Amount: "50.00", Status: domain.PaymentPending, CreatedAt: time.Now(),
	}
	require.NoError(t, db.CreatePayment(ctx, p))

	got, err := db.GetPaymentByProviderID(ctx, "yk-1")
	require.NoError(t, err)
	assert.Equal(t, "100", got.UserID)
	assert.Equal(t, "week", got.Plan)
	assert.Nil(t, got.UpdatedAt)

	require.NoError(t, db.UpdatePaymentStatus(ctx, "yk-1", domain.PaymentSucceeded))
	got, err = db.GetPaymentByProviderID(ctx, "yk-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, got.Status)
	assert.NotNil(t, got.UpdatedAt)

	_, err = db.GetPaymentByProviderID(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrPaymentNotFound)
	assert.ErrorIs(t, db.UpdatePaymentStatus(ctx, "nope", "x"), store.ErrPaymentNotFound)
}

func TestMigrations_Idempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := store.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = store.OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
