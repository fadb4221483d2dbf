package reminder_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/reminder"
)

var now = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func moscowUser() *domain.User {
	u := domain.NewUser("7", now)
	u.TimeZone = "Europe/Moscow"
	return u
}

func at(y int, m time.Month, d, hh, mm int) domain.LocalDateTime {
	return domain.LocalDateTime{Date: domain.LocalDate{Year: y, Month: m, Day: d}, Minutes: hh*60 + mm}
}

func TestCreate_ConvertsUserZone(t *testing.T) {
	u := moscowUser()
	r, err := reminder.Create(u, "  water tomatoes ", at(2026, time.March, 15, 14, 30), now)
	require.NoError(t, err)
	assert.Equal(t, 1, r.ID)
	assert.Equal(t, "water tomatoes", r.Text)
	assert.True(t, r.DueAt.Equal(time.Date(2026, time.March, 15, 11, 30, 0, 0, time.UTC)), r.DueAt)
	assert.False(t, r.Delivered)
	require.Len(t, u.Reminders, 1)
}

func TestCreate_UnresolvedZoneIsUTC(t *testing.T) {
	u := domain.NewUser("7", now)
	u.TimeZone = ""
	r, err := reminder.Create(u, "feed", at(2026, time.March, 15, 14, 30), now)
	require.NoError(t, err)
	assert.True(t, r.DueAt.Equal(time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)))
}

func TestCreate_RejectsPastAndEmpty(t *testing.T) {
	u := moscowUser()
	var verr *domain.ValidationError

	_, err := reminder.Create(u, "x", at(2026, time.March, 1, 12, 0), now) // 09:00 UTC, exactly now
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "time", verr.Field)

	_, err = reminder.Create(u, "   ", at(2026, time.March, 2, 12, 0), now)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "text", verr.Field)

	assert.Empty(t, u.Reminders)
}

func TestIDs_MonotonicNotReused(t *testing.T) {
	u := moscowUser()
	for i := 0; i < 3; i++ {
		_, err := reminder.Create(u, "r", at(2026, time.April, 1+i, 8, 0), now)
		require.NoError(t, err)
	}
	assert.True(t, reminder.Delete(u, 3))
	assert.False(t, reminder.Delete(u, 3))

	r, err := reminder.Create(u, "next", at(2026, time.April, 10, 8, 0), now)
	require.NoError(t, err)
	assert.Equal(t, 4, r.ID)
}

func TestEdit_DateKeepsTimeOfDay(t *testing.T) {
	u := moscowUser()
	r, err := reminder.Create(u, "spray", at(2026, time.March, 15, 14, 30), now)
	require.NoError(t, err)

	edited, err := reminder.Edit(u, r.ID, domain.FieldDate, "20.04.2026", now)
	require.NoError(t, err)
	got, _ := domain.LocalizeTime(edited.DueAt, "Europe/Moscow")
	assert.Equal(t, "20.04.2026 14:30", got)
}

func TestEdit_TimeKeepsDate(t *testing.T) {
	u := moscowUser()
	r, err := reminder.Create(u, "spray", at(2026, time.March, 15, 14, 30), now)
	require.NoError(t, err)

	edited, err := reminder.Edit(u, r.ID, domain.FieldTime, "06:05", now)
	require.NoError(t, err)
	got, _ := domain.LocalizeTime(edited.DueAt, "Europe/Moscow")
	assert.Equal(t, "15.03.2026 06:05", got)
}

func TestEdit_Rejections(t *testing.T) {
	u := moscowUser()
	r, err := reminder.Create(u, "spray", at(2026, time.March, 15, 14, 30), now)
	require.NoError(t, err)
	before := u.Reminders[0]

	var verr *domain.ValidationError
	_, err = reminder.Edit(u, r.ID, domain.FieldDate, "01.01.2026", now)
	assert.True(t, errors.As(err, &verr))
	_, err = reminder.Edit(u, r.ID, domain.FieldTime, "25:00", now)
	assert.True(t, errors.As(err, &verr))
	_, err = reminder.Edit(u, r.ID, domain.FieldText, "  ", now)
	assert.True(t, errors.As(err, &verr))
	_, err = reminder.Edit(u, 99, domain.FieldText, "x", now)
	assert.ErrorIs(t, err, domain.ErrReminderNotFound)
	assert.Equal(t, before, u.Reminders[0])

	require.True(t, reminder.MarkDelivered(u, r.ID))
	_, err = reminder.Edit(u, r.ID, domain.FieldDate, "20.04.2026", now)
	assert.ErrorIs(t, err, domain.ErrAlreadyDelivered)
	_, err = reminder.Edit(u, r.ID, domain.FieldText, "still editable", now)
	assert.NoError(t, err)
}

func TestMarkDelivered_Idempotent(t *testing.T) {
	u := moscowUser()
	r, err := reminder.Create(u, "x", at(2026, time.March, 2, 8, 0), now)
	require.NoError(t, err)
	assert.True(t, reminder.MarkDelivered(u, r.ID))
	assert.False(t, reminder.MarkDelivered(u, r.ID))
	assert.False(t, reminder.MarkDelivered(u, 42))
	assert.True(t, u.Reminders[0].Delivered)
}

func TestDueAndSorted(t *testing.T) {
	u := moscowUser()
	late, _ := reminder.Create(u, "late", at(2026, time.March, 20, 8, 0), now)
	early, _ := reminder.Create(u, "early", at(2026, time.March, 2, 8, 0), now)

	assert.Empty(t, reminder.Due(u, now))
	due := reminder.Due(u, early.DueAt)
	require.Len(t, due, 1)
	assert.Equal(t, early.ID, due[0].ID)

	sorted := reminder.Sorted(u)
	assert.Equal(t, []int{early.ID, late.ID}, []int{sorted[0].ID, sorted[1].ID})
	assert.Equal(t, late.ID, u.Reminders[0].ID, "Sorted must not reorder the record")
}
