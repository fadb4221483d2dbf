// Package reminder implements the reminder lifecycle over a user record.
// Every function expects the caller to hold the store lock for u.
package reminder

import (
	"sort"
	"strings"
	"time"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// NextID is max(existing ids, 0) + 1, never below an id handed out before,
// so a deleted id is not reused.
func NextID(u *domain.User) int {
	top := u.LastReminder
	for _, r := range u.Reminders {
		if r.ID > top {
			top = r.ID
		}
	}
	return top + 1
}

// Create converts the local moment in the user's zone to UTC and appends a
// new reminder. The moment must be strictly after now.
func Create(u *domain.User, text string, at domain.LocalDateTime, now time.Time) (domain.Reminder, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Reminder{}, &domain.ValidationError{Field: "text", Reason: "empty"}
	}
	due := at.In(u.Location())
	if !due.After(now) {
		return domain.Reminder{}, &domain.ValidationError{Field: "time", Reason: domain.ReasonNotFuture}
	}
	r := domain.Reminder{ID: NextID(u), Text: text, DueAt: due}
	u.Reminders = append(u.Reminders, r)
	u.LastReminder = r.ID
	return r, nil
}

// Delete removes the reminder; false means it did not exist.
func Delete(u *domain.User, id int) bool {
	for i := range u.Reminders {
		if u.Reminders[i].ID == id {
			u.Reminders = append(u.Reminders[:i], u.Reminders[i+1:]...)
			if len(u.Reminders) == 0 {
				u.Reminders = nil
			}
			return true
		}
	}
	return false
}

// Edit replaces one field. Date and time edits keep the other local component
// of the original due time and must land strictly after now.
func Edit(u *domain.User, id int, field domain.EditField, value string, now time.Time) (domain.Reminder, error) {
	r := u.Reminder(id)
	if r == nil {
		return domain.Reminder{}, domain.ErrReminderNotFound
	}
	loc := u.Location()

	switch field {
	case domain.FieldText:
		text := strings.TrimSpace(value)
		if text == "" {
			return domain.Reminder{}, &domain.ValidationError{Field: "text", Reason: "empty"}
		}
		r.Text = text
		return *r, nil

	case domain.FieldDate, domain.FieldTime:
		if r.Delivered {
			return domain.Reminder{}, domain.ErrAlreadyDelivered
		}
		var due time.Time
		if field == domain.FieldDate {
			d, err := domain.ParseDate(value)
			if err != nil {
				return domain.Reminder{}, &domain.ValidationError{Field: "date", Reason: err.Error()}
			}
			due = domain.WithDate(r.DueAt, d, loc)
		} else {
			mins, err := domain.ParseClock(value)
			if err != nil {
				return domain.Reminder{}, &domain.ValidationError{Field: "time", Reason: err.Error()}
			}
			due = domain.WithClock(r.DueAt, mins, loc)
		}
		if !due.After(now) {
			return domain.Reminder{}, &domain.ValidationError{Field: string(field), Reason: domain.ReasonNotFuture}
		}
		r.DueAt = due
		return *r, nil
	}
	return domain.Reminder{}, &domain.ValidationError{Field: "field", Reason: "unknown " + string(field)}
}

// MarkDelivered sets the delivered flag once; it reports whether it changed.
func MarkDelivered(u *domain.User, id int) bool {
	r := u.Reminder(id)
	if r == nil || r.Delivered {
		return false
	}
	r.Delivered = true
	return true
}

// Due returns undelivered reminders whose due time is not after now.
func Due(u *domain.User, now time.Time) []domain.Reminder {
	var out []domain.Reminder
	for _, r := range u.Reminders {
		if !r.Delivered && !r.DueAt.After(now) {
			out = append(out, r)
		}
	}
	return out
}

// Sorted returns a copy ordered by due time, then id.
func Sorted(u *domain.User) []domain.Reminder {
	out := append([]domain.Reminder(nil), u.Reminders...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out
}
