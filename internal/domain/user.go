package domain

import (
	"time"
)

// Feature names a metered capability with a daily free-tier limit.
type Feature string

const (
	FeaturePhotos    Feature = "photos"
	FeatureReminders Feature = "reminders"
	FeatureQuestions Feature = "questions"
)

// FeatureUsage is the lazily reset daily counter for one feature.
type FeatureUsage struct {
	LastReset string `json:"last_reset"` // YYYY-MM-DD, UTC calendar date
	Count     int    `json:"count"`
}

// Reminder is a one-shot, time-triggered message owned by a user.
type Reminder struct {
	ID        int       `json:"id"`
	Text      string    `json:"text"`
	DueAt     time.Time `json:"due_at"` // UTC
	Delivered bool      `json:"delivered"`
}

// User is the per-user record held by the store.
type User struct {
	ID           string                   `json:"id"`
	Region       string                   `json:"region,omitempty"`
	TimeZone     string                   `json:"time_zone"`
	State        DialogState              `json:"state"`
	Scratch      map[string]string        `json:"scratch,omitempty"`
	Premium      bool                     `json:"premium"`
	PremiumUntil string                   `json:"premium_until,omitempty"` // RFC 3339
	Usage        map[Feature]FeatureUsage `json:"usage,omitempty"`
	Reminders    []Reminder               `json:"reminders,omitempty"`
	LastReminder int                      `json:"last_reminder,omitempty"` // highest id ever assigned
	CreatedAt    time.Time                `json:"created_at"`
}

// NewUser returns the empty record created on first contact.
func NewUser(id string, now time.Time) *User {
	return &User{
		ID:        id,
		TimeZone:  "UTC",
		State:     StateIdle,
		CreatedAt: now.UTC(),
	}
}

// Location returns the user's zone, falling back to UTC.
func (u *User) Location() *time.Location {
	if u.TimeZone == "" {
		return time.UTC
	}
	loc, err := LoadLocation(u.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Enter switches the dialog to s. Entering idle drops the scratch payload.
func (u *User) Enter(s DialogState) {
	u.State = s
	if s == StateIdle {
		u.Scratch = nil
	}
}

// Reset returns the dialog to idle.
func (u *User) Reset() { u.Enter(StateIdle) }

// Stash stores a scratch value for the current dialog.
func (u *User) Stash(key, value string) {
	if u.Scratch == nil {
		u.Scratch = make(map[string]string)
	}
	u.Scratch[key] = value
}

// PremiumExpiry parses PremiumUntil. A missing or corrupt value yields
// ErrStaleEntitlement.
func (u *User) PremiumExpiry() (time.Time, error) {
	if u.PremiumUntil == "" {
		return time.Time{}, ErrStaleEntitlement
	}
	t, err := time.Parse(time.RFC3339, u.PremiumUntil)
	if err != nil {
		return time.Time{}, ErrStaleEntitlement
	}
	return t, nil
}

// Reminder returns a pointer into u.Reminders; only valid while the caller
// holds the store lock.
func (u *User) Reminder(id int) *Reminder {
	for i := range u.Reminders {
		if u.Reminders[i].ID == id {
			return &u.Reminders[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe to use outside the store lock.
func (u *User) Clone() *User {
	c := *u
	if u.Scratch != nil {
		c.Scratch = make(map[string]string, len(u.Scratch))
		for k, v := range u.Scratch {
			c.Scratch[k] = v
		}
	}
	if u.Usage != nil {
		c.Usage = make(map[Feature]FeatureUsage, len(u.Usage))
		for k, v := range u.Usage {
			c.Usage[k] = v
		}
	}
	if u.Reminders != nil {
		c.Reminders = append([]Reminder(nil), u.Reminders...)
	}
	return &c
}
