package domain

import (
	"errors"
	"time"
)

// IntentKind tells the transport which message to render.
type IntentKind string

const (
	IntentWelcome          IntentKind = "welcome"
	IntentWelcomeBack      IntentKind = "welcome_back"
	IntentStartRequired    IntentKind = "start_required"
	IntentRegionRejected   IntentKind = "region_rejected"
	IntentRegionSaved      IntentKind = "region_saved"
	IntentAskReminderText  IntentKind = "ask_reminder_text"
	IntentTextRejected     IntentKind = "text_rejected"
	IntentAskReminderDate  IntentKind = "ask_reminder_date"
	IntentDateRejected     IntentKind = "date_rejected"
	IntentAskReminderTime  IntentKind = "ask_reminder_time"
	IntentTimeRejected     IntentKind = "time_rejected"
	IntentReminderCreated  IntentKind = "reminder_created"
	IntentReminderList     IntentKind = "reminder_list"
	IntentReminderNotFound IntentKind = "reminder_not_found"
	IntentReminderDeleted  IntentKind = "reminder_deleted"
	IntentEditMenu         IntentKind = "edit_menu"
	IntentAskEditValue     IntentKind = "ask_edit_value"
	IntentEditRejected     IntentKind = "edit_rejected"
	IntentEditApplied      IntentKind = "edit_applied"
	IntentCancelled        IntentKind = "cancelled"
	IntentUnexpectedInput  IntentKind = "unexpected_input"
	IntentLimitReached     IntentKind = "limit_reached"
	IntentAnswer           IntentKind = "answer"
	IntentCalendar         IntentKind = "calendar"
	IntentStatus           IntentKind = "status"
	IntentPaymentLink      IntentKind = "payment_link"
	IntentPaymentFailed    IntentKind = "payment_failed"
	IntentReminderDue      IntentKind = "reminder_due"
	IntentPremiumExpired   IntentKind = "premium_expired"
	IntentPremiumGranted   IntentKind = "premium_granted"
)

// Intent is one outbound message, described without any transport markup.
// Only the fields relevant to Kind are set.
type Intent struct {
	UserID       string
	Kind         IntentKind
	Text         string // opaque payload: region, reminder text, collaborator output, URL
	At           time.Time
	TimeZone     string
	Feature      Feature
	Remaining    map[Feature]int
	Premium      bool
	ZoneResolved bool
	Field        EditField
	Plan         string
	Reminder     *Reminder
	Reminders    []Reminder
}

// NewReminderDue builds the delivery intent for a due reminder.
func NewReminderDue(userID string, r Reminder) (Intent, error) {
	if userID == "" {
		return Intent{}, errors.New("reminder intent: empty user id")
	}
	if r.Text == "" {
		return Intent{}, errors.New("reminder intent: empty text")
	}
	rc := r
	return Intent{UserID: userID, Kind: IntentReminderDue, Text: r.Text, At: r.DueAt, Reminder: &rc}, nil
}
