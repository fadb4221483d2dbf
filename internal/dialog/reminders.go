package dialog

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/reminder"
)

const (
	reasonFormat = "format"
	reasonPast   = "past"
)

func (m *Machine) addReminder(u *domain.User) step {
	var st step
	if ok, _ := m.gate.CanUse(u, domain.FeatureReminders); !ok {
		st.say(domain.Intent{Kind: domain.IntentLimitReached, Feature: domain.FeatureReminders})
		return st
	}
	u.Reset()
	u.Enter(domain.StateAddingReminderText)
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentAskReminderText})
	return st
}

// reminderText routes free text by the current dialog step.
func (m *Machine) reminderText(u *domain.User, text string) step {
	switch u.State {
	case domain.StateAddingReminderText:
		return m.reminderBody(u, text)
	case domain.StateAddingReminderDate:
		return m.reminderDate(u, text)
	case domain.StateAddingReminderTime:
		return m.reminderTime(u, text)
	case domain.StateAwaitingEditValue:
		return m.editValue(u, text)
	}
	// choosingReminderToEdit waits for a field button.
	return step{intents: []domain.Intent{{Kind: domain.IntentUnexpectedInput}}}
}

func (m *Machine) reminderBody(u *domain.User, text string) step {
	var st step
	body, err := domain.ValidateText(text)
	if err != nil {
		st.say(domain.Intent{Kind: domain.IntentTextRejected})
		return st
	}
	u.Stash(domain.ScratchText, body)
	u.Enter(domain.StateAddingReminderDate)
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentAskReminderDate, TimeZone: u.TimeZone})
	return st
}

func (m *Machine) reminderDate(u *domain.User, text string) step {
	var st step
	d, err := domain.ParseDate(text)
	if err != nil {
		st.say(domain.Intent{Kind: domain.IntentDateRejected, Text: reasonFormat})
		return st
	}
	if !domain.DateNotPast(d, m.now(), u.Location()) {
		st.say(domain.Intent{Kind: domain.IntentDateRejected, Text: reasonPast})
		return st
	}
	u.Stash(domain.ScratchDate, d.ISO())
	u.Enter(domain.StateAddingReminderTime)
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentAskReminderTime})
	return st
}

func (m *Machine) reminderTime(u *domain.User, text string) step {
	var st step
	if strings.TrimSpace(u.Scratch[domain.ScratchText]) == "" {
		// Scratch lost its text; nothing could ever be committed.
		m.log.Warn("reminder scratch without text", zap.String("user", u.ID))
		u.Reset()
		u.Enter(domain.StateAddingReminderText)
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentAskReminderText})
		return st
	}
	d, err := domain.ParseISODate(u.Scratch[domain.ScratchDate])
	if err != nil {
		// Scratch lost its date; start the flow over.
		m.log.Warn("reminder scratch without date", zap.String("user", u.ID))
		u.Enter(domain.StateAddingReminderDate)
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentAskReminderDate, TimeZone: u.TimeZone})
		return st
	}
	mins, err := domain.ParseClock(text)
	if err != nil {
		st.say(domain.Intent{Kind: domain.IntentTimeRejected, Text: reasonFormat})
		return st
	}

	r, err := m.commit(u, domain.LocalDateTime{Date: d, Minutes: mins})
	var capErr *domain.CapacityExceededError
	switch {
	case errors.As(err, &capErr):
		u.Reset()
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentLimitReached, Feature: capErr.Feature})
		return st
	case err != nil:
		st.say(domain.Intent{Kind: domain.IntentTimeRejected, Text: reasonPast})
		return st
	}
	u.Reset()
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentReminderCreated, Reminder: &r, At: r.DueAt, TimeZone: u.TimeZone})
	return st
}

// commit creates the reminder from the stashed text. The cap is checked
// first, so a refused reminder is never created.
func (m *Machine) commit(u *domain.User, at domain.LocalDateTime) (domain.Reminder, error) {
	if ok, _ := m.gate.CanUse(u, domain.FeatureReminders); !ok {
		return domain.Reminder{}, &domain.CapacityExceededError{Feature: domain.FeatureReminders}
	}
	r, err := reminder.Create(u, u.Scratch[domain.ScratchText], at, m.now())
	if err != nil {
		return domain.Reminder{}, err
	}
	m.gate.Use(u, domain.FeatureReminders)
	return r, nil
}

func (m *Machine) listReminders(u *domain.User) step {
	return step{intents: []domain.Intent{{
		Kind:      domain.IntentReminderList,
		Reminders: reminder.Sorted(u),
		TimeZone:  u.TimeZone,
	}}}
}

func (m *Machine) chooseReminder(u *domain.User, id int) step {
	var st step
	r := u.Reminder(id)
	if r == nil {
		st.say(domain.Intent{Kind: domain.IntentReminderNotFound})
		return st
	}
	u.Reset()
	u.Enter(domain.StateChoosingReminderToEdit)
	u.Stash(domain.ScratchReminderID, itoa(id))
	st.changed = true
	rc := *r
	st.say(domain.Intent{Kind: domain.IntentEditMenu, Reminder: &rc, TimeZone: u.TimeZone})
	return st
}

func (m *Machine) editField(u *domain.User, id int, field domain.EditField) step {
	var st step
	if u.State != domain.StateChoosingReminderToEdit || u.Scratch[domain.ScratchReminderID] != itoa(id) {
		st.say(domain.Intent{Kind: domain.IntentUnexpectedInput})
		return st
	}
	if u.Reminder(id) == nil {
		u.Reset()
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentReminderNotFound})
		return st
	}
	if _, ok := domain.ParseEditField(string(field)); !ok {
		st.say(domain.Intent{Kind: domain.IntentUnexpectedInput})
		return st
	}
	u.Enter(domain.StateAwaitingEditValue)
	u.Stash(domain.ScratchField, string(field))
	st.changed = true
	st.say(domain.Intent{Kind: domain.IntentAskEditValue, Field: field, TimeZone: u.TimeZone})
	return st
}

func (m *Machine) editValue(u *domain.User, text string) step {
	var st step
	id, idOK := atoi(u.Scratch[domain.ScratchReminderID])
	field, fieldOK := domain.ParseEditField(u.Scratch[domain.ScratchField])
	if !idOK || !fieldOK {
		m.log.Warn("edit scratch is incomplete", zap.String("user", u.ID))
		u.Reset()
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentReminderNotFound})
		return st
	}

	r, err := reminder.Edit(u, id, field, text, m.now())
	var verr *domain.ValidationError
	switch {
	case err == nil:
		u.Reset()
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentEditApplied, Field: field, Reminder: &r, At: r.DueAt, TimeZone: u.TimeZone})
	case errors.Is(err, domain.ErrReminderNotFound):
		u.Reset()
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentReminderNotFound})
	case errors.Is(err, domain.ErrAlreadyDelivered):
		u.Reset()
		st.changed = true
		st.say(domain.Intent{Kind: domain.IntentEditRejected, Field: field, Text: "delivered"})
	case errors.As(err, &verr):
		reason := reasonFormat
		if verr.Reason == domain.ReasonNotFuture {
			reason = reasonPast
		}
		st.say(domain.Intent{Kind: domain.IntentEditRejected, Field: field, Text: reason})
	default:
		m.log.Error("reminder edit failed", zap.String("user", u.ID), zap.Error(err))
		st.say(domain.Intent{Kind: domain.IntentEditRejected, Field: field, Text: reasonFormat})
	}
	return st
}

func (m *Machine) deleteReminder(u *domain.User, id int) step {
	var st step
	if !reminder.Delete(u, id) {
		st.say(domain.Intent{Kind: domain.IntentReminderNotFound})
		return st
	}
	st.changed = true
	// An edit dialog pointing at the deleted reminder has nothing left to edit.
	if u.State != domain.StateIdle && u.Scratch[domain.ScratchReminderID] == itoa(id) {
		u.Reset()
	}
	st.say(domain.Intent{Kind: domain.IntentReminderDeleted, Reminder: &domain.Reminder{ID: id}})
	return st
}
