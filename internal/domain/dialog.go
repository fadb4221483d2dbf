package domain

import "fmt"

// DialogState is the current step of a user's guided conversation.
// The zero value is StateIdle.
type DialogState uint8

const (
	StateIdle DialogState = iota
	StateAwaitingRegion
	StateAddingReminderText
	StateAddingReminderDate
	StateAddingReminderTime
	StateChoosingReminderToEdit
	StateAwaitingEditValue
)

var stateNames = [...]string{
	StateIdle:                   "idle",
	StateAwaitingRegion:         "awaiting_region",
	StateAddingReminderText:     "adding_reminder_text",
	StateAddingReminderDate:     "adding_reminder_date",
	StateAddingReminderTime:     "adding_reminder_time",
	StateChoosingReminderToEdit: "choosing_reminder_to_edit",
	StateAwaitingEditValue:      "awaiting_edit_value",
}

func (s DialogState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("DialogState(%d)", uint8(s))
}

// InReminderDialog reports whether s belongs to the reminder create/edit flows.
func (s DialogState) InReminderDialog() bool {
	return s >= StateAddingReminderText && s <= StateAwaitingEditValue
}

// MarshalText encodes the state by name.
func (s DialogState) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown dialog state %d", uint8(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText rejects names outside the enumeration.
func (s *DialogState) UnmarshalText(b []byte) error {
	name := string(b)
	if name == "" {
		*s = StateIdle
		return nil
	}
	for i, n := range stateNames {
		if n == name {
			*s = DialogState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown dialog state %q", name)
}

// Scratch keys used by the dialog flows.
const (
	ScratchText       = "text"
	ScratchDate       = "date" // YYYY-MM-DD
	ScratchReminderID = "reminder_id"
	ScratchField      = "field"
)

// EditField selects which part of a reminder an edit replaces.
type EditField string

const (
	FieldText EditField = "text"
	FieldDate EditField = "date"
	FieldTime EditField = "time"
)

// ParseEditField validates a field name coming from the transport.
func ParseEditField(s string) (EditField, bool) {
	switch EditField(s) {
	case FieldText, FieldDate, FieldTime:
		return EditField(s), true
	}
	return "", false
}
