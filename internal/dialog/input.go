package dialog

import "github.com/berdskdekor-ux/agro-bot/internal/domain"

// InputKind classifies one inbound user turn.
type InputKind uint8

const (
	InputText InputKind = iota + 1
	InputPhoto
	InputAction
)

// Action is a button-style intent coming from the transport.
type Action string

const (
	ActionStart          Action = "start"
	ActionCancel         Action = "cancel"
	ActionAddReminder    Action = "add_reminder"
	ActionListReminders  Action = "list_reminders"
	ActionChooseReminder Action = "choose_reminder"
	ActionEditField      Action = "edit_field"
	ActionDeleteReminder Action = "delete_reminder"
	ActionWeather        Action = "weather"
	ActionCalendar       Action = "calendar"
	ActionCalendarCrop   Action = "calendar_crop"
	ActionStatus         Action = "status"
	ActionBuyPremium     Action = "buy_premium"
)

// Input is one user turn. Only the fields that Kind and Action need are set.
type Input struct {
	UserID     string
	Kind       InputKind
	Text       string
	PhotoURL   string
	Action     Action
	ReminderID int
	Field      domain.EditField
	Plan       string
	Culture    string // slug for ActionCalendarCrop
}

// Text builds a text input.
func Text(userID, text string) Input {
	return Input{UserID: userID, Kind: InputText, Text: text}
}

// Photo builds a photo input.
func Photo(userID, url string) Input {
	return Input{UserID: userID, Kind: InputPhoto, PhotoURL: url}
}

// Do builds an action input.
func Do(userID string, a Action) Input {
	return Input{UserID: userID, Kind: InputAction, Action: a}
}
