package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
	"github.com/berdskdekor-ux/agro-bot/internal/quota"
)

// Main menu buttons.
const (
	btnWeather   = "🌦 Weather"
	btnDiagnosis = "📸 Diagnosis"
	btnReminders = "⏰ Reminders"
	btnPremium   = "💎 Premium"
	btnCalendar  = "📅 Planting calendar"
	btnStatus    = "🧾 My plan"
)

// UI texts in English
const (
	welcomeText = "👋 Hi! I am your agronomist assistant.\n\n" +
		"Which region or city do you garden in? I use it for weather, advice and reminder times."
	welcomeBackFmt     = "👋 Welcome back! Region: %s (time zone %s).\n\nWhat would you like to do?"
	startRequiredText  = "Press /start to begin."
	regionRejectedText = "The region name is too short. Please try again."
	regionSavedFmt     = "Got it: %s 🌍\nTime zone: %s.\n\nAdvice and reminders will now follow your local time."
	zoneWarningText    = "\n\n⚠️ I could not detect the time zone for this region, so reminder times use UTC. " +
		"Send /start and enter a larger city nearby to change it."

	askTextText     = "Write the reminder text:"
	textRejected    = "The reminder text cannot be empty. Write it again:"
	askDateFmt      = "Enter the date as dd.mm.yyyy (your time zone is %s):"
	dateFormatText  = "Invalid date. Use dd.mm.yyyy, for example 15.03.2026."
	datePastText    = "That date has already passed. Enter today or a later date."
	askTimeText     = "Enter the time as hh:mm:"
	timeFormatText  = "Invalid time. Use hh:mm, for example 14:30."
	timePastText    = "That moment has already passed. Enter a later time."
	createdFmt      = "✅ Reminder set for %s:\n%s"
	noRemindersText = "You have no reminders yet."
	notFoundText    = "Reminder not found."
	deletedText     = "🗑 Reminder deleted."
	editMenuFmt     = "Reminder #%d: %s\nDue: %s\n\nWhat do you want to change?"
	editTextText    = "Enter the new text:"
	editDateText    = "Enter the new date as dd.mm.yyyy:"
	editTimeText    = "Enter the new time as hh:mm:"
	editPastText    = "That moment has already passed. Try another value."
	editFormatText  = "Invalid value. Try again."
	editFinalText   = "This reminder was already delivered, so its date and time can no longer change."
	editAppliedFmt  = "✅ Reminder updated for %s:\n%s"
	cancelledText   = "Cancelled."
	unexpectedText  = "I did not expect that here. Finish the current step or press Cancel."
	limitFmt        = "Today's free limit for %s is used up.\n\nGet 💎 Premium for unlimited access."
	statusFreeFmt   = "🧾 Free plan. Region: %s (%s)\nLeft today:\n• photo diagnosis: %s\n• agronomist questions: %s\n• reminders: %s"
	statusPremFmt   = "💎 Premium is active until %s.\nRegion: %s (%s)\nNo daily limits."
	paymentLinkFmt  = "To activate premium (%s), follow the link:\n\n%s\n\nPremium turns on automatically after payment."
	paymentFailText = "Could not create the payment. Please try again later."
	dueFmt          = "⏰ Reminder:\n%s"
	expiredText     = "⚠️ Your premium has ended and the free daily limits are back.\n\nPress 💎 Premium to extend it."
	grantedFmt      = "🎉 Payment received! Premium is active until %s.\n\nThank you for supporting the project 🌱"

	diagnosisHintText = "Send a photo of the plant and I will try to identify it and suggest care."
	remindersMenuText = "Reminders:"
	premiumMenuText   = "💎 Premium removes all daily limits.\n\nChoose a plan:"
	backText          = "Main menu."
	photoFailedText   = "Could not read the photo. Please send it again."
	otherCropText     = "Write the crop name, for example \"zucchini\", or ask your question about its planting dates."
)

var featureNames = map[domain.Feature]string{
	domain.FeaturePhotos:    "photo diagnosis",
	domain.FeatureQuestions: "agronomist questions",
	domain.FeatureReminders: "reminders",
}

var planLabels = map[string]string{
	"day":   "🟡 Day — 10 ₽",
	"week":  "🟢 Week — 50 ₽",
	"month": "🔵 Month — 150 ₽",
	"year":  "🟣 Year — 1500 ₽",
}

// render turns an intent into a message for chatID.
func render(chatID int64, in domain.Intent) tgbotapi.MessageConfig {
	text, markup := body(in)
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return msg
}

func body(in domain.Intent) (string, interface{}) {
	switch in.Kind {
	case domain.IntentWelcome:
		return welcomeText, tgbotapi.NewRemoveKeyboard(false)
	case domain.IntentWelcomeBack:
		return fmt.Sprintf(welcomeBackFmt, in.Text, in.TimeZone), mainMenuKeyboard()
	case domain.IntentStartRequired:
		return startRequiredText, nil
	case domain.IntentRegionRejected:
		return regionRejectedText, nil
	case domain.IntentRegionSaved:
		text := fmt.Sprintf(regionSavedFmt, in.Text, in.TimeZone)
		if !in.ZoneResolved {
			text += zoneWarningText
		}
		return text, mainMenuKeyboard()

	case domain.IntentAskReminderText:
		return askTextText, cancelKeyboard()
	case domain.IntentTextRejected:
		return textRejected, cancelKeyboard()
	case domain.IntentAskReminderDate:
		return fmt.Sprintf(askDateFmt, in.TimeZone), cancelKeyboard()
	case domain.IntentDateRejected:
		return pick(in.Text, datePastText, dateFormatText), cancelKeyboard()
	case domain.IntentAskReminderTime:
		return askTimeText, cancelKeyboard()
	case domain.IntentTimeRejected:
		return pick(in.Text, timePastText, timeFormatText), cancelKeyboard()
	case domain.IntentReminderCreated:
		return fmt.Sprintf(createdFmt, local(in.At, in.TimeZone), reminderText(in.Reminder)), mainMenuKeyboard()
	case domain.IntentReminderList:
		if len(in.Reminders) == 0 {
			return noRemindersText, reminderMenuKeyboard()
		}
		return reminderList(in.Reminders, in.TimeZone), reminderListKeyboard(in.Reminders)
	case domain.IntentReminderNotFound:
		return notFoundText, reminderMenuKeyboard()
	case domain.IntentReminderDeleted:
		return deletedText, reminderMenuKeyboard()
	case domain.IntentEditMenu:
		r := in.Reminder
		if r == nil {
			return notFoundText, reminderMenuKeyboard()
		}
		return fmt.Sprintf(editMenuFmt, r.ID, r.Text, local(r.DueAt, in.TimeZone)), editReminderKeyboard(r.ID)
	case domain.IntentAskEditValue:
		switch in.Field {
		case domain.FieldDate:
			return editDateText, cancelKeyboard()
		case domain.FieldTime:
			return editTimeText, cancelKeyboard()
		}
		return editTextText, cancelKeyboard()
	case domain.IntentEditRejected:
		switch in.Text {
		case "delivered":
			return editFinalText, reminderMenuKeyboard()
		case "past":
			return editPastText, cancelKeyboard()
		}
		return editFormatText, cancelKeyboard()
	case domain.IntentEditApplied:
		return fmt.Sprintf(editAppliedFmt, local(in.At, in.TimeZone), reminderText(in.Reminder)), mainMenuKeyboard()

	case domain.IntentCancelled:
		return cancelledText, mainMenuKeyboard()
	case domain.IntentUnexpectedInput:
		return unexpectedText, nil
	case domain.IntentLimitReached:
		name, ok := featureNames[in.Feature]
		if !ok {
			name = string(in.Feature)
		}
		return fmt.Sprintf(limitFmt, name), premiumKeyboard()
	case domain.IntentCalendar:
		return in.Text, cropKeyboard()
	case domain.IntentAnswer:
		return in.Text, mainMenuKeyboard()
	case domain.IntentStatus:
		if in.Premium {
			return fmt.Sprintf(statusPremFmt, local(in.At, in.TimeZone), in.Text, in.TimeZone), mainMenuKeyboard()
		}
		return fmt.Sprintf(statusFreeFmt, in.Text, in.TimeZone,
			left(in.Remaining, domain.FeaturePhotos),
			left(in.Remaining, domain.FeatureQuestions),
			left(in.Remaining, domain.FeatureReminders),
		), premiumKeyboard()
	case domain.IntentPaymentLink:
		return fmt.Sprintf(paymentLinkFmt, in.Plan, in.Text), nil
	case domain.IntentPaymentFailed:
		return paymentFailText, mainMenuKeyboard()

	case domain.IntentReminderDue:
		return fmt.Sprintf(dueFmt, in.Text), mainMenuKeyboard()
	case domain.IntentPremiumExpired:
		return expiredText, mainMenuKeyboard()
	case domain.IntentPremiumGranted:
		return fmt.Sprintf(grantedFmt, local(in.At, in.TimeZone)), mainMenuKeyboard()
	}
	return unexpectedText, nil
}

func pick(reason, past, format string) string {
	if reason == "past" {
		return past
	}
	return format
}

func reminderText(r *domain.Reminder) string {
	if r == nil {
		return ""
	}
	return r.Text
}

func local(t time.Time, tz string) string {
	if tz == "" {
		tz = "UTC"
	}
	s, err := domain.LocalizeTime(t, tz)
	if err != nil {
		return t.UTC().Format("02.01.2006 15:04") + " UTC"
	}
	return s
}

func left(rem map[domain.Feature]int, f domain.Feature) string {
	n, ok := rem[f]
	if !ok || n == quota.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(n)
}

func reminderList(rs []domain.Reminder, tz string) string {
	var b strings.Builder
	b.WriteString("Your reminders:")
	for _, r := range rs {
		mark := ""
		if r.Delivered {
			mark = " ✓"
		}
		fmt.Fprintf(&b, "\n%d. %s — %s%s", r.ID, local(r.DueAt, tz), r.Text, mark)
	}
	return b.String()
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnWeather),
			tgbotapi.NewKeyboardButton(btnDiagnosis),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnReminders),
			tgbotapi.NewKeyboardButton(btnPremium),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCalendar),
			tgbotapi.NewKeyboardButton(btnStatus),
		),
	)
}

// Inline keyboards
func reminderMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Add reminder", cbReminderAdd)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 My reminders", cbReminderList)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✏️ Edit / Delete", cbReminderEdit)),
	)
}

func reminderListKeyboard(rs []domain.Reminder) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rs)+1)
	for _, r := range rs {
		label := fmt.Sprintf("✏️ #%d %s", r.ID, shorten(r.Text, 24))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, prefixChoose+strconv.Itoa(r.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Add reminder", cbReminderAdd),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func editReminderKeyboard(id int) tgbotapi.InlineKeyboardMarkup {
	sid := strconv.Itoa(id)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✏️ Change text", prefixEdit+"text_"+sid)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗓 Change date", prefixEdit+"date_"+sid)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⏰ Change time", prefixEdit+"time_"+sid)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", prefixDelete+sid)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("← Back to list", cbReminderList)),
	)
}

func cancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("← Cancel", cbReminderCancel)),
	)
}

func premiumKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 5)
	for _, name := range domain.PlanNames() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(planLabels[name], prefixPremium+name),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbPremiumBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cropKeyboard() tgbotapi.InlineKeyboardMarkup {
	const perRow = 3
	crops := domain.Cultures()
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(crops)/perRow+2)
	for i := 0; i < len(crops); i += perRow {
		end := i + perRow
		if end > len(crops) {
			end = len(crops)
		}
		row := make([]tgbotapi.InlineKeyboardButton, 0, perRow)
		for _, c := range crops[i:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Label, prefixCrop+c.Slug))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🌱 Other crop", cbCropOther),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
