package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/dialog"
	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// Callback data sent by inline keyboards.
const (
	cbReminderAdd    = "rem_add"
	cbReminderList   = "rem_list"
	cbReminderEdit   = "rem_edit_menu"
	cbReminderCancel = "rem_cancel"
	cbPremiumBack    = "premium_back"
	cbCropOther      = "crop_other"

	prefixChoose  = "edit_rem_"
	prefixDelete  = "del_rem_"
	prefixEdit    = "edit_"
	prefixPremium = "premium_"
	prefixCrop    = "crop_"
)

// routed is what an update turns into: a dialog turn, a static menu, or
// nothing.
type routed struct {
	in   dialog.Input
	ok   bool
	menu *tgbotapi.MessageConfig
}

func turn(in dialog.Input) routed { return routed{in: in, ok: true} }

func menu(chatID int64, text string, markup interface{}) routed {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	return routed{menu: &msg}
}

func (r *Router) translate(upd tgbotapi.Update) routed {
	if msg := upd.Message; msg != nil {
		return r.translateMessage(msg)
	}
	if cb := upd.CallbackQuery; cb != nil && cb.Message != nil {
		return translateCallback(userID(cb.From, cb.Message.Chat), cb.Message.Chat.ID, cb.Data)
	}
	return routed{}
}

func (r *Router) translateMessage(msg *tgbotapi.Message) routed {
	uid := userID(msg.From, msg.Chat)
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 {
		// Sizes are ascending; the last one is the original.
		largest := msg.Photo[len(msg.Photo)-1]
		url, err := r.bot.GetFileDirectURL(largest.FileID)
		if err != nil {
			r.log.Warn("photo url lookup failed", zap.String("user", uid), zap.Error(err))
			return menu(chatID, photoFailedText, mainMenuKeyboard())
		}
		return turn(dialog.Photo(uid, url))
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		return turn(dialog.Do(uid, dialog.ActionStart))
	case strings.HasPrefix(text, "/cancel"):
		return turn(dialog.Do(uid, dialog.ActionCancel))
	case strings.HasPrefix(text, "/status"):
		return turn(dialog.Do(uid, dialog.ActionStatus))
	case text == btnWeather:
		return turn(dialog.Do(uid, dialog.ActionWeather))
	case text == btnCalendar:
		return turn(dialog.Do(uid, dialog.ActionCalendar))
	case text == btnStatus:
		return turn(dialog.Do(uid, dialog.ActionStatus))
	case text == btnDiagnosis:
		return menu(chatID, diagnosisHintText, mainMenuKeyboard())
	case text == btnReminders:
		return menu(chatID, remindersMenuText, reminderMenuKeyboard())
	case text == btnPremium:
		return menu(chatID, premiumMenuText, premiumKeyboard())
	}
	return turn(dialog.Text(uid, msg.Text))
}

func translateCallback(uid string, chatID int64, data string) routed {
	switch data {
	case cbReminderAdd:
		return turn(dialog.Do(uid, dialog.ActionAddReminder))
	case cbReminderList, cbReminderEdit:
		return turn(dialog.Do(uid, dialog.ActionListReminders))
	case cbReminderCancel:
		return turn(dialog.Do(uid, dialog.ActionCancel))
	case cbPremiumBack:
		return menu(chatID, backText, mainMenuKeyboard())
	case cbCropOther:
		return menu(chatID, otherCropText, mainMenuKeyboard())
	}

	switch {
	case strings.HasPrefix(data, prefixChoose):
		if id, ok := parseID(strings.TrimPrefix(data, prefixChoose)); ok {
			in := dialog.Do(uid, dialog.ActionChooseReminder)
			in.ReminderID = id
			return turn(in)
		}
	case strings.HasPrefix(data, prefixDelete):
		if id, ok := parseID(strings.TrimPrefix(data, prefixDelete)); ok {
			in := dialog.Do(uid, dialog.ActionDeleteReminder)
			in.ReminderID = id
			return turn(in)
		}
	case strings.HasPrefix(data, prefixEdit):
		// edit_{field}_{id}
		field, rawID, found := strings.Cut(strings.TrimPrefix(data, prefixEdit), "_")
		f, fieldOK := domain.ParseEditField(field)
		id, idOK := parseID(rawID)
		if found && fieldOK && idOK {
			in := dialog.Do(uid, dialog.ActionEditField)
			in.ReminderID = id
			in.Field = f
			return turn(in)
		}
	case strings.HasPrefix(data, prefixCrop):
		in := dialog.Do(uid, dialog.ActionCalendarCrop)
		in.Culture = strings.TrimPrefix(data, prefixCrop)
		return turn(in)
	case strings.HasPrefix(data, prefixPremium):
		in := dialog.Do(uid, dialog.ActionBuyPremium)
		in.Plan = strings.TrimPrefix(data, prefixPremium)
		return turn(in)
	}
	// Unknown callback: ignore silently.
	return routed{}
}

func userID(from *tgbotapi.User, chat *tgbotapi.Chat) string {
	if from != nil {
		return strconv.FormatInt(from.ID, 10)
	}
	if chat != nil {
		return strconv.FormatInt(chat.ID, 10)
	}
	return ""
}

func parseID(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
