package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/berdskdekor-ux/agro-bot/internal/dialog"
	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// Bot is the part of *tgbotapi.BotAPI the transport uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Handler runs one dialog turn. dialog.Machine implements it.
type Handler interface {
	Handle(ctx context.Context, in dialog.Input) []domain.Intent
}

// Router wires Telegram updates to the dialog machine and renders the
// resulting intents.
type Router struct {
	bot Bot
	h   Handler
	log *zap.Logger
}

// NewRouter creates a new Telegram router.
func NewRouter(bot Bot, h Handler, log *zap.Logger) *Router {
	return &Router{bot: bot, h: h, log: log}
}

// HandleUpdate routes a single update.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if cb := upd.CallbackQuery; cb != nil {
		_ = r.answerCallback(cb.ID, "")
	}

	rt := r.translate(upd)
	switch {
	case rt.menu != nil:
		if _, err := r.bot.Send(*rt.menu); err != nil {
			r.log.Warn("send menu failed", zap.Int64("chat", rt.menu.ChatID), zap.Error(err))
		}
	case rt.ok:
		for _, in := range r.h.Handle(ctx, rt.in) {
			r.Deliver(in)
		}
	}
}

// Deliver renders and sends one intent. The user id is the private chat id.
func (r *Router) Deliver(in domain.Intent) {
	chatID, err := strconv.ParseInt(in.UserID, 10, 64)
	if err != nil {
		r.log.Error("intent for non-telegram user", zap.String("user", in.UserID), zap.String("kind", string(in.Kind)))
		return
	}
	if _, err := r.bot.Send(render(chatID, in)); err != nil {
		r.log.Warn("send failed",
			zap.Int64("chat", chatID), zap.String("kind", string(in.Kind)), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}
