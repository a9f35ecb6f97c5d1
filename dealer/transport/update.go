// Package transport connects the conversation engine to the Telegram Bot API.
package transport

import (
	"context"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/telegram/middleware"
	"github.com/m3rciful/dealerbot/dealer/conversation"
)

// Handler feeds Telegram updates into the conversation processor.
type Handler struct {
	proc *conversation.Processor
}

// NewHandler wraps p for the webhook and long-poll runtimes.
func NewHandler(p *conversation.Processor) *Handler {
	return &Handler{proc: p}
}

// HandleUpdate ignores updates that are neither messages nor callbacks.
func (h *Handler) HandleUpdate(ctx context.Context, upd tele.Update) error {
	u, ok := FromTelegram(upd)
	if !ok {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.ignored",
			slog.String("kind", middleware.UpdateKind(upd)),
		)
		return nil
	}
	return h.proc.Process(ctx, u)
}

// InFlow reports whether the update's chat is mid-flow, so its answers are
// not rate limited.
func (h *Handler) InFlow(ctx context.Context, upd tele.Update) bool {
	chatID, _ := middleware.UpdateIdentity(upd)
	return chatID != 0 && h.proc.InFlow(ctx, chatID)
}

// FromTelegram converts a Bot API update; ok is false for payloads the bot
// does not handle.
func FromTelegram(upd tele.Update) (conversation.Update, bool) {
	chatID, _ := middleware.UpdateIdentity(upd)
	u := conversation.Update{ID: upd.ID, ChatID: chatID}
	switch {
	case upd.Callback != nil:
		u.From = user(upd.Callback.Sender)
		u.Callback = &conversation.Callback{ID: upd.Callback.ID, Data: upd.Callback.Data}
	case upd.Message != nil:
		u.From = user(upd.Message.Sender)
		u.Message = &conversation.Message{Text: upd.Message.Text}
	default:
		return conversation.Update{}, false
	}
	return u, true
}

func user(s *tele.User) conversation.User {
	if s == nil {
		return conversation.User{}
	}
	return conversation.User{
		ID:        s.ID,
		Username:  s.Username,
		FirstName: s.FirstName,
		LastName:  s.LastName,
	}
}
