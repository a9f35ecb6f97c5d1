package middleware

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// Handler processes one inbound update regardless of how it arrived.
type Handler func(ctx context.Context, upd tele.Update) error

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Chain applies mws so that the first one runs outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}

// UpdateKind names the update payload for logs and metrics.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	default:
		return "other"
	}
}

// UpdateIdentity returns chat and user ids of the update, zero when absent.
func UpdateIdentity(upd tele.Update) (chatID, userID int64) {
	switch {
	case upd.Callback != nil:
		if upd.Callback.Sender != nil {
			userID = upd.Callback.Sender.ID
		}
		if upd.Callback.Message != nil && upd.Callback.Message.Chat != nil {
			chatID = upd.Callback.Message.Chat.ID
		} else {
			chatID = userID
		}
	case upd.Message != nil:
		if upd.Message.Sender != nil {
			userID = upd.Message.Sender.ID
		}
		if upd.Message.Chat != nil {
			chatID = upd.Message.Chat.ID
		}
	}
	return chatID, userID
}
