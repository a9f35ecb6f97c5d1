package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// longPollTimeout converts the configured seconds into a poll timeout.
func longPollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(seconds) * time.Second
}

// BuildPoller wraps a long poller so that every update goes straight to
// handle instead of telebot's own router. The filter always drops the
// update after handling it.
func BuildPoller(ctx context.Context, timeout time.Duration, handle middleware.Handler) tele.Poller {
	base := &tele.LongPoller{
		Timeout:        timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	return tele.NewMiddlewarePoller(base, func(upd *tele.Update) bool {
		if upd == nil {
			return false
		}
		if err := handle(ctx, *upd); err != nil {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "poll.update",
				slog.Int("update_id", upd.ID),
				slog.String("status", "error"),
			)
		}
		return false
	})
}
