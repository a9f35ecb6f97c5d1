package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/dealerbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// recentUpdates keeps a short-lived set of update IDs so redelivered
// webhooks are logged once.
var (
	recentMu     sync.Mutex
	recentUpdate = make(map[int]time.Time)
	keepFor      = 10 * time.Second
)

func alreadyLogged(updateID int) bool {
	now := time.Now()
	recentMu.Lock()
	defer recentMu.Unlock()
	for id, ts := range recentUpdate {
		if now.Sub(ts) > keepFor {
			delete(recentUpdate, id)
		}
	}
	if _, ok := recentUpdate[updateID]; ok {
		return true
	}
	recentUpdate[updateID] = now
	return false
}

// Logging attaches the rid and update identifiers to ctx, logs receipt at
// debug level (sampled) and logs the outcome of every update.
func Logging(next Handler) Handler {
	return func(ctx context.Context, upd tele.Update) error {
		chatID, userID := UpdateIdentity(upd)
		ctx = logger.UpdateContext(ctx, upd.ID, chatID, userID)
		kind := UpdateKind(upd)

		if logger.ShouldSampleDebug() && !alreadyLogged(upd.ID) {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", kind),
			}
			switch {
			case upd.Callback != nil:
				attrs = append(attrs, slog.String("payload", logger.Truncate(upd.Callback.Data, 128)))
			case upd.Message != nil:
				if t := upd.Message.Text; t != "" {
					attrs = append(attrs, slog.String("payload", logger.Truncate(t, 256)))
				}
				if s := upd.Message.Sender; s != nil && s.Username != "" {
					attrs = append(attrs, slog.String("username", logger.Truncate(s.Username, 64)))
				}
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}

		start := time.Now()
		err := next(ctx, upd)
		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.String("kind", kind),
			slog.Duration("duration", logger.Took(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "update.handled", attrs...)
			return err
		}
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "update.handled", attrs...)
		return nil
	}
}
