package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dealerbot/core/logger"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that are never limited.
	Exclude map[string]struct{}
	// Exempt, when set, lets an update through regardless of timing.
	Exempt func(ctx context.Context, upd tele.Update) bool
	// Now is used by tests.
	Now func() time.Time
}

// RateLimit drops updates that arrive from the same chat within Interval of
// the previous accepted one. Dropped updates are acknowledged as handled.
func RateLimit(opts RateLimitOptions) Middleware {
	if opts.Interval <= 0 {
		return nil
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
		pruned   time.Time
	)
	return func(next Handler) Handler {
		return func(ctx context.Context, upd tele.Update) error {
			if _, skip := opts.Exclude[UpdateKind(upd)]; skip {
				return next(ctx, upd)
			}
			chatID, _ := UpdateIdentity(upd)
			if chatID == 0 {
				return next(ctx, upd)
			}

			t := now()
			mu.Lock()
			if last, ok := lastSeen[chatID]; ok && t.Sub(last) < opts.Interval {
				mu.Unlock()
				if opts.Exempt != nil && opts.Exempt(ctx, upd) {
					return next(ctx, upd)
				}
				logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.rate_limit",
					slog.String("kind", UpdateKind(upd)),
				)
				return nil
			}
			lastSeen[chatID] = t
			if t.Sub(pruned) > time.Minute {
				for id, seen := range lastSeen {
					if t.Sub(seen) >= opts.Interval {
						delete(lastSeen, id)
					}
				}
				lastSeen[chatID] = t
				pruned = t
			}
			mu.Unlock()
			return next(ctx, upd)
		}
	}
}
