package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/dealerbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Recover turns a panic in the wrapped handler into an error so one chat
// cannot take the process down.
func Recover(next Handler) Handler {
	return func(ctx context.Context, upd tele.Update) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
					slog.Any("err", r),
					slog.Int("update_id", upd.ID),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic while handling update %d: %v", upd.ID, r)
			}
		}()
		return next(ctx, upd)
	}
}
