package middleware

import (
	"context"
	"time"

	"github.com/m3rciful/dealerbot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

// Metrics records update counts and handling latency by update kind.
func Metrics(next Handler) Handler {
	return func(ctx context.Context, upd tele.Update) error {
		start := time.Now()
		err := next(ctx, upd)
		metrics.ObserveUpdate(UpdateKind(upd), time.Since(start).Seconds(), err != nil)
		return err
	}
}
