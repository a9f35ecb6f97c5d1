package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/metrics"
	"github.com/m3rciful/dealerbot/dealer/catalog"
	"github.com/m3rciful/dealerbot/dealer/i18n"
	"github.com/m3rciful/dealerbot/dealer/session"
)

func (e *Engine) startOrder(ctx context.Context, s session.Session, chatID, vehicleID int64, out Outbox) (session.Session, Outbox, error) {
	if s.Active() {
		e.flowEvent(ctx, s.Flow, "replace")
	}
	s.Flow = session.OrderContact{VehicleID: vehicleID}
	e.flowEvent(ctx, s.Flow, "start")
	return s, append(out, SendMessage{
		ChatID:   chatID,
		Text:     e.tr.T(s.Locale, "order.ask.phone"),
		Keyboard: e.cancelKeyboard(s.Locale),
	}), nil
}

// orderStep records the order. A vehicle that vanished since the button was
// pressed skips the order but the customer still sees success.
func (e *Engine) orderStep(ctx context.Context, s session.Session, f session.OrderContact, u Update, phone string) (session.Session, Outbox, error) {
	if phone == "" {
		return s, Outbox{SendMessage{
			ChatID:   u.ChatID,
			Text:     e.tr.T(s.Locale, "order.ask.phone"),
			Keyboard: e.cancelKeyboard(s.Locale),
		}}, nil
	}

	var out Outbox
	v, err := e.catalog.GetVehicle(ctx, f.VehicleID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		metrics.IncOrder("vehicle_missing")
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelWarn, "order.skipped",
			slog.Int64("car_id", f.VehicleID),
		)
	case err != nil:
		return s, nil, fmt.Errorf("get vehicle %d: %w", f.VehicleID, err)
	default:
		o := &catalog.Order{
			VehicleID:         v.ID,
			ChatID:            u.ChatID,
			TelegramUsername:  u.From.Username,
			TelegramFirstName: u.From.FirstName,
			FullName:          u.From.DisplayName(),
			Phone:             phone,
			Status:            catalog.StatusNew,
		}
		if err := e.catalog.CreateOrder(ctx, o); err != nil {
			return s, nil, fmt.Errorf("create order: %w", err)
		}
		metrics.IncOrder("created")
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "order.created",
			slog.Int64("order_id", o.ID),
			slog.Int64("car_id", v.ID),
		)
		if e.cfg.AdminChatID != 0 {
			admin := i18n.DefaultLocale
			out = append(out, SendMessage{
				ChatID: e.cfg.AdminChatID,
				Text: e.tr.T(admin, "order.admin",
					"title", v.Title,
					"price", e.tr.Price(admin, v.PriceUSD),
					"phone", phone,
					"client", u.From.Handle(),
					"chat_id", u.ChatID,
				),
			})
		}
	}
	e.flowEvent(ctx, s.Flow, "complete")
	out = append(out, e.mainMenu(u.ChatID, s.Locale, "order.success"))
	return s.WithoutFlow(), out, nil
}
