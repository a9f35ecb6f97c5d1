package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/metrics"
	"github.com/m3rciful/dealerbot/dealer/catalog"
	"github.com/m3rciful/dealerbot/dealer/i18n"
	"github.com/m3rciful/dealerbot/dealer/session"
)

func (e *Engine) startSale(ctx context.Context, s session.Session, chatID int64) (session.Session, Outbox, error) {
	s.Flow = session.SaleListing{Step: session.StepBrand}
	e.flowEvent(ctx, s.Flow, "start")
	return s, Outbox{
		SendMessage{ChatID: chatID, Text: e.tr.T(s.Locale, "sale.start"), Markdown: true},
		e.ask(chatID, s.Locale, session.StepBrand),
	}, nil
}

func (e *Engine) ask(chatID int64, locale string, step session.SaleStep) SendMessage {
	return SendMessage{
		ChatID:   chatID,
		Text:     e.tr.T(locale, "sale.ask."+string(step)),
		Keyboard: e.cancelKeyboard(locale),
	}
}

func (e *Engine) invalid(chatID int64, locale string, step session.SaleStep) Outbox {
	return Outbox{SendMessage{
		ChatID:   chatID,
		Text:     e.tr.T(locale, "sale.invalid."+string(step)),
		Keyboard: e.cancelKeyboard(locale),
	}}
}

// saleStep stores one answer. Invalid answers leave the session untouched.
func (e *Engine) saleStep(ctx context.Context, s session.Session, f session.SaleListing, u Update, text string) (session.Session, Outbox, error) {
	if text == "" {
		return s, Outbox{e.ask(u.ChatID, s.Locale, f.Step)}, nil
	}

	d := f.Draft
	switch f.Step {
	case session.StepBrand:
		d.Brand = text
	case session.StepModel:
		d.Model = text
	case session.StepYear:
		n, ok := parseCount(text)
		if !ok {
			return s, e.invalid(u.ChatID, s.Locale, f.Step), nil
		}
		d.Year = n
	case session.StepMileage:
		n, ok := parseCount(text)
		if !ok {
			return s, e.invalid(u.ChatID, s.Locale, f.Step), nil
		}
		d.Mileage = n
	case session.StepPrice:
		p, ok := parsePrice(text)
		if !ok {
			return s, e.invalid(u.ChatID, s.Locale, f.Step), nil
		}
		d.Price = p
	case session.StepDescription:
		d.Description = text
	case session.StepPhone:
		return e.submitSale(ctx, s, d, u, text)
	default:
		return s, nil, fmt.Errorf("sale flow: unknown step %q", f.Step)
	}

	next, _ := f.Step.Next()
	s.Flow = session.SaleListing{Step: next, Draft: d}
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelDebug, "flow.step",
		slog.String("flow", "sale"),
		slog.String("step", string(next)),
	)
	return s, Outbox{e.ask(u.ChatID, s.Locale, next)}, nil
}

func (e *Engine) submitSale(ctx context.Context, s session.Session, d session.SaleDraft, u Update, phone string) (session.Session, Outbox, error) {
	req := &catalog.SaleListingRequest{
		ChatID:            u.ChatID,
		TelegramUsername:  u.From.Username,
		TelegramFirstName: u.From.FirstName,
		Brand:             d.Brand,
		Model:             d.Model,
		Year:              d.Year,
		Mileage:           d.Mileage,
		Price:             d.Price,
		Description:       d.Description,
		Phone:             phone,
		Status:            catalog.StatusNew,
	}
	if err := e.catalog.CreateSaleListing(ctx, req); err != nil {
		return s, nil, fmt.Errorf("create sale listing: %w", err)
	}
	metrics.IncSaleListing()
	e.flowEvent(ctx, s.Flow, "complete")
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "sale.created",
		slog.Int64("listing_id", req.ID),
	)

	var out Outbox
	if e.cfg.AdminChatID != 0 {
		admin := i18n.DefaultLocale
		out = append(out, SendMessage{
			ChatID: e.cfg.AdminChatID,
			Text: e.tr.T(admin, "sale.admin",
				"brand", req.Brand,
				"model", req.Model,
				"year", req.Year,
				"mileage", e.tr.Int(admin, req.Mileage),
				"price", e.tr.Price(admin, req.Price),
				"description", req.Description,
				"phone", req.Phone,
				"client", u.From.Handle(),
				"chat_id", u.ChatID,
			),
		})
	}
	out = append(out, e.mainMenu(u.ChatID, s.Locale, "sale.success"))
	return s.WithoutFlow(), out, nil
}

// maxPrice is the largest magnitude sale_listing_requests.car_price (NUMERIC(12,2)) holds.
const maxPrice = 9_999_999_999.99

// parseCount accepts an integer that fits the INTEGER columns of sale_listing_requests.
func parseCount(text string) (int, bool) {
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// parsePrice accepts a decimal with either '.' or ',' as separator.
func parsePrice(text string) (float64, bool) {
	p, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) || math.Abs(p) > maxPrice {
		return 0, false
	}
	return p, true
}
