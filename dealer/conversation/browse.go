package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/dealerbot/core/telegram/format"
	"github.com/m3rciful/dealerbot/dealer/catalog"
)

// listVehicles sends one message per active vehicle, optionally limited to
// a price tier.
func (e *Engine) listVehicles(ctx context.Context, chatID int64, locale string, tierID int64) (Outbox, error) {
	vehicles, err := e.catalog.ListActiveVehicles(ctx, catalog.VehicleFilter{
		TierID: tierID,
		Limit:  e.cfg.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		return Outbox{SendMessage{ChatID: chatID, Text: e.tr.T(locale, "cars.none")}}, nil
	}
	out := make(Outbox, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, SendMessage{
			ChatID:   chatID,
			Text:     e.caption(locale, v),
			PhotoURL: v.PhotoURL,
			Markdown: true,
			Keyboard: &Keyboard{Inline: [][]Button{{{
				Text: e.tr.T(locale, "cars.order_button"),
				Data: dataOrderPrefix + strconv.FormatInt(v.ID, 10),
			}}}},
		})
	}
	return out, nil
}

func (e *Engine) caption(locale string, v catalog.Vehicle) string {
	return e.tr.T(locale, "cars.caption",
		"title", format.Markdown(v.Title),
		"price", e.tr.Price(locale, v.PriceUSD),
		"mileage", e.tr.Int(locale, v.MileageKM),
		"brand", format.Markdown(v.Brand),
		"model", format.Markdown(v.Model),
		"year", v.Year,
		"fuel", format.Markdown(v.FuelType),
		"transmission", format.Markdown(v.Transmission),
	)
}

// tierMenu renders one button per tier that currently has vehicles.
func (e *Engine) tierMenu(ctx context.Context, chatID int64, locale string) (Outbox, error) {
	tiers, err := e.catalog.ListActivePriceTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list price tiers: %w", err)
	}
	var rows [][]Button
	for _, t := range tiers {
		n, err := e.catalog.CountActiveVehicles(ctx, catalog.VehicleFilter{TierID: t.ID})
		if err != nil {
			return nil, fmt.Errorf("count vehicles in tier %d: %w", t.ID, err)
		}
		if n == 0 {
			continue
		}
		rows = append(rows, []Button{{
			Text: e.tr.T(locale, "tiers.button", "name", t.Name, "count", n),
			Data: dataTierPrefix + strconv.FormatInt(t.ID, 10),
		}})
	}
	text := e.tr.T(locale, "tiers.title")
	if len(rows) == 0 {
		text = e.tr.T(locale, "tiers.none")
	}
	rows = append(rows, []Button{{Text: e.tr.T(locale, "tiers.back"), Data: dataBackMenu}})
	return Outbox{SendMessage{ChatID: chatID, Text: text, Keyboard: &Keyboard{Inline: rows}}}, nil
}

func (e *Engine) managers(ctx context.Context, chatID int64, locale string) (Outbox, error) {
	list, err := e.catalog.ListActiveManagers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	if len(list) == 0 {
		list = []catalog.Manager{e.cfg.FallbackManager}
	}
	blocks := make([]string, 0, len(list)+1)
	blocks = append(blocks, e.tr.T(locale, "managers.title"))
	for _, m := range list {
		blocks = append(blocks, managerBlock(m))
	}
	return Outbox{SendMessage{
		ChatID:   chatID,
		Text:     strings.Join(blocks, "\n\n"),
		Markdown: true,
	}}, nil
}

func managerBlock(m catalog.Manager) string {
	lines := []string{"👤 *" + format.Markdown(m.Name) + "*"}
	if h := strings.TrimPrefix(m.TelegramUsername, "@"); h != "" {
		lines = append(lines, "💬 @"+format.Markdown(h))
	}
	if m.Phone != "" {
		lines = append(lines, "📞 "+format.Markdown(m.Phone))
	}
	if m.Email != "" {
		lines = append(lines, "📧 "+format.Markdown(m.Email))
	}
	return strings.Join(lines, "\n")
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
