package conversation

import (
	"github.com/m3rciful/dealerbot/dealer/i18n"
)

// Callback data prefixes carried by inline buttons.
const (
	dataOrderPrefix = "order_"
	dataTierPrefix  = "cat_"
	dataBackMenu    = "back_menu"
)

func (e *Engine) chooserKeyboard() *Keyboard {
	row := make([]string, 0, len(i18n.Locales))
	for _, code := range i18n.Locales {
		row = append(row, e.tr.T(code, "lang.name"))
	}
	return &Keyboard{Reply: [][]string{row}}
}

func (e *Engine) mainKeyboard(locale string) *Keyboard {
	t := func(key string) string { return e.tr.T(locale, key) }
	return &Keyboard{Reply: [][]string{
		{t("menu.cars"), t("menu.prices")},
		{t("menu.managers"), t("menu.sell")},
		{t("menu.help"), t("menu.language")},
	}}
}

func (e *Engine) cancelKeyboard(locale string) *Keyboard {
	return &Keyboard{Reply: [][]string{{e.tr.T(locale, "menu.cancel")}}}
}

// chooser is the only message allowed before a locale is resolved.
func (e *Engine) chooser(chatID int64) SendMessage {
	return SendMessage{
		ChatID:   chatID,
		Text:     e.tr.T(i18n.DefaultLocale, "lang.choose"),
		Keyboard: e.chooserKeyboard(),
	}
}

func (e *Engine) mainMenu(chatID int64, locale, key string) SendMessage {
	return SendMessage{
		ChatID:   chatID,
		Text:     e.tr.T(locale, key),
		Keyboard: e.mainKeyboard(locale),
	}
}
