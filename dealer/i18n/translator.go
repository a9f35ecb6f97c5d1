// Package i18n resolves localized bot texts. Unknown keys resolve to the key
// itself so that a missing translation never breaks a conversation.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Supported locales.
const (
	RU = "ru"
	KY = "ky"

	DefaultLocale = RU
)

// Locales lists the supported locales in chooser order.
var Locales = []string{RU, KY}

// Translator holds every locale table in memory.
type Translator struct {
	tables   map[string]map[string]string
	printers map[string]*message.Printer
}

// NewTranslator loads locales/<code>.yaml for every supported locale from fsys.
func NewTranslator(fsys fs.FS) (*Translator, error) {
	t := &Translator{
		tables:   make(map[string]map[string]string, len(Locales)),
		printers: make(map[string]*message.Printer, len(Locales)),
	}
	for _, code := range Locales {
		filePath := path.Join("locales", code+".yaml")
		data, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
		}
		var table map[string]string
		if err := yaml.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse translation file %s: %w", filePath, err)
		}
		t.tables[code] = table
		t.printers[code] = message.NewPrinter(language.Make(code))
	}
	return t, nil
}

// MustDefault loads the embedded locales and panics on failure. The tables
// are compiled into the binary, so a failure is a build defect.
func MustDefault() *Translator {
	t, err := NewTranslator(LocalesFS)
	if err != nil {
		panic(err)
	}
	return t
}

// Normalize maps an unset or unsupported locale to the default one.
func Normalize(locale string) string {
	for _, code := range Locales {
		if code == locale {
			return code
		}
	}
	return DefaultLocale
}

// T resolves key for locale and substitutes {name} placeholders from
// params, given as alternating name/value pairs. Values are rendered with
// fmt.Sprint. A key missing from the locale falls back to the default
// locale and then to the key itself.
func (t *Translator) T(locale, key string, params ...any) string {
	locale = Normalize(locale)
	tmpl, ok := t.tables[locale][key]
	if !ok {
		if tmpl, ok = t.tables[DefaultLocale][key]; !ok {
			return key
		}
	}
	if len(params) < 2 {
		return tmpl
	}
	pairs := make([]string, 0, len(params))
	for i := 0; i+1 < len(params); i += 2 {
		pairs = append(pairs, "{"+fmt.Sprint(params[i])+"}", fmt.Sprint(params[i+1]))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Int formats n with the locale's digit grouping.
func (t *Translator) Int(locale string, n int) string {
	return t.printer(locale).Sprintf("%d", n)
}

// Price formats a USD amount with grouping and no fractional part unless
// cents are present.
func (t *Translator) Price(locale string, amount float64) string {
	p := t.printer(locale)
	if amount == float64(int64(amount)) {
		return p.Sprintf("%d", int64(amount))
	}
	return p.Sprintf("%.2f", amount)
}

func (t *Translator) printer(locale string) *message.Printer {
	return t.printers[Normalize(locale)]
}

// LocaleByLabel maps a language chooser label back to its locale.
func (t *Translator) LocaleByLabel(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, code := range Locales {
		if t.tables[code]["lang.name"] == label {
			return code, true
		}
	}
	return "", false
}
