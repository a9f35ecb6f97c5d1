// Package conversation is the dealership bot's state machine. Handle is a
// pure transition: it takes the stored session and one update and returns
// the next session plus an outbox of sends. Committing the session and
// delivering the outbox is the Processor's job.
package conversation

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/metrics"
	"github.com/m3rciful/dealerbot/dealer/catalog"
	"github.com/m3rciful/dealerbot/dealer/i18n"
	"github.com/m3rciful/dealerbot/dealer/session"
)

// DefaultPageSize bounds one catalog listing.
const DefaultPageSize = 5

// DefaultManager is shown when no manager is active.
var DefaultManager = catalog.Manager{
	Name:  "Мухаммед",
	Phone: "+996 555 123 456",
	Email: "info@suvtekin.kg",
}

// Config tunes the engine.
type Config struct {
	// AdminChatID receives order and sale notifications; 0 disables them.
	AdminChatID int64
	PageSize    int
	// FallbackManager replaces the manager list when it is empty.
	FallbackManager catalog.Manager
}

// Engine dispatches updates against a session.
type Engine struct {
	catalog Catalog
	tr      *i18n.Translator
	cfg     Config
}

// NewEngine builds an engine; zero config fields take their defaults.
func NewEngine(c Catalog, tr *i18n.Translator, cfg Config) *Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.FallbackManager.Name == "" {
		cfg.FallbackManager = DefaultManager
	}
	return &Engine{catalog: c, tr: tr, cfg: cfg}
}

// Handle runs one transition. On error the returned session and outbox must
// be discarded; the caller keeps the session it passed in.
func (e *Engine) Handle(ctx context.Context, s session.Session, u Update) (session.Session, Outbox, error) {
	ctx = logger.WithHandler(ctx, route(s, u))
	switch {
	case u.Callback != nil:
		return e.handleCallback(ctx, s, u)
	case u.Message != nil:
		return e.handleMessage(ctx, s, u)
	default:
		return s, nil, nil
	}
}

// route names the branch that handles u, for the handler log field.
func route(s session.Session, u Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Message == nil:
		return "ignored"
	case !s.LocaleResolved():
		return "locale"
	case s.Active():
		return session.Kind(s.Flow)
	default:
		return "menu"
	}
}

// Failure is the outbox sent after an unexpected error. s is the session
// as it was before the failed transition.
func (e *Engine) Failure(s session.Session, u Update) Outbox {
	var out Outbox
	if u.Callback != nil {
		out = append(out, AnswerCallback{CallbackID: u.Callback.ID})
	}
	if u.ChatID == 0 {
		return out
	}
	if !s.LocaleResolved() {
		return append(out, e.chooser(u.ChatID))
	}
	return append(out, e.mainMenu(u.ChatID, s.Locale, "error.generic"))
}

func (e *Engine) handleMessage(ctx context.Context, s session.Session, u Update) (session.Session, Outbox, error) {
	text := strings.TrimSpace(u.Message.Text)
	cmd := command(text)

	if cmd == "/start" {
		if s.Active() {
			e.flowEvent(ctx, s.Flow, "reset")
		}
		return session.Session{}, Outbox{e.chooser(u.ChatID)}, nil
	}

	if !s.LocaleResolved() {
		locale, ok := e.tr.LocaleByLabel(text)
		if !ok {
			return s, Outbox{e.chooser(u.ChatID)}, nil
		}
		s.Locale = locale
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "locale.set",
			slog.String("locale", locale),
		)
		return s, Outbox{e.mainMenu(u.ChatID, locale, "welcome")}, nil
	}

	if cmd == "/cancel" || text == e.tr.T(s.Locale, "menu.cancel") {
		if !s.Active() {
			return s, Outbox{e.mainMenu(u.ChatID, s.Locale, "menu.title")}, nil
		}
		e.flowEvent(ctx, s.Flow, "cancel")
		return s.WithoutFlow(), Outbox{e.mainMenu(u.ChatID, s.Locale, "cancelled")}, nil
	}

	switch f := s.Flow.(type) {
	case session.SaleListing:
		return e.saleStep(ctx, s, f, u, text)
	case session.OrderContact:
		return e.orderStep(ctx, s, f, u, text)
	}

	return e.menu(ctx, s, u, text, cmd)
}

func (e *Engine) menu(ctx context.Context, s session.Session, u Update, text, cmd string) (session.Session, Outbox, error) {
	label := func(key string) bool { return text == e.tr.T(s.Locale, key) }
	switch {
	case cmd == "/cars" || label("menu.cars"):
		out, err := e.listVehicles(ctx, u.ChatID, s.Locale, 0)
		return s, out, err
	case cmd == "/prices" || label("menu.prices"):
		out, err := e.tierMenu(ctx, u.ChatID, s.Locale)
		return s, out, err
	case cmd == "/managers" || label("menu.managers"):
		out, err := e.managers(ctx, u.ChatID, s.Locale)
		return s, out, err
	case cmd == "/sell" || label("menu.sell"):
		return e.startSale(ctx, s, u.ChatID)
	case cmd == "/language" || label("menu.language"):
		return session.Session{}, Outbox{e.chooser(u.ChatID)}, nil
	default:
		return s, Outbox{e.help(u.ChatID, s.Locale)}, nil
	}
}

func (e *Engine) help(chatID int64, locale string) SendMessage {
	msg := e.mainMenu(chatID, locale, "help")
	msg.Markdown = true
	return msg
}

func (e *Engine) handleCallback(ctx context.Context, s session.Session, u Update) (session.Session, Outbox, error) {
	out := Outbox{AnswerCallback{CallbackID: u.Callback.ID}}
	if !s.LocaleResolved() {
		return s, append(out, e.chooser(u.ChatID)), nil
	}
	data := u.Callback.Data
	switch {
	case strings.HasPrefix(data, dataOrderPrefix):
		id, ok := parseID(strings.TrimPrefix(data, dataOrderPrefix))
		if !ok {
			break
		}
		return e.startOrder(ctx, s, u.ChatID, id, out)
	case strings.HasPrefix(data, dataTierPrefix):
		id, ok := parseID(strings.TrimPrefix(data, dataTierPrefix))
		if !ok {
			break
		}
		list, err := e.listVehicles(ctx, u.ChatID, s.Locale, id)
		return s, append(out, list...), err
	case data == dataBackMenu:
		return s, append(out, e.mainMenu(u.ChatID, s.Locale, "menu.title")), nil
	}
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelWarn, "callback.unknown",
		slog.String("data", logger.Truncate(data, 64)),
	)
	return s, out, nil
}

func (e *Engine) flowEvent(ctx context.Context, f session.Flow, event string) {
	kind := session.Kind(f)
	metrics.IncFlowEvent(kind, event)
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "flow."+event,
		slog.String("flow", kind),
	)
}

// command returns the slash command in text without bot mention and
// arguments, or "" when text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}
