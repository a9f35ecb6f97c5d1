package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dealerbot/core/bootstrap"
	"github.com/m3rciful/dealerbot/core/logger"
	coretelegram "github.com/m3rciful/dealerbot/core/telegram"
	"github.com/m3rciful/dealerbot/core/telegram/middleware"
	"github.com/m3rciful/dealerbot/core/telegram/sender"
	"github.com/m3rciful/dealerbot/core/telegram/state"
	"github.com/m3rciful/dealerbot/dealer/catalog"
	"github.com/m3rciful/dealerbot/dealer/conversation"
	"github.com/m3rciful/dealerbot/dealer/i18n"
	"github.com/m3rciful/dealerbot/dealer/session"
	"github.com/m3rciful/dealerbot/dealer/transport"
)

// App owns the long-lived resources of a running bot.
type App struct {
	cfg        *Config
	db         *sqlx.DB
	redis      *redis.Client
	bot        *tele.Bot
	dispatcher *sender.Dispatcher
	handler    *transport.Handler
	commands   []tele.Command
}

// Bootstrap prepares logging, the database and every dealer component.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	var seeders []bootstrap.Seeder
	if cfg.Catalog.Seed {
		seeders = append(seeders, catalog.Seeder{})
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
		Seeders:  seeders,
	})
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, db: res.DB}

	tr, err := i18n.NewTranslator(i18n.LocalesFS)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("app: locales: %w", err)
	}

	store, err := a.sessionStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	if a.bot, err = coretelegram.NewBot(&cfg.Config); err != nil {
		a.close()
		return nil, err
	}
	a.dispatcher = sender.NewDispatcher(sender.Options{
		QueueSize: cfg.Sender.QueueSize,
		Workers:   cfg.Sender.Workers,
		Timeout:   cfg.Sender.Timeout,
	})

	engine := conversation.NewEngine(catalog.NewRepository(res.DB), tr, conversation.Config{
		AdminChatID:     cfg.Telegram.AdminID,
		PageSize:        cfg.Catalog.PageSize,
		FallbackManager: cfg.Catalog.FallbackManager.manager(),
	})
	proc := conversation.NewProcessor(engine, store, transport.NewDeliverer(a.bot, a.dispatcher))
	a.handler = transport.NewHandler(proc)
	a.commands = Commands(tr)

	logger.LogEvent(ctx, logger.L, slog.LevelInfo, "app.init",
		slog.String("session_backend", cfg.Session.Backend),
		slog.Int("page_size", cfg.Catalog.PageSize),
		slog.Bool("admin_notify", cfg.Telegram.AdminID != 0),
	)
	return a, nil
}

func (a *App) sessionStore(ctx context.Context) (state.Store[session.Session], error) {
	if a.cfg.Session.Backend != state.BackendRedis {
		return state.NewMemoryStore[session.Session](), nil
	}
	rc, err := state.NewRedisClient(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("app: redis: %w", err)
	}
	a.redis = rc
	return state.NewRedisStore[session.Session](rc, state.RedisOptions{TTL: a.cfg.Session.TTL}), nil
}

// TelegramRunOptions hands the wired components to the core runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a.handler == nil {
		return coretelegram.RunOptions{}, errors.New("app: not bootstrapped")
	}
	// Callbacks are never limited so every button press is answered, and
	// answers inside a flow are never dropped.
	limit := middleware.RateLimit(middleware.RateLimitOptions{
		Interval: a.cfg.Telegram.RateLimit,
		Exclude:  map[string]struct{}{"callback": {}},
		Exempt:   a.handler.InFlow,
	})
	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Bot:         a.bot,
		Handler:     a.handler,
		Middlewares: []middleware.Middleware{limit},
		Dispatcher:  a.dispatcher,
		Commands:    a.commands,
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.close()
		},
	}, nil
}

func (a *App) close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// Commands is the client-side command menu, described in the default locale.
func Commands(tr *i18n.Translator) []tele.Command {
	describe := func(key string) string { return tr.T(i18n.DefaultLocale, key) }
	return []tele.Command{
		{Text: "start", Description: describe("cmd.start")},
		{Text: "cars", Description: describe("cmd.cars")},
		{Text: "prices", Description: describe("cmd.prices")},
		{Text: "managers", Description: describe("cmd.managers")},
		{Text: "sell", Description: describe("cmd.sell")},
		{Text: "help", Description: describe("cmd.help")},
	}
}

func (m ManagerConfig) manager() catalog.Manager {
	return catalog.Manager{
		Name:             m.Name,
		TelegramUsername: m.Telegram,
		Phone:            m.Phone,
		Email:            m.Email,
		Active:           true,
	}
}
