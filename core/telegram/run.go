package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	coreconfig "github.com/m3rciful/dealerbot/core/config"
	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/telegram/middleware"
	tgsender "github.com/m3rciful/dealerbot/core/telegram/sender"
	"github.com/m3rciful/dealerbot/core/telegram/webhook"

	tele "gopkg.in/telebot.v4"
)

// UpdateHandler handles one inbound update. Returning an error marks the
// update as failed in the webhook acknowledgment and in metrics.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tele.Update) error
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config *coreconfig.Config
	Bot    *tele.Bot

	Handler     UpdateHandler
	Middlewares []middleware.Middleware

	Dispatcher *tgsender.Dispatcher
	// Commands populate the client-side command menu on startup.
	Commands []tele.Command

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
}

// NewBot builds a Bot API client without starting any intake. The token is
// not validated against the API in webhook mode since the bot never polls.
func NewBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	var pollTimeout time.Duration
	if isLongpoll(cfg) {
		pollTimeout = longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)
	}
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Client:  BuildHTTPClient(pollTimeout),
		Offline: !isLongpoll(cfg),
		OnError: func(err error, _ tele.Context) {
			logger.TG.Error("bot error",
				slog.String("event", "tg.error"),
				slog.String("err", tgsender.SanitizeError(err)),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.TG.Debug("bot ready",
		slog.String("event", "tg.init"),
		slog.Duration("duration", logger.Took(start)),
	)
	return bot, nil
}

// RunTelegram wires intake (webhook or long polling) to the handler and
// blocks until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	if opts.Handler == nil {
		return fmt.Errorf("telegram: nil update handler")
	}
	cfg := opts.Config

	bot := opts.Bot
	if bot == nil {
		var err error
		if bot, err = NewBot(cfg); err != nil {
			return err
		}
	}
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(tgsender.Options{
			QueueSize: cfg.Sender.QueueSize,
			Workers:   cfg.Sender.Workers,
			Timeout:   cfg.Sender.Timeout,
		})
	}
	rt := Runtime{Bot: bot, Dispatcher: dispatcher}

	mws := append(DefaultMiddlewares(), opts.Middlewares...)
	handle := middleware.Chain(opts.Handler.HandleUpdate, mws...)

	if len(opts.Commands) > 0 {
		if err := bot.SetCommands(opts.Commands); err != nil {
			logger.TG.Warn("set commands failed",
				slog.String("event", "tg.commands"),
				slog.String("err", tgsender.SanitizeError(err)),
			)
		}
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			dispatcher.Close()
			return err
		}
	}

	runErr := serve(ctx, cfg, bot, handle)

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	dispatcher.Close()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return stopErr
}

func serve(ctx context.Context, cfg *coreconfig.Config, bot *tele.Bot, handle middleware.Handler) error {
	addr := net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port))
	g, gctx := errgroup.WithContext(ctx)

	if isLongpoll(cfg) {
		if err := bot.RemoveWebhook(false); err != nil {
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", tgsender.SanitizeError(err)),
			)
		}
		timeout := longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)
		bot.Poller = BuildPoller(gctx, timeout, handle)
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Duration("timeout", timeout),
		)

		srv := webhook.NewServer(addr, webhook.NewRouter(webhook.Options{Metrics: true}))
		g.Go(func() error { return srv.Run(gctx) })
		g.Go(func() error {
			done := make(chan struct{})
			go func() {
				bot.Start()
				close(done)
			}()
			select {
			case <-gctx.Done():
				bot.Stop()
				<-done
				return gctx.Err()
			case <-done:
				return errors.New("telegram: poller stopped")
			}
		})
		return g.Wait()
	}

	path := cfg.WebhookPath()
	srv := webhook.NewServer(addr, webhook.NewRouter(webhook.Options{
		Path:    path,
		Handler: handle,
		Metrics: true,
	}))
	g.Go(func() error { return srv.Run(gctx) })

	publicURL := cfg.Webhook.URL + path
	if err := bot.SetWebhook(&tele.Webhook{
		AllowedUpdates: []string{"message", "callback_query"},
		Endpoint:       &tele.WebhookEndpoint{PublicURL: publicURL},
	}); err != nil {
		logger.TG.Error("set webhook failed",
			slog.String("event", "set_webhook"),
			slog.String("err", tgsender.SanitizeError(err)),
		)
	} else {
		logger.TG.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", addr),
			slog.String("public_url", redactPath(publicURL, cfg.Webhook.Secret)),
		)
	}
	return g.Wait()
}

func isLongpoll(cfg *coreconfig.Config) bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Telegram.RunMode), coreconfig.RunModeLongpoll)
}

func redactPath(url, secret string) string {
	if secret == "" {
		return url
	}
	return strings.ReplaceAll(url, secret, "<secret>")
}
