// Package webhook serves the bot's HTTP surface: Telegram webhook intake,
// a liveness probe and the Prometheus scrape endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/metrics"
	tgmw "github.com/m3rciful/dealerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const maxUpdateBytes = 1 << 20

// Ack is the body returned for every webhook delivery. Telegram only looks
// at the status code, which is always 200 so that failed updates are not
// redelivered.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Options configures the router.
type Options struct {
	// Path is the webhook route, e.g. "/webhook/<secret>". Empty disables intake.
	Path    string
	Handler tgmw.Handler
	// Metrics mounts /metrics when true.
	Metrics bool
}

// NewRouter builds the chi router for the bot HTTP surface.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(accessLog)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "OK")
	})
	if opts.Metrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	if opts.Path != "" && opts.Handler != nil {
		r.Post(opts.Path, updateHandler(opts.Handler))
	}
	return r
}

func updateHandler(handle tgmw.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd tele.Update
		dec := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes))
		if err := dec.Decode(&upd); err != nil {
			writeAck(w, Ack{OK: false, Error: fmt.Sprintf("invalid update: %v", err)})
			return
		}
		if err := handle(r.Context(), upd); err != nil {
			writeAck(w, Ack{OK: false, Error: err.Error()})
			return
		}
		writeAck(w, Ack{OK: true})
	}
}

func writeAck(w http.ResponseWriter, ack Ack) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ack)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		// the webhook path embeds the secret; log the matched pattern instead
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		if route != "/health" && route != "/metrics" {
			route = "webhook"
		}
		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.LogEvent(r.Context(), logger.HTTP, level, "http.request",
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("code", ww.Status()),
			slog.Duration("duration", logger.Took(start)),
		)
	})
}

// Server wraps http.Server with context-driven shutdown.
type Server struct {
	srv *http.Server
}

// NewServer prepares a server bound to addr.
func NewServer(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		logger.HTTP.Info("http listening",
			slog.String("event", "http.listen"),
			slog.String("addr", s.srv.Addr),
		)
		errc <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
