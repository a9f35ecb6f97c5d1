package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/dealerbot/core/logger"
	"github.com/m3rciful/dealerbot/core/telegram/state"
	"github.com/m3rciful/dealerbot/dealer/session"
)

// Deliverer performs the sends of an outbox. Delivery failures are the
// deliverer's to log; they never undo a committed session.
type Deliverer interface {
	Deliver(ctx context.Context, out Outbox) error
}

// Processor loads the chat session, runs the engine, commits the result and
// hands the outbox to the deliverer.
type Processor struct {
	engine  *Engine
	store   state.Store[session.Session]
	deliver Deliverer
}

// NewProcessor wires a processor.
func NewProcessor(engine *Engine, store state.Store[session.Session], d Deliverer) *Processor {
	return &Processor{engine: engine, store: store, deliver: d}
}

// Process handles one update. A non-nil error means the transition failed:
// the stored session is unchanged and the user got the generic error.
func (p *Processor) Process(ctx context.Context, u Update) error {
	if u.ChatID == 0 {
		if u.Callback != nil {
			p.send(ctx, Outbox{AnswerCallback{CallbackID: u.Callback.ID}})
		}
		return nil
	}

	prev, err := p.store.GetOrCreate(ctx, u.ChatID)
	if err != nil {
		return p.fail(ctx, session.Session{}, u, fmt.Errorf("load session: %w", err))
	}

	next, out, err := p.transition(ctx, prev, u)
	if err != nil {
		return p.fail(ctx, prev, u, err)
	}
	if session.Kind(prev.Flow) != session.Kind(next.Flow) || prev.Locale != next.Locale {
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelDebug, "session.transition",
			slog.String("locale", next.Locale),
			slog.String("flow", session.Kind(next.Flow)),
		)
	}
	p.send(ctx, out)
	return nil
}

// InFlow reports whether chatID has a multi-step flow in progress.
func (p *Processor) InFlow(ctx context.Context, chatID int64) bool {
	s, err := p.store.GetOrCreate(ctx, chatID)
	return err == nil && s.Active()
}

// transition runs the engine and commits its session. A panic in either step
// is turned into an error so the failure outbox is still delivered.
func (p *Processor) transition(ctx context.Context, prev session.Session, u Update) (next session.Session, out Outbox, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, out, err = prev, nil, fmt.Errorf("panic: %v", r)
		}
	}()
	if next, out, err = p.engine.Handle(ctx, prev, u); err != nil {
		return prev, nil, err
	}
	if err = p.commit(ctx, u.ChatID, next); err != nil {
		return prev, nil, err
	}
	return next, out, nil
}

func (p *Processor) commit(ctx context.Context, chatID int64, s session.Session) error {
	if s.IsZero() {
		if err := p.store.Clear(ctx, chatID); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	if err := p.store.Save(ctx, chatID, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *Processor) fail(ctx context.Context, prev session.Session, u Update, err error) error {
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelError, "update.failed",
		slog.String("kind", u.Kind()),
		slog.String("flow", session.Kind(prev.Flow)),
		slog.String("err", err.Error()),
	)
	p.send(ctx, p.engine.Failure(prev, u))
	return err
}

func (p *Processor) send(ctx context.Context, out Outbox) {
	if len(out) == 0 || p.deliver == nil {
		return
	}
	if err := p.deliver.Deliver(ctx, out); err != nil {
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelWarn, "outbox.rejected",
			slog.Int("actions", len(out)),
			slog.String("err", err.Error()),
		)
	}
}
