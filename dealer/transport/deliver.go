package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dealerbot/core/telegram/keyboard"
	"github.com/m3rciful/dealerbot/core/telegram/sender"
	"github.com/m3rciful/dealerbot/dealer/conversation"
)

// BotAPI is the subset of *tele.Bot used for delivery.
type BotAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Queue runs jobs off the request path.
type Queue interface {
	Enqueue(ctx context.Context, action string, run sender.Job) error
}

// Deliverer sends outboxes through the Bot API. Each outbox is one queue job
// so its messages arrive in order. Failed calls are reported and skipped,
// never retried.
type Deliverer struct {
	bot   BotAPI
	queue Queue
}

// NewDeliverer returns a deliverer; a nil queue delivers synchronously.
func NewDeliverer(bot BotAPI, queue Queue) *Deliverer {
	return &Deliverer{bot: bot, queue: queue}
}

// Deliver schedules out. The returned error only reports scheduling failures
// when a queue is set.
func (d *Deliverer) Deliver(ctx context.Context, out conversation.Outbox) error {
	if len(out) == 0 {
		return nil
	}
	if d.queue == nil {
		return d.run(ctx, out)
	}
	return d.queue.Enqueue(ctx, "outbox", func(ctx context.Context) error {
		return d.run(ctx, out)
	})
}

func (d *Deliverer) run(ctx context.Context, out conversation.Outbox) error {
	var errs []error
	for _, a := range out {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		start := time.Now()
		action, err := d.execute(a)
		sender.Report(ctx, action, err, time.Since(start))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", action, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Deliverer) execute(a conversation.Action) (string, error) {
	switch x := a.(type) {
	case conversation.AnswerCallback:
		return "answer_callback", d.bot.Respond(&tele.Callback{ID: x.CallbackID}, &tele.CallbackResponse{})
	case conversation.SendMessage:
		opts := &tele.SendOptions{ReplyMarkup: markup(x.Keyboard)}
		if x.Markdown {
			opts.ParseMode = tele.ModeMarkdown
		}
		to := tele.ChatID(x.ChatID)
		if x.PhotoURL != "" {
			photo := &tele.Photo{File: tele.FromURL(x.PhotoURL), Caption: x.Text}
			_, err := d.bot.Send(to, photo, opts)
			return "send_photo", err
		}
		_, err := d.bot.Send(to, x.Text, opts)
		return "send_message", err
	default:
		return "unknown", fmt.Errorf("unsupported action %T", a)
	}
}

func markup(kb *conversation.Keyboard) *tele.ReplyMarkup {
	switch {
	case kb == nil:
		return nil
	case len(kb.Inline) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			r := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Data})
			}
			rows = append(rows, r)
		}
		return keyboard.InlineButtonsRows(rows...)
	case len(kb.Reply) > 0:
		return keyboard.ReplyButtons(kb.Reply...)
	default:
		return nil
	}
}
