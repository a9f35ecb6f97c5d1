package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dealerbot/core/telegram/sender"
	"github.com/m3rciful/dealerbot/core/telegram/state"
	"github.com/m3rciful/dealerbot/dealer/conversation"
	"github.com/m3rciful/dealerbot/dealer/session"
)

type call struct {
	chat     int64
	what     any
	opts     *tele.SendOptions
	callback string
}

type fakeBot struct {
	mu      sync.Mutex
	calls   []call
	failFor int64
}

func (b *fakeBot) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := call{chat: int64(to.(tele.ChatID)), what: what}
	if len(opts) > 0 {
		c.opts, _ = opts[0].(*tele.SendOptions)
	}
	b.calls = append(b.calls, c)
	if c.chat == b.failFor {
		return nil, &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}
	return &tele.Message{}, nil
}

func (b *fakeBot) Respond(c *tele.Callback, _ ...*tele.CallbackResponse) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call{callback: c.ID})
	return nil
}

func (b *fakeBot) snapshot() []call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]call(nil), b.calls...)
}

func TestFromTelegram(t *testing.T) {
	msg := tele.Update{ID: 5, Message: &tele.Message{
		Text:   "/cars",
		Chat:   &tele.Chat{ID: 10},
		Sender: &tele.User{ID: 20, Username: "asel", FirstName: "Asel"},
	}}
	u, ok := FromTelegram(msg)
	if !ok || u.ID != 5 || u.ChatID != 10 || u.Message == nil || u.Message.Text != "/cars" || u.From.Username != "asel" {
		t.Fatalf("message conversion = %+v, %v", u, ok)
	}

	cb := tele.Update{ID: 6, Callback: &tele.Callback{
		ID:      "q1",
		Data:    "order_42",
		Sender:  &tele.User{ID: 20},
		Message: &tele.Message{Chat: &tele.Chat{ID: 10}},
	}}
	u, ok = FromTelegram(cb)
	if !ok || u.ChatID != 10 || u.Callback == nil || u.Callback.Data != "order_42" || u.Message != nil {
		t.Fatalf("callback conversion = %+v, %v", u, ok)
	}

	if _, ok := FromTelegram(tele.Update{ID: 7}); ok {
		t.Fatalf("empty update must be ignored")
	}
}

func TestHandlerInFlow(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[session.Session]()
	_ = store.Save(ctx, 5, session.Session{Locale: "ru", Flow: session.SaleListing{Step: session.StepPhone}})
	_ = store.Save(ctx, 6, session.Session{Locale: "ru"})
	h := NewHandler(conversation.NewProcessor(nil, store, nil))

	msg := func(chat int64) tele.Update {
		return tele.Update{Message: &tele.Message{Chat: &tele.Chat{ID: chat}}}
	}
	if !h.InFlow(ctx, msg(5)) {
		t.Fatal("chat 5 is mid sale flow")
	}
	if h.InFlow(ctx, msg(6)) || h.InFlow(ctx, tele.Update{}) {
		t.Fatal("idle chats are not in a flow")
	}
}

func TestDeliverOrderAndMarkup(t *testing.T) {
	bot := &fakeBot{}
	d := NewDeliverer(bot, nil)
	out := conversation.Outbox{
		conversation.AnswerCallback{CallbackID: "q1"},
		conversation.SendMessage{ChatID: 10, Text: "menu", Keyboard: &conversation.Keyboard{Reply: [][]string{{"a", "b"}}}},
		conversation.SendMessage{ChatID: 10, Text: "*car*", PhotoURL: "https://x/y.jpg", Markdown: true,
			Keyboard: &conversation.Keyboard{Inline: [][]conversation.Button{{{Text: "buy", Data: "order_1"}}}}},
	}
	if err := d.Deliver(context.Background(), out); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	calls := bot.snapshot()
	if len(calls) != 3 || calls[0].callback != "q1" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if calls[1].what != "menu" || calls[1].opts.ParseMode != tele.ModeDefault || len(calls[1].opts.ReplyMarkup.ReplyKeyboard) != 1 {
		t.Fatalf("text message malformed: %+v", calls[1])
	}
	photo, ok := calls[2].what.(*tele.Photo)
	if !ok || photo.Caption != "*car*" || photo.FileURL != "https://x/y.jpg" {
		t.Fatalf("photo malformed: %#v", calls[2].what)
	}
	if calls[2].opts.ParseMode != tele.ModeMarkdown || calls[2].opts.ReplyMarkup.InlineKeyboard[0][0].Data != "order_1" {
		t.Fatalf("photo options malformed: %+v", calls[2].opts)
	}
}

func TestDeliverContinuesAfterFailure(t *testing.T) {
	bot := &fakeBot{failFor: 99}
	d := NewDeliverer(bot, nil)
	out := conversation.Outbox{
		conversation.SendMessage{ChatID: 99, Text: "admin"},
		conversation.SendMessage{ChatID: 10, Text: "user"},
	}
	err := d.Deliver(context.Background(), out)
	var tgErr *tele.Error
	if !errors.As(err, &tgErr) || tgErr.Code != 403 {
		t.Fatalf("err = %v, want telegram 403", err)
	}
	if calls := bot.snapshot(); len(calls) != 2 || calls[1].chat != 10 {
		t.Fatalf("second message not attempted: %+v", calls)
	}
}

func TestDeliverThroughDispatcher(t *testing.T) {
	bot := &fakeBot{}
	disp := sender.NewDispatcher(sender.Options{QueueSize: 4, Workers: 1, Timeout: time.Second})
	d := NewDeliverer(bot, disp)

	for i := int64(1); i <= 3; i++ {
		out := conversation.Outbox{conversation.SendMessage{ChatID: i, Text: "x"}}
		if err := d.Deliver(context.Background(), out); err != nil {
			t.Fatalf("Deliver: %v", err)
		}
	}
	disp.Close()

	calls := bot.snapshot()
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}
	for i, c := range calls {
		if c.chat != int64(i+1) {
			t.Fatalf("single worker reordered outboxes: %+v", calls)
		}
	}
}

func TestDeliverEmptyOutbox(t *testing.T) {
	bot := &fakeBot{}
	if err := NewDeliverer(bot, nil).Deliver(context.Background(), nil); err != nil || len(bot.snapshot()) != 0 {
		t.Fatalf("empty outbox produced calls")
	}
}
