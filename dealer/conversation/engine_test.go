package conversation

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/m3rciful/dealerbot/dealer/catalog"
	"github.com/m3rciful/dealerbot/dealer/i18n"
	"github.com/m3rciful/dealerbot/dealer/session"
)

func isChooser(tr *i18n.Translator, m SendMessage) bool {
	if m.Text != tr.T(i18n.DefaultLocale, "lang.choose") || m.Keyboard == nil || len(m.Keyboard.Reply) != 1 {
		return false
	}
	return slices.Equal(m.Keyboard.Reply[0], []string{tr.T(i18n.RU, "lang.name"), tr.T(i18n.KY, "lang.name")})
}

func TestOnlyChooserBeforeLocale(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{vehicles: []catalog.Vehicle{sampleVehicle(42, 14000)}})
	inputs := []Update{
		text("/cars"), text("/prices"), text("/managers"), text("/sell"), text("/help"),
		text("/cancel"), text(tr.T(i18n.RU, "menu.cars")), text("hello"), text(""),
		press("order_42"), press("cat_1"), press("back_menu"), press("garbage"),
	}
	for _, u := range inputs {
		next, out, err := e.Handle(context.Background(), session.Session{}, u)
		if err != nil {
			t.Fatalf("Handle(%s): %v", u.Kind(), err)
		}
		if next.LocaleResolved() || next.Active() {
			t.Fatalf("session changed before locale: %+v", next)
		}
		msgs := out.Messages(testChat)
		if len(msgs) != 1 || !isChooser(tr, msgs[0]) {
			t.Fatalf("input %+v: expected only the chooser, got %+v", u, msgs)
		}
	}
}

func TestLocaleSelection(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{})
	s, out := run(t, e, session.Session{}, text(tr.T(i18n.KY, "lang.name")))
	if s.Locale != i18n.KY {
		t.Fatalf("locale = %q, want ky", s.Locale)
	}
	msgs := out.Messages(testChat)
	if len(msgs) != 1 || msgs[0].Text != tr.T(i18n.KY, "welcome") {
		t.Fatalf("unexpected welcome: %+v", msgs)
	}
	if got := msgs[0].Keyboard.Reply[0][0]; got != tr.T(i18n.KY, "menu.cars") {
		t.Fatalf("main menu not localized: %q", got)
	}
}

func TestCancelWithoutFlowIsIdempotent(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{})
	for _, in := range []string{"/cancel", tr.T(i18n.RU, "menu.cancel")} {
		s, out := run(t, e, ru(), text(in))
		if s != ru() {
			t.Fatalf("%q changed session: %+v", in, s)
		}
		msgs := out.Messages(testChat)
		if len(msgs) != 1 || msgs[0].Text != tr.T(i18n.RU, "menu.title") || msgs[0].Keyboard == nil {
			t.Fatalf("%q: expected main menu, got %+v", in, msgs)
		}
	}
}

func TestCancelClearsFlow(t *testing.T) {
	e := newTestEngine(&fakeCatalog{})
	s, out := run(t, e, ru(), text("/sell"), text("Toyota"), text("/cancel"))
	if s.Active() || s.Flow != nil || s.Locale != i18n.RU {
		t.Fatalf("flow survived cancel: %+v", s)
	}
	if msgs := out.Messages(testChat); len(msgs) != 1 || msgs[0].Text != i18n.MustDefault().T(i18n.RU, "cancelled") {
		t.Fatalf("unexpected cancel reply: %+v", msgs)
	}
}

func TestStartMidFlowResetsEverything(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{})
	s, _ := run(t, e, ru(), text("/sell"), text("Toyota"), text("Camry"))
	if !s.Active() {
		t.Fatalf("expected active flow before /start")
	}
	s, out := run(t, e, s, text("/start"))
	if s != (session.Session{}) || !s.IsZero() {
		t.Fatalf("/start left state behind: %+v", s)
	}
	if msgs := out.Messages(testChat); len(msgs) != 1 || !isChooser(tr, msgs[0]) {
		t.Fatalf("expected chooser, got %+v", msgs)
	}
	// The next menu label is treated as a language choice attempt.
	s, out = run(t, e, s, text(tr.T(i18n.RU, "menu.cars")))
	if s.LocaleResolved() || !isChooser(tr, out.Messages(testChat)[0]) {
		t.Fatalf("language re-selection not forced: %+v", s)
	}
}

func TestLanguageCommandShowsChooser(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{})
	s, out := run(t, e, session.Session{Locale: i18n.KY}, text(tr.T(i18n.KY, "menu.language")))
	if s.LocaleResolved() {
		t.Fatalf("locale not reset: %+v", s)
	}
	if !isChooser(tr, out.Messages(testChat)[0]) {
		t.Fatalf("expected chooser")
	}
}

func TestUnmatchedTextShowsHelp(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{})
	s, out := run(t, e, ru(), text("what do you sell?"))
	if s != ru() {
		t.Fatalf("session changed: %+v", s)
	}
	msgs := out.Messages(testChat)
	if len(msgs) != 1 || msgs[0].Text != tr.T(i18n.RU, "help") || !msgs[0].Markdown || msgs[0].Keyboard == nil {
		t.Fatalf("expected help with main menu, got %+v", msgs)
	}
}

func TestCommandNormalization(t *testing.T) {
	cases := map[string]string{
		"/start":           "/start",
		"/start ref_1":     "/start",
		"/Cars@dealer_bot": "/cars",
		"cars":             "",
		"":                 "",
	}
	for in, want := range cases {
		if got := command(in); got != want {
			t.Fatalf("command(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEveryCallbackIsAnswered(t *testing.T) {
	c := &fakeCatalog{vehicles: []catalog.Vehicle{sampleVehicle(42, 14000)}}
	e := newTestEngine(c)
	for _, data := range []string{"order_42", "order_x", "cat_3", "cat_", "back_menu", "unknown"} {
		u := press(data)
		_, out, err := e.Handle(context.Background(), ru(), u)
		if err != nil {
			t.Fatalf("%s: %v", data, err)
		}
		if len(out) == 0 || out[0] != (AnswerCallback{CallbackID: u.Callback.ID}) {
			t.Fatalf("%s: callback not answered first: %+v", data, out)
		}
	}
}

func TestUnknownCallbackIgnored(t *testing.T) {
	e := newTestEngine(&fakeCatalog{})
	s, out := run(t, e, ru(), press("order_abc"))
	if s != ru() || len(out) != 1 {
		t.Fatalf("unknown callback had effects: %+v %+v", s, out)
	}
}

func TestBackMenuKeepsFlow(t *testing.T) {
	e := newTestEngine(&fakeCatalog{})
	s, _ := run(t, e, ru(), text("/sell"))
	s, out := run(t, e, s, press("back_menu"))
	if !s.Active() {
		t.Fatalf("back_menu dropped the flow")
	}
	if msgs := out.Messages(testChat); len(msgs) != 1 || !strings.Contains(msgs[0].Text, "меню") {
		t.Fatalf("expected main menu, got %+v", msgs)
	}
}

func TestFailureOutbox(t *testing.T) {
	tr := i18n.MustDefault()
	e := newTestEngine(&fakeCatalog{})

	out := e.Failure(ru(), press("cat_1"))
	if !out.Answered("cb-cat_1") {
		t.Fatalf("failure outbox must answer the callback")
	}
	msgs := out.Messages(testChat)
	if len(msgs) != 1 || msgs[0].Text != tr.T(i18n.RU, "error.generic") || msgs[0].Keyboard == nil {
		t.Fatalf("expected generic error with main menu, got %+v", msgs)
	}

	out = e.Failure(session.Session{}, text("x"))
	if msgs := out.Messages(testChat); len(msgs) != 1 || !isChooser(tr, msgs[0]) {
		t.Fatalf("expected chooser when locale unknown, got %+v", msgs)
	}

	out = e.Failure(ru(), Update{Callback: &Callback{ID: "orphan"}})
	if len(out) != 1 || !out.Answered("orphan") {
		t.Fatalf("chatless failure should only answer, got %+v", out)
	}
}

func TestRouteNamesTheBranch(t *testing.T) {
	sale := session.Session{Locale: i18n.RU, Flow: session.SaleListing{Step: session.StepYear}}
	order := session.Session{Locale: i18n.RU, Flow: session.OrderContact{VehicleID: 1}}
	cases := []struct {
		s    session.Session
		u    Update
		want string
	}{
		{session.Session{}, text("hi"), "locale"},
		{ru(), text("hi"), "menu"},
		{sale, text("2019"), "sale"},
		{order, text("+996"), "order"},
		{sale, press("back_menu"), "callback"},
		{ru(), Update{ChatID: testChat}, "ignored"},
	}
	for _, tc := range cases {
		if got := route(tc.s, tc.u); got != tc.want {
			t.Fatalf("route(%+v) = %q, want %q", tc.u, got, tc.want)
		}
	}
}
