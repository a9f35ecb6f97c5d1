package keyboard

import "testing"

func TestInlineButtonsKeepRawData(t *testing.T) {
	m := InlineButtons(InlineBtn{Text: "🛒", Data: "order_42"}, InlineBtn{Text: "back", Data: "back_menu"})
	if len(m.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d", len(m.InlineKeyboard))
	}
	if got := m.InlineKeyboard[0][0]; got.Data != "order_42" || got.Unique != "" {
		t.Fatalf("button = %+v", got)
	}
}

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := []InlineBtn{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	m := InlineButtonsNPerRow(btns, 2)
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
}

func TestReplyButtonsSkipsEmptyRows(t *testing.T) {
	m := ReplyButtons([]string{"a", "b"}, nil, []string{"c"})
	if !m.ResizeKeyboard || len(m.ReplyKeyboard) != 2 {
		t.Fatalf("markup = %+v", m)
	}
	if m.ReplyKeyboard[0][1].Text != "b" {
		t.Fatalf("label = %q", m.ReplyKeyboard[0][1].Text)
	}
}
