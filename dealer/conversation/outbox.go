package conversation

// Action is a side effect requested by a transition. Actions run after the
// session is committed, in outbox order.
type Action interface {
	isAction()
}

// Outbox is the ordered list of actions produced by one update.
type Outbox []Action

// Button is an inline button carrying raw callback data.
type Button struct {
	Text string
	Data string
}

// Keyboard is attached to a sent message. At most one of Reply and Inline
// is set.
type Keyboard struct {
	Reply  [][]string
	Inline [][]Button
}

// SendMessage sends text, or a photo with caption when PhotoURL is set.
type SendMessage struct {
	ChatID   int64
	Text     string
	PhotoURL string
	Markdown bool
	Keyboard *Keyboard
}

// AnswerCallback acknowledges a button press so the client stops its spinner.
type AnswerCallback struct {
	CallbackID string
}

func (SendMessage) isAction()    {}
func (AnswerCallback) isAction() {}
