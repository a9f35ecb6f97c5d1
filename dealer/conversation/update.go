package conversation

// Update is one inbound event. Exactly one of Message and Callback is set.
type Update struct {
	ID       int
	ChatID   int64
	From     User
	Message  *Message
	Callback *Callback
}

// User identifies the sender.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// Handle returns "@username" or the display name when there is no username.
func (u User) Handle() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if name := u.DisplayName(); name != "" {
		return name
	}
	return "—"
}

// Message is a text message. Text is empty for media without caption.
type Message struct {
	Text string
}

// Callback is an inline button press.
type Callback struct {
	ID   string
	Data string
}

// Kind names the update payload for logs.
func (u Update) Kind() string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Message != nil:
		return "message"
	default:
		return "other"
	}
}
