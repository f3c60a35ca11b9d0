package conversation

// Event is one inbound user action. The set of implementations is closed:
// Command, ButtonPress and TextMessage.
type Event interface {
	Sender() int64
	Kind() string
	isEvent()
}

// Command is a slash command without the leading slash, e.g. "start".
type Command struct {
	Name   string
	UserID int64
}

// ButtonPress carries the callback token of an inline button.
type ButtonPress struct {
	Token  string
	UserID int64
}

// TextMessage is free text typed by the user.
type TextMessage struct {
	Body   string
	UserID int64
}

func (e Command) Sender() int64     { return e.UserID }
func (e ButtonPress) Sender() int64 { return e.UserID }
func (e TextMessage) Sender() int64 { return e.UserID }

func (Command) Kind() string     { return "command" }
func (ButtonPress) Kind() string { return "button" }
func (TextMessage) Kind() string { return "text" }

func (Command) isEvent()     {}
func (ButtonPress) isEvent() {}
func (TextMessage) isEvent() {}

// Command names understood by the controller.
const (
	CmdStart  = "start"
	CmdCancel = "cancel"
	CmdAdmin  = "admin"
)
