package conversation

import "github.com/m3rciful/shopbot/core/state"

// Mode tells the transport how to deliver a render.
type Mode int

const (
	// Send posts a new message.
	Send Mode = iota
	// Edit replaces the message that carried the pressed button.
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "send"
}

// Button is an inline button: a label and its callback token.
type Button struct {
	Text  string
	Token string
}

// Render is one message to show: text plus rows of buttons.
type Render struct {
	Text    string
	Buttons [][]Button
	Mode    Mode
}

// Reply is the controller's answer to an event.
type Reply struct {
	// State is the session state after the event. Empty when the session ended or never existed.
	State state.State
	// Renders are delivered in order.
	Renders []Render
	// Notice is a short acknowledgement: a callback toast for button presses,
	// a standalone message otherwise.
	Notice string
	// End is set when the conversation was terminated.
	End bool

	outcome string
}

func row(buttons ...Button) []Button {
	return buttons
}

func button(text string, tok Token) Button {
	return Button{Text: text, Token: tok.String()}
}

// finalize assigns delivery modes: a button press edits its own message with the
// first render, everything else is sent.
func finalize(ev Event, r Reply) Reply {
	_, pressed := ev.(ButtonPress)
	for i := range r.Renders {
		r.Renders[i].Mode = Send
		if pressed && i == 0 {
			r.Renders[i].Mode = Edit
		}
	}
	return r
}
