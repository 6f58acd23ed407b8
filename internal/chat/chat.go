// Package chat abstracts the messaging platform behind a small
// interface so the session engine can be driven by tests without a
// network.
package chat

import "context"

// MessageRef identifies a sent message for later edits.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// Button is one inline keyboard button. Exactly one of Data or URL
// should be set.
type Button struct {
	Label string
	Data  string
	URL   string
}

// Keyboard is rows of buttons attached to a message.
type Keyboard [][]Button

// SendOptions adjust how a message is delivered.
type SendOptions struct {
	Keyboard           Keyboard
	Markdown           bool
	DisableLinkPreview bool
}

// Platform is the outbound messaging surface.
type Platform interface {
	// Send delivers a message and returns a reference usable with Edit.
	Send(ctx context.Context, chatID int64, text string, opts SendOptions) (MessageRef, error)
	// Edit replaces the text (and keyboard) of a previously sent message.
	Edit(ctx context.Context, ref MessageRef, text string, opts SendOptions) error
	// AnswerCallback acknowledges a button tap, optionally with a toast.
	AnswerCallback(ctx context.Context, callbackID, text string) error
	// SendTyping shows a typing indicator during slow operations.
	SendTyping(ctx context.Context, chatID int64)
}

// Event is one inbound interaction, either a message or a button tap.
type Event struct {
	UserID  int64
	ChatID  int64
	Private bool

	// Message fields. Command is set (without the slash) when the text
	// starts with a bot command; Args is the remainder.
	Text    string
	Command string
	Args    string

	// Callback fields, set for button taps.
	CallbackID   string
	CallbackData string
	// Ref points at the message carrying the tapped keyboard.
	Ref MessageRef
}

// IsCallback reports whether the event is a button tap.
func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}
