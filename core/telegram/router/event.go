package router

import (
	"strings"

	"github.com/m3rciful/campusbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Kind classifies an inbound update.
type Kind string

const (
	KindCommand  Kind = "command"
	KindCallback Kind = "callback"
	KindText     Kind = "text"
	KindPhoto    Kind = "photo"
	KindMessage  Kind = "message"
	KindOther    Kind = "other"
)

// Event is the routing view of one update. It is built once per update and
// shared by every router the update visits.
type Event struct {
	Kind Kind
	// Command is the lowercased command name without slash or @bot suffix.
	Command string
	// Args is everything after the command, trimmed.
	Args string
	// Data is the raw callback data of a button press.
	Data string
	// Text is the message text or photo caption.
	Text string

	SenderID int64
	ChatID   int64
	Language string

	Conversation state.Conversation

	// User is attached by a gate that resolved the sender.
	User any
}

// NewEvent classifies c.
func NewEvent(c tele.Context) *Event {
	ev := &Event{Kind: KindOther}
	if u := c.Sender(); u != nil {
		ev.SenderID = u.ID
		ev.Language = u.LanguageCode
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}
	ev.Conversation = state.NewConversation(ev.SenderID)

	if cb := c.Callback(); cb != nil {
		ev.Kind = KindCallback
		ev.Data = strings.TrimSpace(cb.Data)
		return ev
	}

	msg := c.Message()
	if msg == nil {
		return ev
	}
	switch {
	case msg.Photo != nil:
		ev.Kind = KindPhoto
		ev.Text = msg.Caption
	case strings.HasPrefix(msg.Text, "/"):
		ev.Kind = KindCommand
		ev.Text = msg.Text
		ev.Command, ev.Args = ParseCommand(msg.Text)
	case msg.Text != "":
		ev.Kind = KindText
		ev.Text = msg.Text
	default:
		ev.Kind = KindMessage
		ev.Text = msg.Caption
	}
	return ev
}

// ParseCommand splits "/start@bot token" into ("start", "token").
func ParseCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	head, args, _ := strings.Cut(text[1:], " ")
	name, _, _ := strings.Cut(head, "@")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// IsMessage reports whether the event carries a chat message of any kind.
func (e *Event) IsMessage() bool {
	switch e.Kind {
	case KindCommand, KindText, KindPhoto, KindMessage:
		return true
	}
	return false
}
