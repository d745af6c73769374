// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Reply is one outgoing message recorded by Context.
type Reply struct {
	Method string
	What   any
	Opts   []any
}

// Text returns the reply body when it is a plain string.
func (r Reply) Text() string {
	s, _ := r.What.(string)
	return s
}

// Markup returns the first reply markup passed with the reply, if any.
func (r Reply) Markup() *tele.ReplyMarkup {
	for _, o := range r.Opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}

// Context implements the parts of tele.Context used by the bot. Calling any
// other method panics through the nil embedded interface.
type Context struct {
	tele.Context

	Upd       tele.Update
	Values    map[string]any
	Replies   []Reply
	Responses []*tele.CallbackResponse
	// ReplyErr is returned by every send/edit call when set.
	ReplyErr error
}

var updateSeq int

func next() int {
	updateSeq++
	return updateSeq
}

func newMessage(userID int64, text string) *tele.Message {
	return &tele.Message{
		ID:       next(),
		Sender:   &tele.User{ID: userID, LanguageCode: "ru", Username: "user"},
		Chat:     &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:     text,
		Unixtime: time.Now().Unix(),
	}
}

// NewText builds a context for an incoming text or command message.
func NewText(userID int64, text string) *Context {
	msg := newMessage(userID, text)
	if strings.HasPrefix(text, "/") {
		if _, payload, ok := strings.Cut(text, " "); ok {
			msg.Payload = strings.TrimSpace(payload)
		}
	}
	return &Context{Upd: tele.Update{ID: next(), Message: msg}}
}

// NewPhoto builds a context for an incoming photo message.
func NewPhoto(userID int64, caption string) *Context {
	msg := newMessage(userID, "")
	msg.Caption = caption
	msg.Photo = &tele.Photo{File: tele.File{FileID: "photo-file"}, Width: 640, Height: 480}
	return &Context{Upd: tele.Update{ID: next(), Message: msg}}
}

// NewCallback builds a context for an inline button press in chatID.
func NewCallback(userID, chatID int64, data string) *Context {
	msg := newMessage(chatID, "menu")
	msg.Sender = &tele.User{ID: chatID, IsBot: true}
	return &Context{Upd: tele.Update{ID: next(), Callback: &tele.Callback{
		ID:      "cb",
		Sender:  &tele.User{ID: userID, LanguageCode: "ru"},
		Message: msg,
		Data:    data,
	}}}
}

func (c *Context) record(method string, what any, opts []any) error {
	if c.ReplyErr != nil {
		return c.ReplyErr
	}
	c.Replies = append(c.Replies, Reply{Method: method, What: what, Opts: opts})
	return nil
}

// Last returns the latest recorded reply or a zero Reply.
func (c *Context) Last() Reply {
	if len(c.Replies) == 0 {
		return Reply{}
	}
	return c.Replies[len(c.Replies)-1]
}

func (c *Context) Update() tele.Update { return c.Upd }

func (c *Context) Message() *tele.Message {
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Message
	}
	return c.Upd.Message
}

func (c *Context) Callback() *tele.Callback { return c.Upd.Callback }

func (c *Context) Sender() *tele.User {
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Sender
	}
	if c.Upd.Message != nil {
		return c.Upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Recipient() tele.Recipient {
	if chat := c.Chat(); chat != nil {
		return chat
	}
	return c.Sender()
}

func (c *Context) Text() string {
	m := c.Message()
	if m == nil {
		return ""
	}
	if m.Caption != "" {
		return m.Caption
	}
	return m.Text
}

func (c *Context) Data() string {
	if c.Upd.Callback != nil {
		return c.Upd.Callback.Data
	}
	if c.Upd.Message != nil {
		return c.Upd.Message.Payload
	}
	return ""
}

func (c *Context) Args() []string { return strings.Fields(c.Data()) }

func (c *Context) Send(what any, opts ...any) error { return c.record("send", what, opts) }

func (c *Context) Reply(what any, opts ...any) error { return c.record("reply", what, opts) }

func (c *Context) Edit(what any, opts ...any) error { return c.record("edit", what, opts) }

func (c *Context) EditOrSend(what any, opts ...any) error {
	return c.record("edit_or_send", what, opts)
}

func (c *Context) EditOrReply(what any, opts ...any) error {
	return c.record("edit_or_reply", what, opts)
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		c.Responses = append(c.Responses, &tele.CallbackResponse{})
		return nil
	}
	c.Responses = append(c.Responses, resp...)
	return nil
}

func (c *Context) Get(key string) any {
	return c.Values[key]
}

func (c *Context) Set(key string, val any) {
	if c.Values == nil {
		c.Values = map[string]any{}
	}
	c.Values[key] = val
}
