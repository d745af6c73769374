package helpers

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/campusbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SendText sends plain text with optional markup to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, sendOptions(markup))
}

// EditOrSendText edits the message behind a button press, falling back to a
// new message when editing is impossible (plain message events, deleted or
// too old messages, photo captions).
func EditOrSendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := sendOptions(markup)
	if c.Callback() == nil {
		return c.Send(text, opts)
	}
	err := c.Edit(text, opts)
	if err == nil || errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	logger.Debug(BuildContext(c), logger.CompTG, "edit.fallback",
		slog.String("err", err.Error()),
	)
	return c.Send(text, opts)
}

// RespondAlert answers the pending callback query with a toast.
func RespondAlert(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

func sendOptions(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{DisableWebPagePreview: true}
	if len(markup) > 0 && markup[0] != nil {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}
