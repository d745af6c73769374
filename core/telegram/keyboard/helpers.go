package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is an inline button carrying raw callback data.
type InlineBtn struct {
	Text string
	Data string
}

// Inline converts b to a telebot inline button.
func (b InlineBtn) Inline() tele.InlineButton {
	return tele.InlineButton{Text: b.Text, Data: b.Data}
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsNPerRow(buttons, 1)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn. Empty
// rows are dropped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = btn.Inline()
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// Chunk splits a flat list of buttons into rows with up to n buttons per row.
func Chunk(buttons []InlineBtn, n int) [][]InlineBtn {
	if n < 1 {
		n = 1
	}
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return rows
}

// InlineButtonsNPerRow splits a flat list of buttons into rows with up to n
// buttons per row; extra rows (e.g. a trailing menu button) are appended as is.
func InlineButtonsNPerRow(buttons []InlineBtn, n int, extra ...[]InlineBtn) *tele.ReplyMarkup {
	return InlineButtonsRows(append(Chunk(buttons, n), extra...)...)
}
