// Package keyboards turns domain lists into inline keyboards with encoded
// callback payloads.
package keyboards

import (
	"log/slog"
	"time"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/campus/lexicon"
	"github.com/m3rciful/campusbot/campus/payload"
	"github.com/m3rciful/campusbot/core/logger"
	"github.com/m3rciful/campusbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Callback data of static buttons.
const (
	DataMenu         = "menu"
	DataCoworking    = "coworking"
	DataNvkLinks     = "nvk_links"
	DataCheckIn      = "check_in"
	DataReport       = "report"
	DataFAQ          = "FAQ"
	DataMailing      = "mailing"
	DataBookingRoom  = "booking_room"
	DataAdminCheckIn = "admin_check_in"
)

// TimesPerRow is the width of the time slot grid.
const TimesPerRow = 3

const component = "campus.keyboards"

const clockLayout = "15:04"

// slotLayouts are the slot shapes Spaces may answer with; only the clock
// part is kept.
var slotLayouts = []string{
	clockLayout,
	"15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func menuRow() []keyboard.InlineBtn {
	return []keyboard.InlineBtn{{Text: lexicon.BtnMenu, Data: DataMenu}}
}

// btn encodes p; ok is false when the value cannot be carried in a button.
func btn(text string, p payload.Payload) (keyboard.InlineBtn, bool) {
	data, err := p.Encode()
	if err != nil {
		logger.Warn(logger.Background(), component, "keyboard.item_dropped",
			slog.String("kind", string(p.Kind)),
			slog.String("value", logger.SanitizeLimit(p.Value, 80)),
			slog.String("err", err.Error()),
		)
		return keyboard.InlineBtn{}, false
	}
	return keyboard.InlineBtn{Text: text, Data: data}, true
}

// MenuOnly is a keyboard with just the menu button.
func MenuOnly() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(menuRow())
}

// StudentStart is the student main menu.
func StudentStart() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: lexicon.BtnCoworking, Data: DataCoworking},
		{Text: lexicon.BtnNvkLinks, Data: DataNvkLinks},
		{Text: lexicon.BtnCheckIn, Data: DataCheckIn},
		{Text: lexicon.BtnReport, Data: DataReport},
		{Text: lexicon.BtnFAQ, Data: DataFAQ},
	})
}

// AdminStart is the admin main menu.
func AdminStart() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: lexicon.BtnMailing, Data: DataMailing},
		{Text: lexicon.BtnBookingRoom, Data: DataBookingRoom},
		{Text: lexicon.BtnAdminCheckIn, Data: DataAdminCheckIn},
	})
}

// Coworkings lists one button per coworking plus the menu button.
func Coworkings(cws []backend.Coworking) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(cws))
	for _, cw := range cws {
		if b, ok := btn(lexicon.CoworkingButton(cw.ID), payload.Coworking(cw.ID)); ok {
			buttons = append(buttons, b)
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 1, menuRow())
}

// Dates lists one date per row plus the menu button.
func Dates(dates []string) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(dates))
	for _, d := range dates {
		if b, ok := btn(d, payload.Date(d)); ok {
			buttons = append(buttons, b)
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 1, menuRow())
}

// Times lays slots out TimesPerRow per row; every slot is shown and encoded
// as HH:MM. It also returns how many slots made it in.
func Times(times []string) (*tele.ReplyMarkup, int) {
	buttons := make([]keyboard.InlineBtn, 0, len(times))
	for _, raw := range times {
		hhmm := NormalizeTime(raw)
		if b, ok := btn(hhmm, payload.Time(hhmm)); ok {
			buttons = append(buttons, b)
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, TimesPerRow, menuRow()), len(buttons)
}

// NormalizeTime reduces H:MM, HH:MM:SS and ISO datetimes to HH:MM in the
// clock they were written in. Unrecognised input is returned unchanged.
func NormalizeTime(raw string) string {
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(clockLayout)
		}
	}
	return raw
}

// FreeRooms lists unbooked rooms only and returns how many there are.
func FreeRooms(rooms []backend.Room) (*tele.ReplyMarkup, int) {
	buttons := make([]keyboard.InlineBtn, 0, len(rooms))
	for _, r := range rooms {
		if r.IsBooked {
			continue
		}
		if b, ok := btn(lexicon.RoomButton(r.ID), payload.Room(r.ID)); ok {
			buttons = append(buttons, b)
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 1, menuRow()), len(buttons)
}

// EndRoom offers to release room id.
func EndRoom(id string) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{menuRow()}
	if b, ok := btn(lexicon.BtnEndRoom, payload.EndRoom(id)); ok {
		rows = append([][]keyboard.InlineBtn{{b}}, rows...)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// GroupReport is attached to a report in the moderation chat.
func GroupReport(userID int64) *tele.ReplyMarkup {
	b, ok := btn(lexicon.BtnReportProcessed, payload.GroupReport(userID))
	if !ok {
		return nil
	}
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{b})
}

// FAQSections lists the first FAQ level.
func FAQSections() *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(lexicon.FAQSections))
	for _, s := range lexicon.FAQSections {
		if b, ok := btn(s.Title, payload.FAQ(s.Tag)); ok {
			buttons = append(buttons, b)
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 1, menuRow())
}

// FAQQuestions lists the questions of one section.
func FAQQuestions(section lexicon.FAQSection) *tele.ReplyMarkup {
	buttons := make([]keyboard.InlineBtn, 0, len(section.Questions))
	for _, q := range section.Questions {
		if b, ok := btn(q.Title, payload.FAQ(q.Tag)); ok {
			buttons = append(buttons, b)
		}
	}
	return keyboard.InlineButtonsNPerRow(buttons, 1, menuRow())
}
