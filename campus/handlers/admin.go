package handlers

import (
	"context"
	"log/slog"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/campus/keyboards"
	"github.com/m3rciful/campusbot/campus/lexicon"
	"github.com/m3rciful/campusbot/campus/payload"
	"github.com/m3rciful/campusbot/core/logger"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) adminRouter() router.Router {
	return router.Router{
		Name: "admin",
		Gate: b.admin,
		Routes: []router.Route{
			{Name: "menu", Match: router.Callback(keyboards.DataMenu), Handle: b.adminMenu},
			{Name: "mailing", Match: router.Callback(keyboards.DataMailing), Handle: b.enter(AwaitingMailingBody, lexicon.Mailing)},
			{
				Name:   "mailing_body",
				Match:  router.All(router.InState(AwaitingMailingBody), router.Message(), router.Not(router.AnyCommand())),
				Handle: b.mailing,
			},
			{Name: "booking_room", Match: router.Callback(keyboards.DataBookingRoom), Handle: b.rooms},
			{Name: "room", Match: router.CallbackFunc(payload.Is(payload.KindRoom)), Handle: b.bookRoom},
			{Name: "end_room", Match: router.CallbackFunc(payload.Is(payload.KindEndRoom)), Handle: b.endRoom},
			{Name: "admin_check_in", Match: router.Callback(keyboards.DataAdminCheckIn), Handle: b.static(lexicon.AdminCheckIn)},
			{Name: "group_report", Match: router.CallbackFunc(payload.Is(payload.KindGroupReport)), Handle: b.reportProcessed},
		},
	}
}

func (b *Bot) adminMenu(c tele.Context, ev *router.Event) error {
	return b.showMenu(c, ev, backend.RoleAdmin)
}

// mailing copies the admin's message to every user. The conversation stays
// in AwaitingMailingBody when the recipient list cannot be fetched.
func (b *Bot) mailing(c tele.Context, ev *router.Event) error {
	ctx := tghelpers.BuildContext(c)
	users, err := b.d.Users.Users(ctx, "")
	if err != nil {
		return b.fail(c, err, "")
	}
	b.clear(ctx, ev.SenderID)

	recipients := make([]string, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, u.TgID)
	}
	msg := c.Message()
	rep, err := b.d.Broadcaster.Run(ctx, recipients, func(_ context.Context, chatID int64) error {
		_, err := b.d.Courier.Copy(tele.ChatID(chatID), msg)
		return err
	})
	if err != nil {
		logger.Warn(ctx, component, "mailing.interrupted", slog.String("err", err.Error()))
	}
	return tghelpers.SendText(c, lexicon.MailingDone(rep.Delivered, rep.Failed), keyboards.MenuOnly())
}

func (b *Bot) rooms(c tele.Context, _ *router.Event) error {
	rooms, err := b.d.Spaces.Rooms(tghelpers.BuildContext(c))
	if err != nil {
		return b.fail(c, err, "")
	}
	kb, n := keyboards.FreeRooms(rooms)
	if n == 0 {
		return tghelpers.EditOrSendText(c, lexicon.NoFreeRooms, keyboards.MenuOnly())
	}
	return tghelpers.EditOrSendText(c, lexicon.BookingRoom, kb)
}

// bookRoom re-reads the room before booking it; a room taken in the meantime
// or a rejected update both mean somebody else was first.
func (b *Bot) bookRoom(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindRoom)
	if err != nil {
		return b.fail(c, err, "")
	}
	ctx := tghelpers.BuildContext(c)
	room, err := b.d.Spaces.Room(ctx, p.ID())
	if err != nil {
		return b.fail(c, err, lexicon.RoomAlreadyBooked)
	}
	if room.IsBooked {
		return tghelpers.EditOrSendText(c, lexicon.RoomAlreadyBooked, keyboards.MenuOnly())
	}
	upd := backend.Room{ID: p.ID(), IsBooked: true, BookedBy: tgID(ev.SenderID)}
	if _, err := b.d.Spaces.UpdateRoom(ctx, upd); err != nil {
		return b.fail(c, err, lexicon.RoomAlreadyBooked)
	}
	logger.Info(ctx, component, "room.booked", slog.String("room_id", upd.ID))
	return tghelpers.EditOrSendText(c, lexicon.RoomBooked(upd.ID), keyboards.EndRoom(upd.ID))
}

func (b *Bot) endRoom(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindEndRoom)
	if err != nil {
		return b.fail(c, err, "")
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := b.d.Spaces.UpdateRoom(ctx, backend.Room{ID: p.ID()}); err != nil {
		return b.fail(c, err, "")
	}
	logger.Info(ctx, component, "room.released", slog.String("room_id", p.ID()))
	return tghelpers.EditOrSendText(c, lexicon.RoomReleased, keyboards.MenuOnly())
}

// reportProcessed notifies the reporting student and marks the moderation
// message. A failed notification is logged; the mark is applied regardless.
func (b *Bot) reportProcessed(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindGroupReport)
	if err != nil {
		return b.fail(c, err, "")
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := b.d.Courier.Send(tele.ChatID(p.UserID()), lexicon.ReportProcessed, keyboards.MenuOnly()); err != nil {
		logger.Warn(ctx, component, "report.notify",
			slog.String("status", logger.OutcomeFail),
			slog.Int64("student", p.UserID()),
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.EditOrSendText(c, lexicon.ReportProcessedMark(displayName(c, ev)))
}
