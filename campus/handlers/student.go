package handlers

import (
	"log/slog"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/campus/booking"
	"github.com/m3rciful/campusbot/campus/keyboards"
	"github.com/m3rciful/campusbot/campus/lexicon"
	"github.com/m3rciful/campusbot/campus/payload"
	"github.com/m3rciful/campusbot/core/logger"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) studentRouter() router.Router {
	return router.Router{
		Name:   "student",
		Gate:   b.student,
		Denied: b.denied,
		Routes: []router.Route{
			{Name: "menu", Match: router.Callback(keyboards.DataMenu), Handle: b.studentMenu},
			{Name: "coworking", Match: router.Callback(keyboards.DataCoworking), Handle: b.coworkings},
			{Name: "cowo", Match: router.CallbackFunc(payload.Is(payload.KindCoworking)), Handle: b.chooseCoworking},
			{Name: "date", Match: router.CallbackFunc(payload.Is(payload.KindDate)), Handle: b.chooseDate},
			{Name: "time", Match: router.CallbackFunc(payload.Is(payload.KindTime)), Handle: b.chooseTime},
			{Name: "nvk_links", Match: router.Callback(keyboards.DataNvkLinks), Handle: b.static(lexicon.NvkLinks)},
			{Name: "check_in", Match: router.Callback(keyboards.DataCheckIn), Handle: b.static(lexicon.CheckIn)},
			{Name: "report", Match: router.Callback(keyboards.DataReport), Handle: b.enter(AwaitingReportPhoto, lexicon.Report)},
			{
				Name:   "report_photo",
				Match:  router.All(router.InState(AwaitingReportPhoto), router.Photo()),
				Handle: b.reportPhoto,
			},
			{
				Name:   "report_hint",
				Match:  router.All(router.InState(AwaitingReportPhoto), router.Message(), router.Not(router.AnyCommand())),
				Handle: b.reportHint,
			},
			{Name: "faq", Match: router.Callback(keyboards.DataFAQ), Handle: b.faq},
			{Name: "faq_item", Match: router.CallbackFunc(payload.Is(payload.KindFAQ)), Handle: b.faqItem},
		},
	}
}

func (b *Bot) denied(c tele.Context, _ *router.Event) error {
	return tghelpers.SendText(c, lexicon.AccessDenied)
}

func (b *Bot) studentMenu(c tele.Context, ev *router.Event) error {
	return b.showMenu(c, ev, backend.RoleStudent)
}

func (b *Bot) coworkings(c tele.Context, _ *router.Event) error {
	cws, err := b.booking.Coworkings(tghelpers.BuildContext(c))
	if err != nil {
		return b.fail(c, err, "")
	}
	if len(cws) == 0 {
		return tghelpers.EditOrSendText(c, lexicon.CoworkingEmpty, keyboards.MenuOnly())
	}
	return tghelpers.EditOrSendText(c, lexicon.CoworkingChoose, keyboards.Coworkings(cws))
}

func (b *Bot) chooseCoworking(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindCoworking)
	if err != nil {
		return b.fail(c, err, "")
	}
	if err := b.booking.ChooseCoworking(tghelpers.BuildContext(c), ev.SenderID, p.ID()); err != nil {
		return b.fail(c, err, "")
	}
	return tghelpers.EditOrSendText(c, lexicon.DateChoose, keyboards.Dates(booking.NextSevenDays(b.d.Now())))
}

func (b *Bot) chooseDate(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindDate)
	if err != nil {
		return b.fail(c, err, "")
	}
	times, err := b.booking.ChooseDate(tghelpers.BuildContext(c), ev.Conversation, p.Value)
	if err != nil {
		return b.fail(c, err, "")
	}
	kb, n := keyboards.Times(times)
	if n == 0 {
		return tghelpers.EditOrSendText(c, lexicon.NoFreeTimes, keyboards.Dates(booking.NextSevenDays(b.d.Now())))
	}
	return tghelpers.EditOrSendText(c, lexicon.TimeChoose, kb)
}

func (b *Bot) chooseTime(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindTime)
	if err != nil {
		return b.fail(c, err, "")
	}
	bk, err := b.booking.ChooseTime(tghelpers.BuildContext(c), ev.Conversation, p.Value)
	if err != nil {
		return b.fail(c, err, lexicon.SlotTaken)
	}
	return tghelpers.EditOrSendText(c, lexicon.BookingSuccess(bk.CoworkingID, bk.Slot), keyboards.MenuOnly())
}

// reportPhoto forwards the photo to moderation with a "processed" button.
func (b *Bot) reportPhoto(c tele.Context, ev *router.Event) error {
	ctx := tghelpers.BuildContext(c)
	group := tele.ChatID(b.d.ModerationChatID)
	if _, err := b.d.Courier.Copy(group, c.Message()); err != nil {
		return b.fail(c, err, "")
	}
	note := lexicon.ReportForModeration(displayName(c, ev), ev.SenderID)
	if _, err := b.d.Courier.Send(group, note, keyboards.GroupReport(ev.SenderID)); err != nil {
		logger.Warn(ctx, component, "report.note",
			slog.String("status", logger.OutcomeFail),
			slog.String("err", err.Error()),
		)
	}
	b.clear(ctx, ev.SenderID)
	logger.Info(ctx, component, "report.forwarded", slog.Int64("moderation_chat", b.d.ModerationChatID))
	return tghelpers.SendText(c, lexicon.ReportSent, keyboards.MenuOnly())
}

func (b *Bot) reportHint(c tele.Context, _ *router.Event) error {
	return tghelpers.SendText(c, lexicon.ReportPhotoHint, keyboards.MenuOnly())
}

func (b *Bot) faq(c tele.Context, _ *router.Event) error {
	return tghelpers.EditOrSendText(c, lexicon.FAQ, keyboards.FAQSections())
}

// faqItem opens a section or shows an answer, depending on the tag.
func (b *Bot) faqItem(c tele.Context, ev *router.Event) error {
	p, err := payload.DecodeAs(ev.Data, payload.KindFAQ)
	if err != nil {
		return b.fail(c, err, "")
	}
	if section, ok := lexicon.FAQSectionByTag(p.Value); ok {
		return tghelpers.EditOrSendText(c, section.Title, keyboards.FAQQuestions(section))
	}
	return tghelpers.EditOrSendText(c, lexicon.FAQAnswer(p.Value), keyboards.MenuOnly())
}
