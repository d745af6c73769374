package handlers

import (
	"log/slog"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/campus/keyboards"
	"github.com/m3rciful/campusbot/campus/lexicon"
	"github.com/m3rciful/campusbot/core/logger"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) commonRouter() router.Router {
	return router.Router{
		Name: "common",
		Routes: []router.Route{
			{Name: "check_in_link", Match: router.DeepLink("start"), Handle: b.checkInLink},
			{Name: "start", Match: router.BareCommand("start"), Handle: b.start},
			{Name: "help", Match: router.Command("help"), Handle: b.static(lexicon.Help)},
			{Name: "ai_mode", Match: router.Command("ai_mode"), Handle: b.static(lexicon.AIMode)},
		},
	}
}

// checkInLink verifies the token of a /start deep link. The user record is
// not touched.
func (b *Bot) checkInLink(c tele.Context, ev *router.Event) error {
	ctx := tghelpers.BuildContext(c)
	v, err := b.d.Verify.Verify(ctx, ev.Args)
	if err != nil {
		if sendErr := tghelpers.SendText(c, lexicon.CheckInFailure, keyboards.MenuOnly()); sendErr != nil {
			logger.Warn(ctx, component, "check_in.reply", slog.String("err", sendErr.Error()))
		}
		return err
	}
	logger.Info(ctx, component, "check_in.verified", slog.Bool("valid", v.Valid))
	if !v.Valid {
		return tghelpers.SendText(c, lexicon.CheckInFailure, keyboards.MenuOnly())
	}
	return tghelpers.SendText(c, lexicon.CheckInSuccess, keyboards.MenuOnly())
}

// start registers unknown senders and shows the menu of their role.
func (b *Bot) start(c tele.Context, ev *router.Event) error {
	ctx := tghelpers.BuildContext(c)
	id := tgID(ev.SenderID)

	role := backend.RoleStudent
	user, err := b.d.Users.User(ctx, id)
	switch {
	case err == nil:
		role = user.Role
	case backend.IsNotFound(err):
		lang := ev.Language
		if lang == "" {
			lang = b.d.DefaultLanguage
		}
		if _, err := b.d.Users.CreateUser(ctx, id, lang); err != nil {
			if !backend.IsRejected(err) {
				return b.fail(c, err, "")
			}
			logger.Info(ctx, component, "user.create",
				slog.String("status", logger.OutcomeSkip),
				slog.String("err", err.Error()),
			)
		} else {
			logger.Info(ctx, component, "user.create",
				slog.String("status", logger.OutcomeOK),
				slog.String("language", lang),
			)
		}
	default:
		return b.fail(c, err, "")
	}
	return b.showMenu(c, ev, role)
}
