// Package handlers binds the campus flows to chat events: it owns the route
// table, the role gates and the mapping of backend failures to replies.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/campusbot/campus/access"
	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/campus/booking"
	"github.com/m3rciful/campusbot/campus/broadcast"
	"github.com/m3rciful/campusbot/campus/keyboards"
	"github.com/m3rciful/campusbot/campus/lexicon"
	"github.com/m3rciful/campusbot/core/logger"
	"github.com/m3rciful/campusbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/router"
	"github.com/m3rciful/campusbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const component = "campus"

// Conversation steps owned by this package; the booking steps live in scratch.
const (
	AwaitingReportPhoto state.Tag = "awaiting_report_photo"
	AwaitingMailingBody state.Tag = "awaiting_mailing_body"
)

// Users is the part of the Users client the handlers need.
type Users interface {
	access.UserLookup
	Users(ctx context.Context, role backend.Role) ([]backend.User, error)
	CreateUser(ctx context.Context, tgID, language string) (backend.Status, error)
}

// Spaces is the part of the Spaces client the handlers need.
type Spaces interface {
	booking.Spaces
	Rooms(ctx context.Context) ([]backend.Room, error)
	Room(ctx context.Context, id string) (backend.Room, error)
	UpdateRoom(ctx context.Context, room backend.Room) (backend.Room, error)
}

// Verifier checks check-in tokens.
type Verifier interface {
	Verify(ctx context.Context, token string) (backend.Verification, error)
}

// Courier sends to chats other than the current one. *tele.Bot satisfies it.
type Courier interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Copy(to tele.Recipient, msg tele.Editable, opts ...any) (*tele.Message, error)
}

// Broadcaster fans a mailing out.
type Broadcaster interface {
	Run(ctx context.Context, recipients []string, deliver broadcast.DeliverFunc) (broadcast.Report, error)
}

// Deps carries everything the handlers talk to.
type Deps struct {
	Users       Users
	Spaces      Spaces
	Verify      Verifier
	Store       state.Store
	Courier     Courier
	Broadcaster Broadcaster

	ModerationChatID int64
	DefaultLanguage  string
	Now              func() time.Time
}

// Bot holds the campus handlers.
type Bot struct {
	d       Deps
	booking *booking.Flow
	admin   *access.Gate
	student *access.Gate
}

// New validates d and builds the handlers.
func New(d Deps) (*Bot, error) {
	switch {
	case d.Users == nil:
		return nil, errors.New("handlers: users client is required")
	case d.Spaces == nil:
		return nil, errors.New("handlers: spaces client is required")
	case d.Verify == nil:
		return nil, errors.New("handlers: verify client is required")
	case d.Store == nil:
		return nil, errors.New("handlers: state store is required")
	case d.Courier == nil:
		return nil, errors.New("handlers: courier is required")
	case d.ModerationChatID == 0:
		return nil, errors.New("handlers: moderation chat id is required")
	}
	if d.Broadcaster == nil {
		d.Broadcaster = broadcast.New(0, nil)
	}
	if d.DefaultLanguage == "" {
		d.DefaultLanguage = "ru"
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Bot{
		d:       d,
		booking: &booking.Flow{Spaces: d.Spaces, Store: d.Store},
		admin:   &access.Gate{Role: backend.RoleAdmin, Users: d.Users, Unresolved: access.Cancel},
		student: &access.Gate{Role: backend.RoleStudent, Users: d.Users, Unresolved: access.Deny},
	}, nil
}

// Routers returns the route table in dispatch order.
func (b *Bot) Routers() []router.Router {
	return []router.Router{
		b.adminRouter(),
		b.commonRouter(),
		b.studentRouter(),
		{
			Name: "fallback",
			Routes: []router.Route{
				{Name: "unrecognized", Match: router.Message(), Handle: b.unrecognized},
			},
		},
	}
}

// Unmatched answers button presses nobody handles.
func (b *Bot) Unmatched(c tele.Context, ev *router.Event) error {
	if ev.Kind != router.KindCallback {
		return nil
	}
	return tghelpers.RespondAlert(c, lexicon.UnsupportedAction)
}

// OnLimited tells a throttled user to slow down; throttled messages are dropped quietly.
func (b *Bot) OnLimited(c tele.Context) error {
	return tghelpers.RespondAlert(c, lexicon.TooFast)
}

// Menu is the published command list.
func (b *Bot) Menu() (*commands.Menu, error) {
	return commands.NewMenu(
		commands.Command{Name: "start", Description: lexicon.CommandStart},
		commands.Command{Name: "help", Description: lexicon.CommandHelp},
		commands.Command{Name: "ai_mode", Description: lexicon.CommandAIMode},
	)
}

func (b *Bot) unrecognized(c tele.Context, _ *router.Event) error {
	return tghelpers.SendText(c, lexicon.Unrecognized)
}

func (b *Bot) showMenu(c tele.Context, ev *router.Event, role backend.Role) error {
	b.clear(tghelpers.BuildContext(c), ev.SenderID)
	if role == backend.RoleAdmin {
		return tghelpers.EditOrSendText(c, lexicon.StartAdmin, keyboards.AdminStart())
	}
	return tghelpers.EditOrSendText(c, lexicon.StartStudent, keyboards.StudentStart())
}

func (b *Bot) static(text string) router.HandlerFunc {
	return func(c tele.Context, _ *router.Event) error {
		return tghelpers.EditOrSendText(c, text, keyboards.MenuOnly())
	}
}

func (b *Bot) enter(tag state.Tag, text string) router.HandlerFunc {
	return func(c tele.Context, ev *router.Event) error {
		ctx := tghelpers.BuildContext(c)
		if err := b.d.Store.Clear(ctx, ev.SenderID); err != nil {
			return b.fail(c, err, "")
		}
		if err := b.d.Store.SetState(ctx, ev.SenderID, tag); err != nil {
			return b.fail(c, err, "")
		}
		return tghelpers.EditOrSendText(c, text, keyboards.MenuOnly())
	}
}

func (b *Bot) clear(ctx context.Context, userID int64) {
	if err := b.d.Store.Clear(ctx, userID); err != nil {
		logger.Warn(ctx, logger.CompState, "state.clear",
			slog.String("status", logger.OutcomeFail),
			slog.String("err", err.Error()),
		)
	}
}

// fail replies with the text matching err and returns err for the handler
// summary. rejected replaces the generic text for 4xx answers when set.
func (b *Bot) fail(c tele.Context, err error, rejected string) error {
	text := lexicon.GenericFailure
	switch {
	case backend.IsUnavailable(err):
		text = lexicon.TryLater
	case backend.IsRejected(err) && rejected != "":
		text = rejected
	}
	if sendErr := tghelpers.EditOrSendText(c, text, keyboards.MenuOnly()); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func tgID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func displayName(c tele.Context, ev *router.Event) string {
	if u, ok := access.UserFrom(ev); ok && u.Name != "" {
		return u.Name
	}
	if s := c.Sender(); s != nil {
		if s.Username != "" {
			return "@" + s.Username
		}
		if s.FirstName != "" {
			return s.FirstName
		}
	}
	return fmt.Sprintf("id%d", ev.SenderID)
}
