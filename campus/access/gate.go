// Package access resolves the sender's campus role and gates routers by it.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/core/logger"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

const component = "campus.access"

var (
	// ErrDenied marks a resolved user whose role does not fit the router.
	ErrDenied = errors.New("access: role mismatch")
	// ErrUnresolved marks a sender the Users service could not resolve.
	ErrUnresolved = errors.New("access: user not resolved")
)

// Policy decides what happens to senders that could not be resolved.
type Policy int

const (
	// Cancel skips the router silently; later routers still see the event.
	Cancel Policy = iota
	// Deny halts dispatching and runs the router's Denied handler.
	Deny
)

func (p Policy) String() string {
	if p == Deny {
		return "deny"
	}
	return "cancel"
}

// UserLookup is the part of the Users client the gate needs.
type UserLookup interface {
	User(ctx context.Context, tgID string) (backend.User, error)
}

// Gate admits senders whose role equals Role.
type Gate struct {
	Role       backend.Role
	Users      UserLookup
	Unresolved Policy
}

var _ router.Gate = (*Gate)(nil)

// Resolve looks the sender up and checks the role. Lookup failures of any
// kind are wrapped in ErrUnresolved; a role mismatch returns the user and
// ErrDenied.
func (g *Gate) Resolve(ctx context.Context, senderID int64) (backend.User, error) {
	if senderID == 0 {
		return backend.User{}, fmt.Errorf("%w: no sender", ErrUnresolved)
	}
	user, err := g.Users.User(ctx, strconv.FormatInt(senderID, 10))
	if err != nil {
		return backend.User{}, fmt.Errorf("%w: %w", ErrUnresolved, err)
	}
	if user.Role != g.Role {
		return user, fmt.Errorf("%w: have %s, want %s", ErrDenied, user.Role, g.Role)
	}
	return user, nil
}

// Check implements router.Gate.
func (g *Gate) Check(ctx context.Context, c tele.Context, ev *router.Event) router.Decision {
	user, err := g.Resolve(ctx, ev.SenderID)
	switch {
	case err == nil:
		ev.User = user
		tghelpers.StoreUser(c, user)
		return router.Allow
	case errors.Is(err, ErrDenied):
		logger.Debug(ctx, component, "access.denied",
			slog.String("role", string(user.Role)),
			slog.String("cause", err.Error()),
		)
		return router.Skip
	}

	logger.Debug(ctx, component, "access.unresolved",
		slog.String("policy", g.Unresolved.String()),
		slog.String("cause", err.Error()),
	)
	if g.Unresolved == Deny {
		return router.Halt
	}
	return router.Skip
}

// UserFrom returns the user attached to ev by a gate.
func UserFrom(ev *router.Event) (backend.User, bool) {
	if ev == nil {
		return backend.User{}, false
	}
	u, ok := ev.User.(backend.User)
	return u, ok
}
