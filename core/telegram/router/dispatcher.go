package router

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/m3rciful/campusbot/core/logger"
	tghelpers "github.com/m3rciful/campusbot/core/telegram/helpers"
	"github.com/m3rciful/campusbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// HandlerFunc handles a routed event.
type HandlerFunc func(c tele.Context, ev *Event) error

// Route pairs a predicate with its handler.
type Route struct {
	Name   string
	Match  Predicate
	Handle HandlerFunc
}

// Decision is the outcome of a router gate.
type Decision int

const (
	// Allow lets the router match its routes.
	Allow Decision = iota
	// Skip passes the event on to the next router.
	Skip
	// Halt stops dispatching; the router's Denied handler runs if set.
	Halt
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Skip:
		return "skip"
	case Halt:
		return "halt"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Gate guards a router. It runs once per event per gated router before any of
// the router's routes are matched and may attach data to ev.
type Gate interface {
	Check(ctx context.Context, c tele.Context, ev *Event) Decision
}

// Router is an ordered group of routes behind an optional gate.
type Router struct {
	Name   string
	Gate   Gate
	Denied HandlerFunc
	Routes []Route
}

// Observer receives one call per dispatched event.
type Observer interface {
	ObserveEvent(router, route, outcome string, took time.Duration)
}

// Options configures a Dispatcher.
type Options struct {
	Store   state.Store
	Routers []Router
	// Unmatched runs when no route of any router matched.
	Unmatched HandlerFunc
	Observer  Observer
}

// Dispatcher evaluates routers in order and runs exactly one handler per event.
type Dispatcher struct {
	store     state.Store
	routers   []Router
	unmatched HandlerFunc
	observer  Observer
}

// New builds a dispatcher; the routers slice is copied.
func New(opts Options) *Dispatcher {
	return &Dispatcher{
		store:     opts.Store,
		routers:   append([]Router(nil), opts.Routers...),
		unmatched: opts.Unmatched,
		observer:  opts.Observer,
	}
}

// Endpoints lists the telebot endpoints Handle must be bound to.
func (d *Dispatcher) Endpoints() []string {
	return []string{tele.OnText, tele.OnPhoto, tele.OnMedia, tele.OnCallback}
}

// Handle routes one update. Handler failures and panics are logged and
// swallowed: the update is consumed either way.
func (d *Dispatcher) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ev := NewEvent(c)
	d.loadConversation(ctx, ev)

	for _, r := range d.routers {
		if r.Gate != nil {
			switch decision := r.Gate.Check(ctx, c, ev); decision {
			case Allow:
			case Halt:
				if c.Callback() != nil {
					_ = c.Respond()
				}
				d.run(c, ev, r.Name, "denied", logger.OutcomeDenied, r.Denied)
				return nil
			default:
				logger.Debug(ctx, logger.CompTG, "router.skip",
					slog.String("router", r.Name),
					slog.String("kind", string(ev.Kind)),
				)
				continue
			}
		}
		for _, route := range r.Routes {
			if route.Match == nil || route.Handle == nil || !route.Match(ev) {
				continue
			}
			if ev.Kind == KindCallback {
				_ = c.Respond()
			}
			d.run(c, ev, r.Name, route.Name, "", route.Handle)
			return nil
		}
	}

	d.run(c, ev, "", "unmatched", logger.OutcomeSkip, d.unmatched)
	return nil
}

func (d *Dispatcher) loadConversation(ctx context.Context, ev *Event) {
	if d.store == nil || ev.SenderID == 0 {
		return
	}
	conv, _, err := d.store.Get(ctx, ev.SenderID)
	if err != nil {
		logger.Warn(ctx, logger.CompState, "state.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	ev.Conversation = conv
}

// run invokes h with panic isolation and writes the handler summary.
func (d *Dispatcher) run(c tele.Context, ev *Event, routerName, routeName, outcome string, h HandlerFunc) {
	start := time.Now()
	name := handlerName(routerName, routeName)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				outcome = logger.OutcomePanic
				err = fmt.Errorf("panic: %v", r)
				logger.Error(tghelpers.BuildContext(c), logger.CompTG, "handler.panic",
					slog.String("handler", name),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		if h == nil {
			return nil
		}
		return h(c, ev)
	}()

	logHandlerSummary(c, name, start, outcome, err,
		slog.String("router", routerName),
		slog.String("route", routeName),
		slog.String("kind", string(ev.Kind)),
	)
	if d.observer != nil {
		if outcome == "" {
			outcome = logger.Status(err)
		}
		d.observer.ObserveEvent(routerName, routeName, outcome, time.Since(start))
	}
}
