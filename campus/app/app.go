// Package app assembles the campus bot from configuration and bootstrapped
// infrastructure.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/campusbot/campus/backend"
	"github.com/m3rciful/campusbot/campus/broadcast"
	"github.com/m3rciful/campusbot/campus/handlers"
	"github.com/m3rciful/campusbot/core/bootstrap"
	coreconfig "github.com/m3rciful/campusbot/core/config"
	"github.com/m3rciful/campusbot/core/logger"
	"github.com/m3rciful/campusbot/core/metrics"
	coretelegram "github.com/m3rciful/campusbot/core/telegram"
	"github.com/m3rciful/campusbot/core/telegram/commands"
	"github.com/m3rciful/campusbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

const probeTimeout = 5 * time.Second

// App is a ready to run campus bot.
type App struct {
	cfg        *coreconfig.Config
	infra      *bootstrap.Result
	bot        *tele.Bot
	metrics    *metrics.Metrics
	handlers   *handlers.Bot
	dispatcher *router.Dispatcher
	menu       *commands.Menu
}

// Clients groups the backend clients of the bot.
type Clients struct {
	Users  *backend.UsersClient
	Spaces *backend.SpacesClient
	Verify *backend.VerifyClient
}

// NewClients builds the Users, Spaces and Verify clients reporting to obs.
func NewClients(cfg coreconfig.BackendsConfig, obs backend.Observer) (Clients, error) {
	conf := func(base string) backend.Config {
		return backend.Config{BaseURL: base, Timeout: cfg.Timeout(), Observer: obs}
	}
	users, err := backend.NewUsersClient(conf(cfg.UsersURL))
	if err != nil {
		return Clients{}, err
	}
	spaces, err := backend.NewSpacesClient(conf(cfg.SpacesURL))
	if err != nil {
		return Clients{}, err
	}
	verify, err := backend.NewVerifyClient(conf(cfg.VerifyURL))
	if err != nil {
		return Clients{}, err
	}
	return Clients{Users: users, Spaces: spaces, Verify: verify}, nil
}

// Probes reports the reachability checks run at startup. Verify has no
// status endpoint.
func (c Clients) Probes() []bootstrap.Probe {
	return []bootstrap.Probe{
		{Name: "backend.users", Ping: func(ctx context.Context) error { _, err := c.Users.Ping(ctx); return err }},
		{Name: "backend.spaces", Ping: func(ctx context.Context) error { _, err := c.Spaces.Ping(ctx); return err }},
	}
}

// New wires the bot. Unreachable backends are logged, not fatal.
func New(ctx context.Context, cfg *coreconfig.Config, infra *bootstrap.Result) (*App, error) {
	if cfg == nil || infra == nil || infra.Store == nil {
		return nil, fmt.Errorf("app: config and state store are required")
	}
	m := metrics.New()

	clients, err := NewClients(cfg.Backends, m)
	if err != nil {
		return nil, fmt.Errorf("app: backends: %w", err)
	}
	if failed := bootstrap.CheckHealth(ctx, probeTimeout, clients.Probes()...); failed > 0 {
		logger.Warn(ctx, logger.CompApp, "health.degraded", slog.Int("failed", failed))
	}

	bot, err := coretelegram.NewBot(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: telegram: %w", err)
	}

	h, err := handlers.New(handlers.Deps{
		Users:            clients.Users,
		Spaces:           clients.Spaces,
		Verify:           clients.Verify,
		Store:            infra.Store,
		Courier:          bot,
		Broadcaster:      broadcast.New(cfg.Campus.MailingPerSecond, m),
		ModerationChatID: cfg.Campus.ModerationChatID,
		DefaultLanguage:  cfg.Campus.DefaultLanguage,
	})
	if err != nil {
		return nil, err
	}
	menu, err := h.Menu()
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		infra:    infra,
		bot:      bot,
		metrics:  m,
		handlers: h,
		dispatcher: router.New(router.Options{
			Store:     infra.Store,
			Routers:   h.Routers(),
			Unmatched: h.Unmatched,
			Observer:  m,
		}),
		menu: menu,
	}, nil
}

// TelegramRunOptions binds the dispatcher to every endpoint it serves.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      a.cfg,
		Bot:         a.bot,
		Menu:        a.menu,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, a.handlers.OnLimited),
		Routes:      Routes(a.dispatcher),
		OnStart:     a.serveMetrics,
	}, nil
}

// Routes maps each dispatcher endpoint to its Handle method.
func Routes(d *router.Dispatcher) []coretelegram.Route {
	eps := d.Endpoints()
	routes := make([]coretelegram.Route, 0, len(eps))
	for _, ep := range eps {
		routes = append(routes, coretelegram.Route{Endpoint: ep, Handler: d.Handle})
	}
	return routes
}

func (a *App) serveMetrics(ctx context.Context, _ *tele.Bot) error {
	listen := a.cfg.Metrics.Listen
	if listen == "" {
		return nil
	}
	go func() {
		if err := metrics.Serve(ctx, listen, a.metrics); err != nil {
			logger.Error(ctx, logger.CompMetrics, "metrics.serve",
				slog.String("status", logger.OutcomeFail),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Close releases the state store connections.
func (a *App) Close() error {
	return a.infra.Close()
}
