package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/campusbot/core/config"
	coredatabase "github.com/m3rciful/campusbot/core/database"
	"github.com/m3rciful/campusbot/core/logger"
	"github.com/m3rciful/campusbot/core/telegram/state"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coreconfig.PostgresConfig) (*sqlx.DB, error)
	Migrate    func(context.Context, coreconfig.PostgresConfig) error
	Redis      func(coreconfig.RedisConfig) *redis.Client
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store state.Store
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases the connections opened for the state store.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	return errors.Join(errs...)
}

// Run initializes the logger and the conversation store selected by
// state.driver; the postgres driver also applies migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	st := opts.Config.State
	var (
		res *Result
		err error
	)
	switch st.Driver {
	case coreconfig.StateMemory, "":
		res = &Result{Store: state.NewMemoryStore()}
	case coreconfig.StateRedis:
		res, err = openRedis(ctx, opts, st.Redis)
	case coreconfig.StatePostgres:
		res, err = openPostgres(ctx, opts, st.Postgres)
	default:
		err = fmt.Errorf("unknown state driver %q", st.Driver)
	}
	if err != nil {
		logger.Error(ctx, logger.CompState, "state.open",
			slog.String("driver", st.Driver),
			slog.String("status", logger.OutcomeFail),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("bootstrap: state store: %w", err)
	}

	logger.Info(ctx, logger.CompState, "state.open",
		slog.String("driver", st.Driver),
		slog.String("status", logger.OutcomeOK),
		slog.Duration("duration", logger.Took(start)),
	)
	return res, nil
}

func openRedis(ctx context.Context, opts Options, cfg coreconfig.RedisConfig) (*Result, error) {
	newClient := opts.Redis
	if newClient == nil {
		newClient = func(c coreconfig.RedisConfig) *redis.Client {
			return redis.NewClient(&redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
		}
	}
	client := newClient(cfg)
	store := state.NewRedisStore(client, time.Duration(cfg.TTLSeconds)*time.Second)
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Result{Store: store, Redis: client}, nil
}

func openPostgres(ctx context.Context, opts Options, cfg coreconfig.PostgresConfig) (*Result, error) {
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, cfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return &Result{Store: state.NewPostgresStore(db), DB: db}, nil
}
