package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot transport settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format    string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder string `yaml:"keys_order"`
	Dir       string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile   string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds per-user throttling settings.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": text, photo and other messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	Burst          int      `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// BackendsConfig lists base URLs of the REST services the bot relays to.
type BackendsConfig struct {
	UsersURL       string `yaml:"users_url" envconfig:"USERS_API_URL"`
	SpacesURL      string `yaml:"spaces_url" envconfig:"SPACES_API_URL"`
	VerifyURL      string `yaml:"verify_url" envconfig:"VERIFY_API_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"BACKEND_TIMEOUT_SECONDS"`
}

// Timeout returns the per-request backend timeout.
func (b BackendsConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// CampusConfig carries settings of the booking bot itself.
type CampusConfig struct {
	// ModerationChatID is the group receiving student reports.
	ModerationChatID int64 `yaml:"moderation_chat_id" envconfig:"ADMIN_GROUP_ID"`
	// MailingPerSecond caps broadcast deliveries.
	MailingPerSecond float64 `yaml:"mailing_per_second" envconfig:"MAILING_PER_SECOND"`
	// DefaultLanguage is sent to the Users API when Telegram reports none.
	DefaultLanguage string `yaml:"default_language" envconfig:"DEFAULT_LANGUAGE"`
}

// RedisConfig describes the redis conversation store.
type RedisConfig struct {
	Addr       string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password   string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" envconfig:"REDIS_DB"`
	TTLSeconds int    `yaml:"ttl_seconds" envconfig:"REDIS_TTL_SECONDS"`
}

// PostgresConfig holds database connection settings.
type PostgresConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

const (
	// StateMemory keeps conversations in process memory.
	StateMemory = "memory"
	// StateRedis keeps conversations in redis.
	StateRedis = "redis"
	// StatePostgres keeps conversations in postgres.
	StatePostgres = "postgres"
)

// StateConfig selects the conversation store backend.
type StateConfig struct {
	Driver   string         `yaml:"driver" envconfig:"STATE_DRIVER"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MetricsConfig controls the prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Backends  BackendsConfig  `yaml:"backends"`
	Campus    CampusConfig    `yaml:"campus"`
	State     StateConfig     `yaml:"state"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads an optional .env file, the YAML file at path (skipped when path
// is empty) and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := normalizeRateLimit(&cfg.RateLimit); err != nil {
		return err
	}
	if err := normalizeBackends(&cfg.Backends); err != nil {
		return err
	}

	if cfg.Campus.ModerationChatID == 0 {
		return fmt.Errorf("campus.moderation_chat_id is required")
	}
	if cfg.Campus.MailingPerSecond <= 0 {
		cfg.Campus.MailingPerSecond = 25
	}
	if strings.TrimSpace(cfg.Campus.DefaultLanguage) == "" {
		cfg.Campus.DefaultLanguage = "ru"
	}

	return normalizeState(&cfg.State)
}

func normalizeRateLimit(rl *RateLimitConfig) error {
	if rl.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}
	if rl.Burst <= 0 {
		rl.Burst = 1
	}
	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range rl.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		rl.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizeBackends(b *BackendsConfig) error {
	urls := []struct {
		name string
		val  *string
	}{
		{"backends.users_url", &b.UsersURL},
		{"backends.spaces_url", &b.SpacesURL},
		{"backends.verify_url", &b.VerifyURL},
	}
	for _, u := range urls {
		raw := strings.TrimRight(strings.TrimSpace(*u.val), "/")
		if raw == "" {
			return fmt.Errorf("%s is required", u.name)
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", u.name, *u.val)
		}
		*u.val = raw
	}
	if b.TimeoutSeconds < 0 {
		return fmt.Errorf("backends.timeout_seconds must be >= 0")
	}
	if b.TimeoutSeconds == 0 {
		b.TimeoutSeconds = 10
	}
	return nil
}

func normalizeState(st *StateConfig) error {
	driver := strings.ToLower(strings.TrimSpace(st.Driver))
	if driver == "" {
		driver = StateMemory
	}
	switch driver {
	case StateMemory:
	case StateRedis:
		if strings.TrimSpace(st.Redis.Addr) == "" {
			return fmt.Errorf("state.redis.addr is required when state.driver is 'redis'")
		}
		if st.Redis.TTLSeconds < 0 {
			return fmt.Errorf("state.redis.ttl_seconds must be >= 0")
		}
	case StatePostgres:
		pg := &st.Postgres
		if strings.TrimSpace(pg.Host) == "" || strings.TrimSpace(pg.Name) == "" {
			return fmt.Errorf("state.postgres.host and state.postgres.name are required when state.driver is 'postgres'")
		}
		if pg.Port == "" {
			pg.Port = "5432"
		}
		if pg.SSLMode == "" {
			pg.SSLMode = "disable"
		}
		if pg.MaxConnections <= 0 {
			pg.MaxConnections = 5
		}
		if pg.MigrationsDir == "" {
			pg.MigrationsDir = "migrations"
		}
	default:
		return fmt.Errorf("invalid state.driver %q; allowed: memory, redis, postgres", st.Driver)
	}
	st.Driver = driver
	return nil
}
