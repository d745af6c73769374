package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
		Backends: BackendsConfig{
			UsersURL:  "http://users:8080/api/",
			SpacesURL: "http://spaces:8081/api",
			VerifyURL: "http://verify:8082/api",
		},
		Campus: CampusConfig{ModerationChatID: -100500},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "http://users:8080/api", cfg.Backends.UsersURL)
	assert.Equal(t, 10, cfg.Backends.TimeoutSeconds)
	assert.Equal(t, StateMemory, cfg.State.Driver)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
	assert.Equal(t, float64(25), cfg.Campus.MailingPerSecond)
	assert.Equal(t, "ru", cfg.Campus.DefaultLanguage)
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"bad run mode", func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" }},
		{"webhook without url", func(c *Config) { c.Telegram.RunMode = RunModeWebhook }},
		{"missing users url", func(c *Config) { c.Backends.UsersURL = "" }},
		{"relative spaces url", func(c *Config) { c.Backends.SpacesURL = "spaces/api" }},
		{"missing moderation chat", func(c *Config) { c.Campus.ModerationChatID = 0 }},
		{"unknown exclusion", func(c *Config) { c.RateLimit.ExcludeUpdates = []string{"inline_query"} }},
		{"unknown state driver", func(c *Config) { c.State.Driver = "etcd" }},
		{"redis without addr", func(c *Config) { c.State.Driver = StateRedis }},
		{"postgres without host", func(c *Config) { c.State.Driver = StatePostgres }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, Normalize(cfg))
		})
	}
}

func TestNormalizePostgresDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.State.Driver = " Postgres "
	cfg.State.Postgres = PostgresConfig{Host: "db", Name: "campus"}
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, StatePostgres, cfg.State.Driver)
	assert.Equal(t, "5432", cfg.State.Postgres.Port)
	assert.Equal(t, "disable", cfg.State.Postgres.SSLMode)
	assert.Equal(t, "migrations", cfg.State.Postgres.MigrationsDir)
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
telegram:
  token: "from-yaml"
backends:
  users_url: http://users/api
  spaces_url: http://spaces/api
  verify_url: http://verify/api
campus:
  moderation_chat_id: -42
rate_limit:
  interval_ms: 500
  exclude_updates: [Callback]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("STATE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(-42), cfg.Campus.ModerationChatID)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
	assert.Equal(t, StateRedis, cfg.State.Driver)
	assert.Equal(t, "localhost:6379", cfg.State.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestExampleConfigKeepsConversations(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StateMemory, cfg.State.Driver)
	assert.Zero(t, cfg.State.Redis.TTLSeconds)
}
