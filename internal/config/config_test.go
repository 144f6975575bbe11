package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Recommend.MaxAttempts)
	assert.Equal(t, 1000, cfg.Recommend.PoolCapBroad)
	assert.Equal(t, 500, cfg.Recommend.PoolCapLabel)
	assert.Equal(t, 300, cfg.Recommend.PoolCapGenreArtists)
	assert.Equal(t, 20*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "last_shown", cfg.Token.CookieName)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
server:
  addr: ":9000"
database:
  driver: sqlite
  dsn: ":memory:"
recommend:
  max_attempts: 7
`), 0o644))

	t.Setenv(ConfigPathEnvVar, yamlPath)
	t.Setenv("APP_ADDR", ":9100")
	t.Setenv("RECOMMEND_LABEL_CAP", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Recommend.MaxAttempts)
	assert.Equal(t, 250, cfg.Recommend.PoolCapLabel)
}

func TestLoad_ListAndFeedEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("EDITORIAL_FEEDS", "Quietus=https://thequietus.com/feed,bandcamp=https://daily.bandcamp.com/feed")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CORSOrigins)
	assert.Equal(t, "https://thequietus.com/feed", cfg.Editorial.Feeds["quietus"])
	assert.Equal(t, "https://daily.bandcamp.com/feed", cfg.Editorial.Feeds["bandcamp"])
}

func TestLoad_InvalidDriver(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Driver")
}

func TestParseFeeds_RejectsMalformed(t *testing.T) {
	_, err := parseFeeds("nourl")
	assert.Error(t, err)
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_DSN=from_file\n"), 0o644))
	t.Setenv("DB_DSN", "from_env")

	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("DB_DSN"))
}

func TestValidate_BackoffOrdering(t *testing.T) {
	cfg := defaultConfig()
	cfg.Recommend.InitialBackoff = 10 * time.Second
	cfg.Recommend.MaxBackoff = time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial_backoff")
}

func TestValidate_QueryTimeoutMustBePositive(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.QueryTimeout = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueryTimeout")
}
