package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// isolate points HOME and the working directory at an empty temp dir so
// that no real config or .env file leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, cfg.Weibo.BaseURL)
	assert.Contains(t, cfg.Weibo.UserAgent, "Chrome/129")
	assert.Equal(t, "zh-CN,zh;q=0.9", cfg.Weibo.AcceptLanguage)
	assert.Empty(t, cfg.Weibo.Cookie)

	assert.Equal(t, 2*time.Second, cfg.Fetch.RequestInterval)
	assert.Equal(t, 10, cfg.Fetch.MaxTransientRetries)
	assert.Equal(t, "constant", cfg.Fetch.Backoff.Type)
	assert.Equal(t, 2*time.Second, cfg.Fetch.Backoff.Delay)
	assert.Equal(t, 30*time.Second, cfg.Fetch.RequestTimeout)

	assert.Equal(t, 30*time.Second, cfg.Download.HeaderTimeout)
	assert.Zero(t, cfg.Download.RequestsPerMinute)

	assert.Equal(t, "downloads", cfg.Output.BaseDirectory)
	assert.True(t, cfg.Output.CreateUserFolders)
	assert.Equal(t, "video_urls.txt", cfg.Output.URLListFile)

	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv("WBVIDEO_COOKIE", "SUB=abc")
		t.Setenv("WBVIDEO_REQUEST_INTERVAL", "500ms")
		t.Setenv("WBVIDEO_MAX_RETRIES", "0")
		t.Setenv("WBVIDEO_OUTPUT_DIR", "/tmp/videos")
		t.Setenv("WBVIDEO_NOTIFICATIONS_ENABLED", "TRUE")
		t.Setenv("WBVIDEO_LOG_LEVEL", "debug")

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromEnv())

		assert.Equal(t, "SUB=abc", cfg.Weibo.Cookie)
		assert.Equal(t, 500*time.Millisecond, cfg.Fetch.RequestInterval)
		assert.Equal(t, 0, cfg.Fetch.MaxTransientRetries)
		assert.Equal(t, "/tmp/videos", cfg.Output.BaseDirectory)
		assert.True(t, cfg.Notifications.Enabled)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("malformed values are reported together", func(t *testing.T) {
		t.Setenv("WBVIDEO_REQUEST_INTERVAL", "soon")
		t.Setenv("WBVIDEO_MAX_RETRIES", "many")

		cfg := DefaultConfig()
		err := cfg.LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "WBVIDEO_REQUEST_INTERVAL")
		assert.Contains(t, err.Error(), "WBVIDEO_MAX_RETRIES")
		assert.Equal(t, 2*time.Second, cfg.Fetch.RequestInterval)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("yaml with durations", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
weibo:
  cookie: "SUB=file"
  extra_headers:
    X-Requested-With: XMLHttpRequest
fetch:
  request_interval: 3s
  max_transient_retries: 4
  backoff:
    type: exponential
    delay: 1s
output:
  base_directory: /data/weibo
  create_user_folders: false
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(path))

		assert.Equal(t, "SUB=file", cfg.Weibo.Cookie)
		assert.Equal(t, "XMLHttpRequest", cfg.Weibo.ExtraHeaders["X-Requested-With"])
		assert.Equal(t, 3*time.Second, cfg.Fetch.RequestInterval)
		assert.Equal(t, 4, cfg.Fetch.MaxTransientRetries)
		assert.Equal(t, "exponential", cfg.Fetch.Backoff.Type)
		assert.Equal(t, time.Second, cfg.Fetch.Backoff.Delay)
		assert.Equal(t, "/data/weibo", cfg.Output.BaseDirectory)
		assert.False(t, cfg.Output.CreateUserFolders)

		// untouched sections keep defaults
		assert.Equal(t, DefaultBaseURL, cfg.Weibo.BaseURL)
		assert.Equal(t, "video_urls.txt", cfg.Output.URLListFile)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("fetch: [unclosed"), 0644))
		assert.Error(t, DefaultConfig().LoadFromFile(path))
	})

	t.Run("default location", func(t *testing.T) {
		isolate(t)
		require.NoError(t, os.WriteFile(".wbvideo.yaml", []byte("logging:\n  level: warn\n"), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(""))
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("no file anywhere", func(t *testing.T) {
		isolate(t)
		cfg := DefaultConfig()
		assert.NoError(t, cfg.LoadFromFile(""))
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"relative base url", func(c *Config) { c.Weibo.BaseURL = "/ajax" }, "not an absolute URL"},
		{"empty base url", func(c *Config) { c.Weibo.BaseURL = "" }, "base URL is required"},
		{"empty user agent", func(c *Config) { c.Weibo.UserAgent = "" }, "user agent"},
		{"negative interval", func(c *Config) { c.Fetch.RequestInterval = -time.Second }, "interval"},
		{"negative retries", func(c *Config) { c.Fetch.MaxTransientRetries = -1 }, "retries"},
		{"zero timeout", func(c *Config) { c.Fetch.RequestTimeout = 0 }, "request timeout"},
		{"unknown backoff", func(c *Config) { c.Fetch.Backoff.Type = "fibonacci" }, "backoff type"},
		{"shrinking backoff", func(c *Config) {
			c.Fetch.Backoff.Type = "exponential"
			c.Fetch.Backoff.Multiplier = 0.5
		}, "multiplier"},
		{"zero header timeout", func(c *Config) { c.Download.HeaderTimeout = 0 }, "header timeout"},
		{"empty output", func(c *Config) { c.Output.BaseDirectory = "" }, "output directory"},
		{"empty url list", func(c *Config) { c.Output.URLListFile = "" }, "URL list"},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }, "log level"},
		{"bad notification type", func(c *Config) { c.Notifications.NotificationType = "pager" }, "notification type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("multiple errors joined", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output.BaseDirectory = ""
		cfg.Logging.Level = "loud"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output directory")
		assert.Contains(t, err.Error(), "log level")
	})
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"cookie":        "SUB=flag",
		"output_path":   "out",
		"url-list":      "urls.txt",
		"interval":      100 * time.Millisecond,
		"max-retries":   0,
		"notifications": true,
		"log-level":     "error",
	})

	assert.Equal(t, "SUB=flag", cfg.Weibo.Cookie)
	assert.Equal(t, "out", cfg.Output.BaseDirectory)
	assert.Equal(t, "urls.txt", cfg.Output.URLListFile)
	assert.Equal(t, 100*time.Millisecond, cfg.Fetch.RequestInterval)
	assert.Equal(t, 0, cfg.Fetch.MaxTransientRetries)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "error", cfg.Logging.Level)

	t.Run("absent flags leave values alone", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(nil)
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestLoad(t *testing.T) {
	t.Run("precedence order", func(t *testing.T) {
		dir := isolate(t)

		configPath := filepath.Join(dir, "config.yaml")
		content := `
weibo:
  cookie: file_cookie
  user_agent: file-agent
output:
  base_directory: /file/output
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		t.Setenv("WBVIDEO_COOKIE", "env_cookie")
		t.Setenv("WBVIDEO_OUTPUT_DIR", "/env/output")

		cfg, err := Load(configPath, map[string]interface{}{"cookie": "flag_cookie"})
		require.NoError(t, err)

		assert.Equal(t, "flag_cookie", cfg.Weibo.Cookie)
		assert.Equal(t, "file-agent", cfg.Weibo.UserAgent)
		assert.Equal(t, "/env/output", cfg.Output.BaseDirectory)
	})

	t.Run("validation failure", func(t *testing.T) {
		isolate(t)
		cfg, err := Load("", map[string]interface{}{"max-retries": -3})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
		assert.Nil(t, cfg)
	})

	t.Run("loads .env file", func(t *testing.T) {
		isolate(t)
		t.Setenv("WBVIDEO_COOKIE", "")
		require.NoError(t, os.Unsetenv("WBVIDEO_COOKIE"))

		require.NoError(t, os.WriteFile(".env", []byte("WBVIDEO_COOKIE=dotenv_cookie\n"), 0644))

		cfg, err := Load("", nil)
		require.NoError(t, err)
		assert.Equal(t, "dotenv_cookie", cfg.Weibo.Cookie)
	})
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Weibo.Cookie = "SUB=saved"
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var round Config
	require.NoError(t, yaml.Unmarshal(data, &round))
	assert.Equal(t, "SUB=saved", round.Weibo.Cookie)
	assert.Equal(t, cfg.Fetch.RequestInterval, round.Fetch.RequestInterval)
}

func TestUserOutputDir(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("downloads", "12345"), cfg.UserOutputDir("12345"))

	cfg.Output.CreateUserFolders = false
	assert.Equal(t, "downloads", cfg.UserOutputDir("12345"))
}
