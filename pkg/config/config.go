package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the loader reads
const EnvPrefix = "WBVIDEO_"

// Config holds all configuration options for the video scraper
type Config struct {
	// Feed endpoint and browser identity
	Weibo WeiboConfig `yaml:"weibo" json:"weibo"`

	// Pagination pacing and retries
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Media download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WeiboConfig holds the feed endpoint and the headers sent with each page request
type WeiboConfig struct {
	BaseURL        string            `yaml:"base_url" json:"base_url"`
	Cookie         string            `yaml:"cookie" json:"cookie"`
	UserAgent      string            `yaml:"user_agent" json:"user_agent"`
	AcceptLanguage string            `yaml:"accept_language" json:"accept_language"`
	ExtraHeaders   map[string]string `yaml:"extra_headers" json:"extra_headers"`
}

// FetchConfig controls how the paginated feed is walked
type FetchConfig struct {
	// RequestInterval is the minimum spacing between two page requests
	RequestInterval time.Duration `yaml:"request_interval" json:"request_interval"`
	// MaxTransientRetries bounds retries of one cursor. 0 retries forever.
	MaxTransientRetries int           `yaml:"max_transient_retries" json:"max_transient_retries"`
	Backoff             BackoffConfig `yaml:"backoff" json:"backoff"`
	RequestTimeout      time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// BackoffConfig selects the delay between transient retries
type BackoffConfig struct {
	Type       string        `yaml:"type" json:"type"` // constant or exponential
	Delay      time.Duration `yaml:"delay" json:"delay"`
	MaxDelay   time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	HeaderTimeout     time.Duration `yaml:"header_timeout" json:"header_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output location configuration
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	CreateUserFolders bool   `yaml:"create_user_folders" json:"create_user_folders"`
	URLListFile       string `yaml:"url_list_file" json:"url_list_file"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled          bool   `yaml:"enabled" json:"enabled"`
	OnComplete       bool   `yaml:"on_complete" json:"on_complete"`
	OnError          bool   `yaml:"on_error" json:"on_error"`
	NotificationType string `yaml:"notification_type" json:"notification_type"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

const (
	DefaultBaseURL        = "https://weibo.com/ajax/profile/getWaterFallContent"
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "zh-CN,zh;q=0.9"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Weibo: WeiboConfig{
			BaseURL:        DefaultBaseURL,
			UserAgent:      DefaultUserAgent,
			AcceptLanguage: DefaultAcceptLanguage,
			ExtraHeaders:   map[string]string{},
		},
		Fetch: FetchConfig{
			RequestInterval:     2 * time.Second,
			MaxTransientRetries: 10,
			Backoff: BackoffConfig{
				Type:       "constant",
				Delay:      2 * time.Second,
				MaxDelay:   time.Minute,
				Multiplier: 2.0,
			},
			RequestTimeout: 30 * time.Second,
		},
		Download: DownloadConfig{
			HeaderTimeout:     30 * time.Second,
			RequestsPerMinute: 0,
		},
		Output: OutputConfig{
			BaseDirectory:     "downloads",
			CreateUserFolders: true,
			URLListFile:       "video_urls.txt",
		},
		Notifications: NotificationConfig{
			Enabled:          false,
			OnComplete:       true,
			OnError:          true,
			NotificationType: "terminal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv overrides fields from WBVIDEO_* environment variables.
// Malformed numeric or duration values are reported together.
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}
	setInt := func(name string, dst *int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}

	setString("BASE_URL", &c.Weibo.BaseURL)
	setString("COOKIE", &c.Weibo.Cookie)
	setString("USER_AGENT", &c.Weibo.UserAgent)
	setString("ACCEPT_LANGUAGE", &c.Weibo.AcceptLanguage)

	setDuration("REQUEST_INTERVAL", &c.Fetch.RequestInterval)
	setInt("MAX_RETRIES", &c.Fetch.MaxTransientRetries)
	setDuration("REQUEST_TIMEOUT", &c.Fetch.RequestTimeout)

	setDuration("HEADER_TIMEOUT", &c.Download.HeaderTimeout)
	setInt("DOWNLOADS_PER_MINUTE", &c.Download.RequestsPerMinute)

	setString("OUTPUT_DIR", &c.Output.BaseDirectory)
	setString("URL_LIST", &c.Output.URLListFile)

	if v := os.Getenv(EnvPrefix + "NOTIFICATIONS_ENABLED"); v != "" {
		c.Notifications.Enabled = strings.ToLower(v) == "true"
	}

	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches the standard locations, nearest first
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".wbvideo.yaml",
		".wbvideo.yml",
		filepath.Join(home, ".config", "wbvideo", "config.yaml"),
		filepath.Join(home, ".config", "wbvideo", "config.yml"),
		filepath.Join(home, ".wbvideo.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Weibo.BaseURL == "" {
		errs = append(errs, errors.New("feed base URL is required"))
	} else if u, err := url.Parse(c.Weibo.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("feed base URL %q is not an absolute URL", c.Weibo.BaseURL))
	}
	if c.Weibo.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}

	if c.Fetch.RequestInterval < 0 {
		errs = append(errs, errors.New("request interval cannot be negative"))
	}
	if c.Fetch.MaxTransientRetries < 0 {
		errs = append(errs, errors.New("max transient retries cannot be negative"))
	}
	if c.Fetch.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	switch strings.ToLower(c.Fetch.Backoff.Type) {
	case "constant":
	case "exponential":
		if c.Fetch.Backoff.Multiplier < 1 {
			errs = append(errs, errors.New("backoff multiplier must be at least 1"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid backoff type %q", c.Fetch.Backoff.Type))
	}
	if c.Fetch.Backoff.Delay < 0 {
		errs = append(errs, errors.New("backoff delay cannot be negative"))
	}

	if c.Download.HeaderTimeout <= 0 {
		errs = append(errs, errors.New("download header timeout must be positive"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("downloads per minute cannot be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.URLListFile == "" {
		errs = append(errs, errors.New("URL list file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	validNotifTypes := map[string]bool{
		"terminal": true, "desktop": true, "none": true,
	}
	if !validNotifTypes[strings.ToLower(c.Notifications.NotificationType)] {
		errs = append(errs, fmt.Errorf("invalid notification type %q", c.Notifications.NotificationType))
	}

	return errors.Join(errs...)
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// the file may carry a session cookie
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags applies flag values. Callers pass only the flags the
// user actually set, so zero values are honored.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["cookie"].(string); ok {
		c.Weibo.Cookie = v
	}
	if v, ok := flags["output_path"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["url-list"].(string); ok && v != "" {
		c.Output.URLListFile = v
	}
	if v, ok := flags["interval"].(time.Duration); ok {
		c.Fetch.RequestInterval = v
	}
	if v, ok := flags["max-retries"].(int); ok {
		c.Fetch.MaxTransientRetries = v
	}
	if v, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files never override variables already in the environment
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".wbvideo.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// UserOutputDir returns the directory videos for userID are written to
func (c *Config) UserOutputDir(userID string) string {
	if c.Output.CreateUserFolders && userID != "" {
		return filepath.Join(c.Output.BaseDirectory, userID)
	}
	return c.Output.BaseDirectory
}
