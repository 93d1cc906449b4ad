package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"wbvideo/pkg/auth"
	"wbvideo/pkg/config"
	"wbvideo/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Create, inspect and validate the wbvideo configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Long: `Write a commented example configuration to .wbvideo.yaml, or to the
path given with --config. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after file, environment and defaults are merged.
The session cookie is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# wbvideo configuration
#
# Every value can also be set with an environment variable prefixed with
# WBVIDEO_, for example WBVIDEO_COOKIE or WBVIDEO_REQUEST_INTERVAL.
# Command line flags override both.

weibo:
  # Feed endpoint. Page requests add ?uid=<id>&cursor=<n>.
  base_url: "https://weibo.com/ajax/profile/getWaterFallContent"

  # Cookie header of a logged-in browser session. Prefer 'wbvideo auth login',
  # which keeps it out of plain text files.
  cookie: ""

  user_agent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"
  accept_language: "zh-CN,zh;q=0.9"

  # Additional request headers sent with every feed request
  extra_headers: {}

fetch:
  # Minimum time between two feed requests
  request_interval: 2s

  # Retries of one page after a transient failure. 0 retries forever.
  max_transient_retries: 10

  backoff:
    # constant or exponential
    type: constant
    delay: 2s
    max_delay: 1m
    multiplier: 2.0

  request_timeout: 30s

download:
  # Time to wait for the response headers of a video. The body has no limit.
  header_timeout: 30s

  # Cap on video downloads started per minute. 0 means no cap.
  requests_per_minute: 0

output:
  base_directory: "downloads"

  # Store videos in <base_directory>/<user_id>/
  create_user_folders: true

  # Collected video URLs, one per line, overwritten on each run
  url_list_file: "video_urls.txt"

notifications:
  enabled: false
  on_complete: true
  on_error: true

  # terminal, desktop or none
  notification_type: terminal

logging:
  # debug, info, warn or error
  level: info

  # Log to a file in addition to stderr
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".wbvideo.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.PrintSuccess("Configuration written to " + path)
	fmt.Fprintln(cmd.OutOrStdout(), "\nStore your session cookie with:")
	fmt.Fprintln(cmd.OutOrStdout(), "  wbvideo auth login")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	if err := writeMaskedConfig(cmd.OutOrStdout(), cfg); err != nil {
		return err
	}

	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		path = "(none found)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintf(out, "2. Environment variables (%s*)\n", config.EnvPrefix)
	fmt.Fprintln(out, "3. .env files")
	fmt.Fprintf(out, "4. Configuration file: %s\n", path)
	fmt.Fprintln(out, "5. Default values")
	return nil
}

// writeMaskedConfig prints cfg as YAML with the cookie masked
func writeMaskedConfig(w io.Writer, cfg *config.Config) error {
	display := *cfg
	if display.Weibo.Cookie != "" {
		display.Weibo.Cookie = auth.SanitizeAccount(&auth.Account{Cookie: display.Weibo.Cookie}).Cookie
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		return fmt.Errorf("no configuration file found; specify one with --config")
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	if cfg.Weibo.Cookie == "" {
		warnings = append(warnings, "no cookie configured; a stored account will be used")
	} else if err := auth.ValidateCookie(auth.NormalizeCookie(cfg.Weibo.Cookie)); err != nil {
		warnings = append(warnings, fmt.Sprintf("cookie: %v", err))
	}
	if cfg.Fetch.MaxTransientRetries == 0 {
		warnings = append(warnings, "max_transient_retries is 0; a failing page is retried forever")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	for _, w := range warnings {
		ui.PrintWarning("Warning", w)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Feed endpoint: %s\n", cfg.Weibo.BaseURL)
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(out, "  URL list: %s\n", cfg.Output.URLListFile)
	fmt.Fprintf(out, "  Request interval: %s\n", cfg.Fetch.RequestInterval)
	fmt.Fprintf(out, "  Max retries: %d\n", cfg.Fetch.MaxTransientRetries)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
