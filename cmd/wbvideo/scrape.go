package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"wbvideo/pkg/auth"
	"wbvideo/pkg/config"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/scraper"
	"wbvideo/pkg/ui"
	"wbvideo/pkg/weibo"
)

type scrapeOptions struct {
	userID     string
	outputPath string
	cookie     string
	account    string
	urlList    string
	interval   time.Duration
	maxRetries int
}

var (
	scrapeOpts scrapeOptions
	rootOpts   scrapeOptions
)

var errNoCookie = errors.New("no Weibo session cookie configured")

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [user_id]",
	Short: "Download all videos of a Weibo user",
	Long: `Walk the video feed of a Weibo user and download every video.

The run has two phases. First every page of the feed is requested, one page
at a time, and the video URLs are collected and written to video_urls.txt.
Then the videos are downloaded into <output_path>/<user_id>/. Files that
already exist are skipped, so an interrupted run can simply be repeated.

A session cookie is required. It is taken from, in order:
  - a stored account selected with --account
  - the --cookie flag
  - the WBVIDEO_COOKIE environment variable
  - weibo.cookie in the configuration file
  - the default stored account (see 'wbvideo auth login')`,
	Example: `  # Download into ./downloads/1234567890
  wbvideo scrape --user_id 1234567890

  # The scrape command is optional, and single-dash flags work too
  wbvideo -user_id 1234567890 -output_path ./videos

  # Paste a profile URL instead of the id
  wbvideo scrape https://weibo.com/u/1234567890

  # Slow down pagination and give up on a page after 3 retries
  wbvideo scrape 1234567890 --interval 5s --max-retries 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 && scrapeOpts.userID == "" {
			scrapeOpts.userID = args[0]
		}
		return runScrape(cmd, &scrapeOpts)
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	addScrapeFlags(scrapeCmd, &scrapeOpts)

	// The root command scrapes too, so `wbvideo -user_id 123` works
	addScrapeFlags(rootCmd, &rootOpts)
	rootCmd.Args = cobra.NoArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("user_id") {
			return cmd.Help()
		}
		return runScrape(cmd, &rootOpts)
	}
}

func addScrapeFlags(cmd *cobra.Command, o *scrapeOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.userID, "user_id", "u", "", "numeric Weibo user id, or a weibo.com/u/<id> profile URL")
	f.StringVarP(&o.outputPath, "output_path", "o", "downloads", "base directory for downloaded videos")
	f.StringVar(&o.cookie, "cookie", "", "Weibo session cookie (prefer 'wbvideo auth login')")
	f.StringVarP(&o.account, "account", "a", "", "use a specific stored account")
	f.StringVar(&o.urlList, "url-list", "video_urls.txt", "file the collected video URLs are written to")
	f.DurationVar(&o.interval, "interval", 2*time.Second, "minimum time between two feed requests")
	f.IntVar(&o.maxRetries, "max-retries", 10, "retries of one feed page after a transient failure (0 = unlimited)")
}

// scrapeFlagMap returns the flags the user set explicitly, keyed the way
// config.MergeCommandLineFlags expects
func scrapeFlagMap(cmd *cobra.Command) map[string]interface{} {
	f := cmd.Flags()
	flags := make(map[string]interface{})

	for _, name := range []string{"cookie", "output_path", "url-list", "log-level"} {
		if f.Changed(name) {
			v, _ := f.GetString(name)
			flags[name] = v
		}
	}
	if f.Changed("interval") {
		v, _ := f.GetDuration("interval")
		flags["interval"] = v
	}
	if f.Changed("max-retries") {
		v, _ := f.GetInt("max-retries")
		flags["max-retries"] = v
	}
	if f.Changed("notifications") {
		v, _ := f.GetBool("notifications")
		flags["notifications"] = v
	}

	// Quiet runs only log errors unless a level was asked for
	if q, _ := f.GetBool("quiet"); q && !f.Changed("log-level") {
		flags["log-level"] = "error"
	}
	return flags
}

func runScrape(cmd *cobra.Command, o *scrapeOptions) error {
	userID := weibo.SanitizeUserID(o.userID)
	if userID == "" {
		return errors.New("a user id is required: wbvideo --user_id <id>")
	}
	if !weibo.IsValidUserID(userID) {
		return fmt.Errorf("invalid user id %q: expected the numeric id from weibo.com/u/<id>", o.userID)
	}

	cfg, err := config.Load(configFile, scrapeFlagMap(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger().WithField("user_id", userID)
	log.WithField("version", version).Info("wbvideo starting")

	ui.PrintInfo("Target user", userID)

	cookie, source, err := resolveCookie(cfg, o.account, openCredentials)
	if err != nil {
		if errors.Is(err, errNoCookie) {
			printCookieHelp()
		}
		return err
	}
	if verr := auth.ValidateCookie(cookie); verr != nil {
		log.WithError(verr).Warn("session cookie looks malformed")
		ui.PrintWarning("Session cookie looks malformed", verr)
	}
	log.WithField("source", source).Debug("session cookie resolved")
	ui.PrintInfo("Session", source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg, cookie)
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	sum, err := s.Run(ctx, userID)
	if err != nil {
		log.WithError(err).Error("scrape failed")
		return fmt.Errorf("scrape failed: %w", err)
	}
	if sum.Cancelled {
		ui.PrintWarning("Interrupted; run the same command again to resume")
	}
	return nil
}

// accountSource is the part of auth.Manager the cookie lookup needs
type accountSource interface {
	Retrieve(name string) (*auth.Account, error)
	RetrieveDefault() (*auth.Account, error)
}

func openCredentials() (accountSource, error) {
	return auth.NewManager()
}

// resolveCookie picks the session cookie. An explicit --account wins, then a
// cookie from flags, environment or config file, then the default stored
// account. Credential stores are only opened when they are needed. A stored
// account's user agent replaces the configured one.
func resolveCookie(cfg *config.Config, account string, open func() (accountSource, error)) (string, string, error) {
	if account == "" && cfg.Weibo.Cookie != "" {
		return auth.NormalizeCookie(cfg.Weibo.Cookie), "configured cookie", nil
	}

	src, err := open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open credential store: %w", err)
	}

	var acc *auth.Account
	if account != "" {
		acc, err = src.Retrieve(account)
		if err != nil {
			return "", "", fmt.Errorf("account %q: %w (see 'wbvideo auth list')", account, err)
		}
	} else {
		acc, err = src.RetrieveDefault()
		if errors.Is(err, auth.ErrCredentialsNotFound) {
			return "", "", errNoCookie
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to read stored credentials: %w", err)
		}
	}

	if acc.UserAgent != "" {
		cfg.Weibo.UserAgent = acc.UserAgent
	}
	return acc.Cookie, "account " + acc.Name, nil
}

func printCookieHelp() {
	fmt.Fprintln(os.Stderr, "\nTo store a session cookie, run:")
	fmt.Fprintln(os.Stderr, "  wbvideo auth login")
	fmt.Fprintln(os.Stderr, "\nOr pass it for a single run:")
	fmt.Fprintf(os.Stderr, "  export %s='SUB=...; SUBP=...'\n", auth.CookieEnv)
}
