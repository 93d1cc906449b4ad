package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wbvideo/internal/downloader"
	"wbvideo/pkg/config"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/ratelimit"
	"wbvideo/pkg/storage"
	"wbvideo/pkg/ui"
	"wbvideo/pkg/weibo"
)

// Summary describes one finished run
type Summary struct {
	UserID    string
	URLs      []string
	Stop      StopReason
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
	Elapsed   time.Duration
}

// Scraper collects a user's video URLs and downloads them one by one
type Scraper struct {
	client   Client
	fetcher  *Fetcher
	notifier *ui.Notifier
	config   *config.Config
	logger   logger.Logger
}

// New creates a Scraper talking to Weibo with cookie as the session
func New(cfg *config.Config, cookie string) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.GetLogger()
	return NewWithClient(cfg, weibo.NewClientFromConfig(cfg, cookie, log), log), nil
}

// NewWithClient creates a Scraper around an existing client
func NewWithClient(cfg *config.Config, client Client, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		client:   client,
		fetcher:  NewFetcher(client, cfg.Fetch, log),
		notifier: ui.NewNotifier(strings.EqualFold(cfg.Notifications.NotificationType, "desktop")),
		config:   cfg,
		logger:   log,
	}
}

// SetNotifier replaces the notifier used at the end of a run
func (s *Scraper) SetNotifier(n *ui.Notifier) {
	s.notifier = n
}

// Run collects every video URL of userID, writes the URL list, and
// downloads each file into the user's output directory. A cancelled ctx
// stops the run early; the summary then reports what was done and the
// error is nil.
func (s *Scraper) Run(ctx context.Context, userID string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{UserID: userID}
	log := s.logger.WithField("user_id", userID)

	log.Info("starting scrape")
	ui.PrintHighlight(fmt.Sprintf("\nCollecting video URLs for %s\n", weibo.GetProfileURL(userID)))

	urls, stop, err := s.fetcher.Collect(ctx, userID)
	sum.URLs = urls
	sum.Stop = stop
	sum.Total = len(urls)
	if err != nil {
		sum.Cancelled = true
		sum.Elapsed = time.Since(start)
		ui.PrintWarning("Interrupted while collecting URLs")
		log.WithError(err).Warn("scrape cancelled during pagination")
		return sum, nil
	}

	ui.Printf("Total URLs found: %d\n", len(urls))
	log.InfoWithFields("pagination finished", map[string]interface{}{
		"urls":        len(urls),
		"stop_reason": stop.String(),
	})

	if len(urls) == 0 {
		ui.PrintWarning("No video URLs found")
		sum.Elapsed = time.Since(start)
		return sum, nil
	}

	listFile := s.config.Output.URLListFile
	if err := storage.SaveURLList(listFile, urls); err != nil {
		s.notifyError(fmt.Sprintf("Could not write %s", listFile))
		return sum, fmt.Errorf("failed to save URL list: %w", err)
	}
	ui.PrintInfo("URL list saved", listFile)

	d := s.newDownloader(userID)
	s.downloadAll(ctx, d, sum)
	sum.Elapsed = time.Since(start)

	ui.PrintSummary(ui.RunSummary{
		UserID:    userID,
		Total:     sum.Total,
		Succeeded: sum.Succeeded,
		Failed:    sum.Failed,
		Skipped:   sum.Skipped,
		Cancelled: sum.Cancelled,
		Elapsed:   sum.Elapsed,
	})
	log.InfoWithFields("scrape finished", map[string]interface{}{
		"total":     sum.Total,
		"succeeded": sum.Succeeded,
		"failed":    sum.Failed,
		"skipped":   sum.Skipped,
		"cancelled": sum.Cancelled,
		"elapsed":   sum.Elapsed.String(),
	})

	s.notifyDone(sum)
	return sum, nil
}

func (s *Scraper) newDownloader(userID string) *downloader.Downloader {
	store := storage.NewManager(s.config.UserOutputDir(userID))
	d := downloader.New(s.client, store, s.logger)
	if l := ratelimit.NewPerMinute(s.config.Download.RequestsPerMinute); l != nil {
		d.SetRateLimiter(l)
	}
	return d
}

// downloadAll runs the download loop. The first cancelled download removes
// its own output and ends the loop; later URLs are never attempted.
func (s *Scraper) downloadAll(ctx context.Context, d *downloader.Downloader, sum *Summary) {
	for i, url := range sum.URLs {
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}

		ui.Printf("\nDownloading file %d/%d\n", i+1, len(sum.URLs))
		res := d.Download(ctx, url)

		if res.Cancelled() {
			sum.Cancelled = true
			if err := d.Discard(url); err != nil {
				s.logger.WithError(err).WithField("url", url).Warn("failed to remove partial download")
			}
			ui.PrintWarning("Download interrupted, removed " + res.FileName)
			break
		}

		switch {
		case res.Success:
			sum.Succeeded++
			if res.Skipped {
				sum.Skipped++
			}
		default:
			sum.Failed++
		}
	}
}

func (s *Scraper) notifyDone(sum *Summary) {
	n := s.config.Notifications
	if !n.Enabled || strings.EqualFold(n.NotificationType, "none") {
		return
	}
	switch {
	case sum.Cancelled || sum.Failed > 0:
		if n.OnError {
			s.notifier.SendError("wbvideo", fmt.Sprintf("%s: %d of %d videos downloaded, %d failed",
				sum.UserID, sum.Succeeded, sum.Total, sum.Failed))
		}
	case n.OnComplete:
		s.notifier.SendSuccess("wbvideo", fmt.Sprintf("%s: %d videos downloaded", sum.UserID, sum.Succeeded))
	}
}

func (s *Scraper) notifyError(msg string) {
	if s.config.Notifications.Enabled && s.config.Notifications.OnError {
		s.notifier.SendError("wbvideo", msg)
	}
}
