package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wbvideo/pkg/config"
	errs "wbvideo/pkg/errors"
	"wbvideo/pkg/extract"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/ratelimit"
	"wbvideo/pkg/retry"
	"wbvideo/pkg/ui"
	"wbvideo/pkg/weibo"
)

// StopReason says why pagination ended
type StopReason int

const (
	// StopEndOfFeed: the server returned the end cursor
	StopEndOfFeed StopReason = iota
	// StopEmptyPage: a page came back with an empty list
	StopEmptyPage
	// StopUnexpectedShape: the body had no data.list
	StopUnexpectedShape
	// StopInvalidJSON: the body did not parse
	StopInvalidJSON
	// StopBadRequest: the server answered 400
	StopBadRequest
	// StopRetriesExhausted: transient failures used up every retry
	StopRetriesExhausted
	// StopFetchError: any other failure
	StopFetchError
	// StopCancelled: the context ended
	StopCancelled
)

func (r StopReason) String() string {
	switch r {
	case StopEndOfFeed:
		return "end of feed"
	case StopEmptyPage:
		return "empty page"
	case StopUnexpectedShape:
		return "unexpected response shape"
	case StopInvalidJSON:
		return "invalid JSON"
	case StopBadRequest:
		return "bad request"
	case StopRetriesExhausted:
		return "retries exhausted"
	case StopFetchError:
		return "fetch error"
	case StopCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Fetcher walks a user's feed page by page and collects playback URLs
type Fetcher struct {
	client     FeedClient
	limiter    ratelimit.Limiter
	backoff    retry.BackoffStrategy
	maxRetries int
	logger     logger.Logger
}

// NewFetcher creates a fetcher using the request spacing and retry policy
// from cfg
func NewFetcher(client FeedClient, cfg config.FetchConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:     client,
		limiter:    ratelimit.NewInterval(cfg.RequestInterval),
		backoff:    retry.FromConfig(cfg.Backoff),
		maxRetries: cfg.MaxTransientRetries,
		logger:     log,
	}
}

// Collect pages through userID's feed from the initial cursor until a
// terminal condition. URLs gathered before the stop are always returned.
// The error is non-nil only when ctx ended.
func (f *Fetcher) Collect(ctx context.Context, userID string) ([]string, StopReason, error) {
	var urls []string
	cursor := weibo.InitialCursor

	spin := ui.NewSpinner("Fetching feed")
	defer spin.Stop()

	for !cursor.Done() {
		spin.Update(fmt.Sprintf("Fetching feed (cursor %s, %d URLs so far)", cursor, len(urls)))
		spin.Start()

		page, err := f.fetch(ctx, userID, cursor, spin)
		spin.Stop()

		if err != nil {
			reason := stopReason(err)
			if reason == StopCancelled {
				return urls, reason, err
			}
			f.reportStop(userID, cursor, reason, err)
			return urls, reason, nil
		}

		found := extract.PlaybackURLs(page.Payload)
		urls = append(urls, found...)

		ui.Printf("URLs found in this request: %d\n", len(found))
		ui.Printf("Next cursor: %s\n", page.NextCursor)
		logger.LogPagination(f.logger, userID, int64(cursor), len(found), int64(page.NextCursor))

		cursor = page.NextCursor
	}

	f.logger.InfoWithFields("reached end of feed", map[string]interface{}{
		"user_id": userID,
		"urls":    len(urls),
	})
	return urls, StopEndOfFeed, nil
}

// fetch requests one page, retrying transient failures on the same cursor.
// spin is paused while a retry warning is printed.
func (f *Fetcher) fetch(ctx context.Context, userID string, cursor weibo.Cursor, spin *ui.Spinner) (*weibo.Page, error) {
	maxAttempts := 0
	if f.maxRetries > 0 {
		maxAttempts = f.maxRetries + 1
	}

	return retry.DoWithResult(ctx, func(ctx context.Context) (*weibo.Page, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return f.client.FetchPage(ctx, userID, cursor)
	}, &retry.Config{
		MaxAttempts: maxAttempts,
		Backoff:     f.backoff,
		RetryIf:     errs.IsTransient,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			resume := spin.Pause()
			defer resume()
			if code := errs.StatusCode(err); code != 0 {
				ui.PrintWarning(fmt.Sprintf("Request failed with status code %d", code), fmt.Sprintf("retrying in %s", delay))
			} else {
				ui.PrintWarning("Request failed", err)
			}
		},
		Logger: f.logger.WithField("cursor", int64(cursor)),
	})
}

func stopReason(err error) StopReason {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StopCancelled
	case errors.Is(err, retry.ErrMaxAttempts):
		return StopRetriesExhausted
	case errors.Is(err, weibo.ErrEmptyList):
		return StopEmptyPage
	case errors.Is(err, weibo.ErrUnexpectedShape):
		return StopUnexpectedShape
	case errors.Is(err, weibo.ErrInvalidJSON):
		return StopInvalidJSON
	case errs.StatusCode(err) == http.StatusBadRequest:
		return StopBadRequest
	default:
		return StopFetchError
	}
}

func (f *Fetcher) reportStop(userID string, cursor weibo.Cursor, reason StopReason, err error) {
	fields := map[string]interface{}{
		"user_id": userID,
		"cursor":  int64(cursor),
		"reason":  reason.String(),
	}

	switch reason {
	case StopEmptyPage:
		ui.Printf("No more data available.\n")
		f.logger.InfoWithFields("feed returned an empty page", fields)
	case StopBadRequest:
		ui.PrintWarning("Request failed with status code 400, stopping")
		f.logger.WithError(err).WarnWithFields("feed rejected the request", fields)
	default:
		ui.PrintError(fmt.Sprintf("Stopping pagination (%s)", reason), err)
		f.logger.WithError(err).ErrorWithFields("pagination stopped", fields)
	}
}
