package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "wbvideo/pkg/errors"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/ratelimit"
	"wbvideo/pkg/storage"
	"wbvideo/pkg/ui"
)

// chunkSize is the buffer used when streaming a body of known length
const chunkSize = 8192

// MediaOpener starts a media request. The caller checks the status and
// closes the body.
type MediaOpener interface {
	OpenMedia(ctx context.Context, url string) (*http.Response, error)
}

// Result is the outcome of one download
type Result struct {
	URL      string
	FileName string
	Path     string
	Success  bool
	Skipped  bool
	Size     int64
	Duration time.Duration
	Err      error
}

// Cancelled reports whether the download stopped because its context ended
func (r Result) Cancelled() bool {
	return errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded)
}

// Downloader saves media URLs into one output directory
type Downloader struct {
	client      MediaOpener
	store       *storage.Manager
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

// New creates a downloader writing into store
func New(client MediaOpener, store *storage.Manager, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{client: client, store: store, logger: log}
}

// SetRateLimiter makes every network download wait on l first. Skipped
// files do not consume from it.
func (d *Downloader) SetRateLimiter(l ratelimit.Limiter) {
	d.rateLimiter = l
}

// Discard removes whatever output exists for url, finished or partial
func (d *Downloader) Discard(url string) error {
	name, err := storage.FileNameFromURL(url)
	if err != nil {
		return err
	}
	return d.store.Discard(name)
}

// Download fetches url into the output directory unless a file with the
// same name is already there
func (d *Downloader) Download(ctx context.Context, url string) Result {
	start := time.Now()
	res := d.download(ctx, url)
	res.Duration = time.Since(start)

	if !res.Cancelled() {
		logger.LogDownload(d.logger, url, res.FileName, res.Success, res.Skipped, res.Err)
	}
	return res
}

func (d *Downloader) download(ctx context.Context, url string) Result {
	res := Result{URL: url}

	if err := d.store.EnsureDir(); err != nil {
		res.Err = err
		return res
	}

	name, err := storage.FileNameFromURL(url)
	if err != nil {
		res.Err = err
		return res
	}
	res.FileName = name
	res.Path = d.store.Path(name)

	if d.store.Exists(name) {
		ui.Printf("File %s already exists. Skipping.\n", name)
		res.Success = true
		res.Skipped = true
		return res
	}

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	resp, err := d.client.OpenMedia(ctx, url)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		res.Err = fmt.Errorf("download %s: %w", name, errs.FromStatus(resp.StatusCode))
		ui.PrintError(fmt.Sprintf("Failed to download %s", url), fmt.Sprintf("status code %d", resp.StatusCode))
		return res
	}

	part, err := d.store.Create(name)
	if err != nil {
		res.Err = err
		return res
	}

	n, err := d.write(part, resp.Body, name, resp.ContentLength)
	if err != nil {
		part.Abort()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		res.Err = fmt.Errorf("download %s: %w", name, err)
		return res
	}
	if err := part.Commit(); err != nil {
		res.Err = err
		return res
	}

	res.Size = n
	res.Success = true
	ui.PrintSuccess(fmt.Sprintf("Downloaded %s", name))
	return res
}

// write streams body into w. A body of known length is copied in chunks
// behind a progress bar; anything else is read whole and written once.
func (d *Downloader) write(w io.Writer, body io.Reader, name string, length int64) (int64, error) {
	if length <= 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return 0, err
		}
		n, err := w.Write(data)
		return int64(n), err
	}

	bar := ui.NewByteProgress(name, length)
	n, err := io.CopyBuffer(io.MultiWriter(w, bar), body, make([]byte, chunkSize))
	if err == nil {
		bar.Finish()
	}
	return n, err
}
