package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbvideo/internal/testutil"
	"wbvideo/pkg/config"
	errs "wbvideo/pkg/errors"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/weibo"
)

// fakeFeed answers FetchPage from a script of bodies or errors per cursor
type fakeFeed struct {
	mu      sync.Mutex
	script  map[weibo.Cursor][]func() (*weibo.Page, error)
	cursors []weibo.Cursor
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{script: make(map[weibo.Cursor][]func() (*weibo.Page, error))}
}

func (f *fakeFeed) body(cursor weibo.Cursor, body string) {
	f.add(cursor, func() (*weibo.Page, error) { return weibo.ParsePage([]byte(body)) })
}

func (f *fakeFeed) status(cursor weibo.Cursor, code int) {
	f.add(cursor, func() (*weibo.Page, error) { return nil, errs.FromStatus(code) })
}

func (f *fakeFeed) add(cursor weibo.Cursor, step func() (*weibo.Page, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[cursor] = append(f.script[cursor], step)
}

func (f *fakeFeed) FetchPage(ctx context.Context, userID string, cursor weibo.Cursor) (*weibo.Page, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	steps := f.script[cursor]
	if len(steps) == 0 {
		f.mu.Unlock()
		return nil, fmt.Errorf("unscripted cursor %d", cursor)
	}
	step := steps[0]
	if len(steps) > 1 {
		f.script[cursor] = steps[1:]
	}
	f.mu.Unlock()
	return step()
}

func (f *fakeFeed) requested() []weibo.Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]weibo.Cursor(nil), f.cursors...)
}

func fastFetchConfig() config.FetchConfig {
	cfg := config.DefaultConfig().Fetch
	cfg.RequestInterval = 0
	cfg.Backoff.Delay = time.Millisecond
	return cfg
}

func TestCollectStopsAtEndCursor(t *testing.T) {
	quiet(t)
	feed := newFakeFeed()
	feed.body(0, testutil.FeedPage(11, "https://v/a.mp4"))
	feed.body(11, testutil.FeedPage(22, "https://v/b.mp4", "https://v/c.mp4"))
	feed.body(22, testutil.FeedPage(-1, "https://v/d.mp4"))

	f := NewFetcher(feed, fastFetchConfig(), logger.NewNopLogger())
	urls, stop, err := f.Collect(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, StopEndOfFeed, stop)
	assert.Equal(t, []string{"https://v/a.mp4", "https://v/b.mp4", "https://v/c.mp4", "https://v/d.mp4"}, urls)
	assert.Equal(t, []weibo.Cursor{0, 11, 22}, feed.requested())
}

func TestCollectTerminalPages(t *testing.T) {
	quiet(t)
	tests := []struct {
		name string
		body string
		code int
		want StopReason
	}{
		{name: "empty list", body: `{"data": {"list": [], "next_cursor": 99}}`, want: StopEmptyPage},
		{name: "missing data", body: `{"ok": 0, "msg": "not logged in"}`, want: StopUnexpectedShape},
		{name: "not json", body: `<!DOCTYPE html><html></html>`, want: StopInvalidJSON},
		{name: "bad request", code: http.StatusBadRequest, want: StopBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := newFakeFeed()
			feed.body(0, testutil.FeedPage(5, "https://v/first.mp4"))
			if tt.code != 0 {
				feed.status(5, tt.code)
			} else {
				feed.body(5, tt.body)
			}

			log := logger.NewTestLogger()
			f := NewFetcher(feed, fastFetchConfig(), log)
			urls, stop, err := f.Collect(context.Background(), "42")

			require.NoError(t, err)
			assert.Equal(t, tt.want, stop)
			assert.Equal(t, []string{"https://v/first.mp4"}, urls, "earlier URLs are kept")
			assert.Equal(t, []weibo.Cursor{0, 5}, feed.requested(), "next_cursor of the last page is not followed")
		})
	}
}

func TestCollectRetriesTransientStatus(t *testing.T) {
	quiet(t)
	feed := newFakeFeed()
	feed.status(0, http.StatusBadGateway)
	feed.status(0, http.StatusTooManyRequests)
	feed.body(0, testutil.FeedPage(-1, "https://v/a.mp4"))

	log := logger.NewTestLogger()
	f := NewFetcher(feed, fastFetchConfig(), log)
	urls, stop, err := f.Collect(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, StopEndOfFeed, stop)
	assert.Equal(t, []string{"https://v/a.mp4"}, urls)
	assert.Equal(t, []weibo.Cursor{0, 0, 0}, feed.requested(), "retries reuse the same cursor")
	assert.Len(t, log.GetMessagesByLevel("WARN"), 2)
}

func TestCollectRetriesExhausted(t *testing.T) {
	quiet(t)
	feed := newFakeFeed()
	feed.body(0, testutil.FeedPage(3, "https://v/a.mp4"))
	feed.status(3, http.StatusServiceUnavailable)

	cfg := fastFetchConfig()
	cfg.MaxTransientRetries = 2
	f := NewFetcher(feed, cfg, logger.NewNopLogger())
	urls, stop, err := f.Collect(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, StopRetriesExhausted, stop)
	assert.Equal(t, []string{"https://v/a.mp4"}, urls)
	assert.Equal(t, []weibo.Cursor{0, 3, 3, 3}, feed.requested())
}

func TestCollectUnboundedRetries(t *testing.T) {
	quiet(t)
	feed := newFakeFeed()
	for i := 0; i < 15; i++ {
		feed.status(0, http.StatusInternalServerError)
	}
	feed.body(0, testutil.FeedPage(-1, "https://v/a.mp4"))

	cfg := fastFetchConfig()
	cfg.MaxTransientRetries = 0
	f := NewFetcher(feed, cfg, logger.NewNopLogger())
	urls, stop, err := f.Collect(context.Background(), "42")

	require.NoError(t, err)
	assert.Equal(t, StopEndOfFeed, stop)
	assert.Len(t, urls, 1)
	assert.Len(t, feed.requested(), 16)
}

func TestCollectCancelled(t *testing.T) {
	quiet(t)
	feed := newFakeFeed()
	feed.body(0, testutil.FeedPage(1, "https://v/a.mp4"))

	ctx, cancel := context.WithCancel(context.Background())
	feed.add(1, func() (*weibo.Page, error) {
		cancel()
		return nil, errs.FromStatus(http.StatusBadGateway)
	})

	f := NewFetcher(feed, fastFetchConfig(), logger.NewNopLogger())
	urls, stop, err := f.Collect(ctx, "42")

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StopCancelled, stop)
	assert.Equal(t, []string{"https://v/a.mp4"}, urls)
}

func TestCollectAgainstServer(t *testing.T) {
	quiet(t)
	server := testutil.NewMockWeiboServer()
	defer server.Close()

	first := server.AddFeedPage(0, 7, "a.mp4", "b.mp4")
	server.FailCursor(7, http.StatusInternalServerError)
	second := server.AddFeedPage(7, -1, "c.mp4")

	client := weibo.NewClient(5*time.Second, logger.NewNopLogger())
	client.SetEndpoint(server.Endpoint())

	f := NewFetcher(client, fastFetchConfig(), logger.NewNopLogger())
	urls, stop, err := f.Collect(context.Background(), "1234567890")

	require.NoError(t, err)
	assert.Equal(t, StopEndOfFeed, stop)
	assert.Equal(t, append(first, second...), urls)
	assert.Equal(t, []int64{0, 7, 7}, server.Cursors())
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "end of feed", StopEndOfFeed.String())
	assert.Equal(t, "retries exhausted", StopRetriesExhausted.String())
	assert.Equal(t, "StopReason(42)", StopReason(42).String())
}
