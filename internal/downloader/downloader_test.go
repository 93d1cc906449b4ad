package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbvideo/internal/testutil"
	errs "wbvideo/pkg/errors"
	"wbvideo/pkg/logger"
	"wbvideo/pkg/ratelimit"
	"wbvideo/pkg/storage"
	"wbvideo/pkg/ui"
	"wbvideo/pkg/weibo"
)

func setup(t *testing.T) (*Downloader, *testutil.MockWeiboServer, string) {
	t.Helper()
	ui.Out = io.Discard
	t.Cleanup(func() { ui.Out = os.Stdout })

	server := testutil.NewMockWeiboServer()
	t.Cleanup(server.Close)

	dir := filepath.Join(t.TempDir(), "downloads", "1234")
	client := weibo.NewClient(5*time.Second, logger.NewNopLogger())
	return New(client, storage.NewManager(dir), logger.NewTestLogger()), server, dir
}

func TestDownload(t *testing.T) {
	d, server, dir := setup(t)
	data := bytes.Repeat([]byte("v"), 3*chunkSize+17)
	server.SetMedia("a.mp4", data)

	res := d.Download(context.Background(), server.MediaURL("a.mp4"))
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.False(t, res.Skipped)
	assert.Equal(t, "a.mp4", res.FileName)
	assert.Equal(t, filepath.Join(dir, "a.mp4"), res.Path)
	assert.Equal(t, int64(len(data)), res.Size)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.NoFileExists(t, res.Path+storage.PartSuffix)
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	d, server, _ := setup(t)
	server.SetMedia("a.mp4", []byte("video"))
	url := server.MediaURL("a.mp4")

	first := d.Download(context.Background(), url)
	second := d.Download(context.Background(), url)

	assert.True(t, first.Success)
	assert.False(t, first.Skipped)
	assert.True(t, second.Success)
	assert.True(t, second.Skipped)
	assert.Equal(t, 1, server.MediaRequests())
}

func TestDownloadUnknownLength(t *testing.T) {
	d, server, _ := setup(t)
	server.SetMediaWithoutLength("b.mp4", []byte("streamed body"))

	res := d.Download(context.Background(), server.MediaURL("b.mp4"))
	require.True(t, res.Success)

	got, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "streamed body", string(got))
}

func TestDownloadFailures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		d, server, dir := setup(t)
		server.SetMediaStatus("gone.mp4", http.StatusNotFound)

		res := d.Download(context.Background(), server.MediaURL("gone.mp4"))
		assert.False(t, res.Success)
		assert.Equal(t, http.StatusNotFound, errs.StatusCode(res.Err))
		assert.False(t, res.Cancelled())
		assert.NoFileExists(t, filepath.Join(dir, "gone.mp4"))
		assert.DirExists(t, dir)
	})

	t.Run("no file name", func(t *testing.T) {
		d, server, _ := setup(t)
		res := d.Download(context.Background(), server.MediaURL("")+"/")
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, storage.ErrNoFileName)
		assert.Zero(t, server.MediaRequests())
	})

	t.Run("network error", func(t *testing.T) {
		d, server, _ := setup(t)
		url := server.MediaURL("a.mp4")
		server.Close()

		res := d.Download(context.Background(), url)
		assert.False(t, res.Success)
		assert.Error(t, res.Err)
		assert.False(t, res.Cancelled())
	})
}

func TestDownloadCancelledMidStream(t *testing.T) {
	d, server, dir := setup(t)
	server.StallMedia("c.mp4", bytes.Repeat([]byte("x"), 4*chunkSize))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res := d.Download(ctx, server.MediaURL("c.mp4"))
	assert.False(t, res.Success)
	assert.True(t, res.Cancelled())
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(dir, "c.mp4"))
	assert.NoFileExists(t, filepath.Join(dir, "c.mp4"+storage.PartSuffix))
}

func TestDownloadRateLimited(t *testing.T) {
	d, server, _ := setup(t)
	server.SetMedia("a.mp4", []byte("a"))
	server.SetMedia("b.mp4", []byte("b"))

	limiter := ratelimit.NewTokenBucket(1, time.Hour)
	d.SetRateLimiter(limiter)

	require.True(t, d.Download(context.Background(), server.MediaURL("a.mp4")).Success)

	// skipped files do not need a token
	assert.True(t, d.Download(context.Background(), server.MediaURL("a.mp4")).Skipped)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := d.Download(ctx, server.MediaURL("b.mp4"))
	assert.False(t, res.Success)
	assert.True(t, res.Cancelled())
	assert.Equal(t, 1, server.MediaFetches("a.mp4"))
	assert.Zero(t, server.MediaFetches("b.mp4"))
}

func TestDownloadLogsOutcome(t *testing.T) {
	ui.Out = io.Discard
	defer func() { ui.Out = os.Stdout }()

	server := testutil.NewMockWeiboServer()
	defer server.Close()
	server.SetMedia("a.mp4", []byte("a"))
	server.SetMediaStatus("b.mp4", http.StatusForbidden)

	log := logger.NewTestLogger()
	d := New(weibo.NewClient(time.Second, logger.NewNopLogger()), storage.NewManager(t.TempDir()), log)

	d.Download(context.Background(), server.MediaURL("a.mp4"))
	d.Download(context.Background(), server.MediaURL("b.mp4"))

	assert.True(t, log.HasMessage("download completed"))
	assert.True(t, log.HasMessage("download failed"))
	assert.True(t, log.HasError())
}
