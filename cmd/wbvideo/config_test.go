package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wbvideo/pkg/config"
)

func TestExampleConfigIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0600))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	require.NoError(t, cfg.Validate())

	defaults := config.DefaultConfig()
	assert.Equal(t, defaults.Weibo.BaseURL, cfg.Weibo.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Fetch.RequestInterval)
	assert.Equal(t, time.Minute, cfg.Fetch.Backoff.MaxDelay)
	assert.Equal(t, defaults.Fetch.MaxTransientRetries, cfg.Fetch.MaxTransientRetries)
	assert.Equal(t, "video_urls.txt", cfg.Output.URLListFile)
	assert.True(t, cfg.Output.CreateUserFolders)
}

func TestWriteMaskedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Weibo.Cookie = "SUB=_2A25LsecretSessionValue; SUBP=0033WrSX"

	var buf bytes.Buffer
	require.NoError(t, writeMaskedConfig(&buf, cfg))

	assert.NotContains(t, buf.String(), "secretSessionValue")
	assert.Contains(t, buf.String(), "cookie:")
	assert.Equal(t, "SUB=_2A25LsecretSessionValue; SUBP=0033WrSX", cfg.Weibo.Cookie, "original config untouched")
}
