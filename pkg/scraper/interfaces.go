package scraper

import (
	"context"

	"wbvideo/internal/downloader"
	"wbvideo/pkg/weibo"
)

// FeedClient fetches one page of a user's video feed
type FeedClient interface {
	FetchPage(ctx context.Context, userID string, cursor weibo.Cursor) (*weibo.Page, error)
}

// Client is everything a scrape run needs from the network
type Client interface {
	FeedClient
	downloader.MediaOpener
}
