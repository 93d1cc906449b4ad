// Package scraper collects the video URLs of a Weibo user and downloads
// them.
//
// A run has two phases that never overlap:
//
//   - Fetcher.Collect walks the waterfall feed from cursor 0. Each page is
//     searched for playback URLs, then the server's next_cursor is followed
//     until it is -1. An empty list, a body without data.list, a body that
//     is not JSON, or a 400 response ends the walk early; URLs found up to
//     that point are kept. Other failures are retried on the same cursor.
//   - Scraper.Run writes the URL list file and downloads each URL in order
//     into <output>/<user id>/. Files already present are skipped.
//
// Cancelling the context passed to Run stops the batch. The file being
// downloaded at that moment is removed; files finished earlier stay.
//
// Usage:
//
//	cfg, _ := config.Load("", nil)
//	s, err := scraper.New(cfg, cookie)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sum, err := s.Run(ctx, "1234567890")
package scraper
