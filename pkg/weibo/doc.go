// Package weibo is a client for the profile video feed
// (getWaterFallContent) and the media CDN it points to.
//
// The feed is paginated with an integer cursor. A page is requested with
// uid and cursor query parameters and a browser-like header set including
// the session cookie:
//
//	client := weibo.NewClient(30*time.Second, log)
//	client.SetCookie(cookie)
//
//	page, err := client.FetchPage(ctx, "1234567890", weibo.InitialCursor)
//	switch {
//	case errors.Is(err, weibo.ErrEmptyList):
//	    // no more items
//	case err != nil:
//	    // typed *errors.Error for non-200 statuses, or a shape error
//	default:
//	    urls := extract.PlaybackURLs(page.Payload)
//	    next := page.NextCursor
//	}
//
// Page payloads are decoded into jsonvalue trees because the item schema
// varies and URLs can sit at any depth.
package weibo
