package weibo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Weibo
	BaseURL = "https://weibo.com"

	// WaterfallEndpoint serves a profile's video feed page by page
	WaterfallEndpoint = "/ajax/profile/getWaterFallContent"

	// ProfilePath prefixes a numeric profile id in public profile URLs
	ProfilePath = "/u/"

	// maxUserIDLength bounds numeric profile ids
	maxUserIDLength = 20
)

// DefaultWaterfallURL is the full feed endpoint
const DefaultWaterfallURL = BaseURL + WaterfallEndpoint

// GetWaterfallURL builds the feed URL for one page. endpoint may already
// carry a query string.
func GetWaterfallURL(endpoint, userID string, cursor Cursor) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%suid=%s&cursor=%d", endpoint, sep, url.QueryEscape(userID), int64(cursor))
}

// GetProfileURL returns the public profile page, used as the Referer of
// feed requests
func GetProfileURL(userID string) string {
	if userID == "" {
		return ""
	}
	return BaseURL + ProfilePath + url.PathEscape(userID)
}

// IsValidUserID checks that userID is a numeric profile id
func IsValidUserID(userID string) bool {
	if userID == "" || len(userID) > maxUserIDLength {
		return false
	}
	for _, r := range userID {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SanitizeUserID trims whitespace and accepts a pasted profile URL such as
// https://weibo.com/u/1234567890?tabtype=newVideo in place of a bare id
func SanitizeUserID(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	if strings.Contains(s, "://") || strings.HasPrefix(s, "weibo.com/") {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		if u, err := url.Parse(s); err == nil {
			s = u.Path
		}
	}

	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, strings.TrimPrefix(ProfilePath, "/"))
	s = strings.TrimSuffix(s, "/")
	return s
}
