package weibo

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWaterfallURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		userID   string
		cursor   Cursor
		expected string
	}{
		{
			name:     "first page",
			endpoint: DefaultWaterfallURL,
			userID:   "1234567890",
			cursor:   InitialCursor,
			expected: "https://weibo.com/ajax/profile/getWaterFallContent?uid=1234567890&cursor=0",
		},
		{
			name:     "large cursor",
			endpoint: DefaultWaterfallURL,
			userID:   "1234567890",
			cursor:   4983021934818305,
			expected: "https://weibo.com/ajax/profile/getWaterFallContent?uid=1234567890&cursor=4983021934818305",
		},
		{
			name:     "endpoint with query",
			endpoint: "http://127.0.0.1:8080/feed?v=2",
			userID:   "42",
			cursor:   5,
			expected: "http://127.0.0.1:8080/feed?v=2&uid=42&cursor=5",
		},
		{
			name:     "escaped user id",
			endpoint: DefaultWaterfallURL,
			userID:   "a&b",
			cursor:   0,
			expected: "https://weibo.com/ajax/profile/getWaterFallContent?uid=a%26b&cursor=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetWaterfallURL(tt.endpoint, tt.userID, tt.cursor)
			assert.Equal(t, tt.expected, result)

			u, err := url.Parse(result)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, u.Query().Get("uid"))
			assert.Equal(t, tt.cursor.String(), u.Query().Get("cursor"))
		})
	}
}

func TestGetProfileURL(t *testing.T) {
	assert.Equal(t, "https://weibo.com/u/1234567890", GetProfileURL("1234567890"))
	assert.Empty(t, GetProfileURL(""))
}

func TestIsValidUserID(t *testing.T) {
	valid := []string{"1", "1234567890", "12345678901234567890"}
	invalid := []string{"", "abc", "123 456", "-1", "123456789012345678901", "１２３"}

	for _, id := range valid {
		assert.True(t, IsValidUserID(id), id)
	}
	for _, id := range invalid {
		assert.False(t, IsValidUserID(id), id)
	}
}

func TestSanitizeUserID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1234567890", "1234567890"},
		{"  1234567890\n", "1234567890"},
		{"https://weibo.com/u/1234567890", "1234567890"},
		{"https://weibo.com/u/1234567890?tabtype=newVideo", "1234567890"},
		{"weibo.com/u/1234567890/", "1234567890"},
		{"/u/1234567890", "1234567890"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUserID(tt.input))
		})
	}
}
