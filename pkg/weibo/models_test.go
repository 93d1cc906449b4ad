package weibo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	t.Run("list and cursor", func(t *testing.T) {
		page, err := ParsePage([]byte(`{"ok": 1, "data": {"list": [{"id": 1}], "next_cursor": 5}}`))
		require.NoError(t, err)
		assert.Equal(t, Cursor(5), page.NextCursor)
		assert.Equal(t, 1, page.List.Len())
		assert.True(t, page.Payload.Has("ok"))
	})

	t.Run("cursor variants", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
			want Cursor
		}{
			{"absent", `{"data": {"list": [1]}}`, EndCursor},
			{"null", `{"data": {"list": [1], "next_cursor": null}}`, EndCursor},
			{"end", `{"data": {"list": [1], "next_cursor": -1}}`, EndCursor},
			{"numeric string", `{"data": {"list": [1], "next_cursor": "4983021934818305"}}`, 4983021934818305},
			{"garbage string", `{"data": {"list": [1], "next_cursor": "next"}}`, EndCursor},
			{"object", `{"data": {"list": [1], "next_cursor": {}}}`, EndCursor},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				page, err := ParsePage([]byte(tt.doc))
				require.NoError(t, err)
				assert.Equal(t, tt.want, page.NextCursor)
			})
		}
	})

	t.Run("terminal shapes", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
			want error
		}{
			{"html", `<html>login</html>`, ErrInvalidJSON},
			{"truncated", `{"data": {"list": [`, ErrInvalidJSON},
			{"no data", `{"ok": 0, "msg": "login required"}`, ErrUnexpectedShape},
			{"data not object", `{"data": "list"}`, ErrUnexpectedShape},
			{"no list", `{"data": {"next_cursor": 5}}`, ErrUnexpectedShape},
			{"top-level array", `[{"data": {"list": [1]}}]`, ErrUnexpectedShape},
			{"empty list", `{"data": {"list": [], "next_cursor": 9}}`, ErrEmptyList},
			{"null list", `{"data": {"list": null}}`, ErrEmptyList},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				page, err := ParsePage([]byte(tt.doc))
				assert.ErrorIs(t, err, tt.want)
				assert.Nil(t, page)
			})
		}
	})
}

func TestCursor(t *testing.T) {
	assert.False(t, InitialCursor.Done())
	assert.False(t, Cursor(5).Done())
	assert.True(t, EndCursor.Done())
	assert.Equal(t, "-1", EndCursor.String())
}
