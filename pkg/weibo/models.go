package weibo

import (
	"errors"
	"fmt"
	"strconv"

	"wbvideo/pkg/jsonvalue"
)

// Cursor is the feed's pagination token
type Cursor int64

const (
	// InitialCursor requests the newest page
	InitialCursor Cursor = 0
	// EndCursor is returned by the server after the last page
	EndCursor Cursor = -1
)

// Done reports whether no further page exists. Only non-negative cursors
// are ever sent to the server.
func (c Cursor) Done() bool { return c < 0 }

func (c Cursor) String() string { return strconv.FormatInt(int64(c), 10) }

var (
	// ErrInvalidJSON means a 200 response body was not JSON
	ErrInvalidJSON = errors.New("response is not valid JSON")
	// ErrUnexpectedShape means the payload has no data.list
	ErrUnexpectedShape = errors.New("unexpected data structure")
	// ErrEmptyList means data.list is present but empty or falsy
	ErrEmptyList = errors.New("no items in data.list")
)

// Page is one decoded feed response
type Page struct {
	// Payload is the whole decoded body. URLs are extracted from all of it,
	// not only from List.
	Payload *jsonvalue.Value
	// List is data.list
	List *jsonvalue.Value
	// NextCursor is data.next_cursor, or EndCursor when absent or unusable
	NextCursor Cursor
}

// ParsePage decodes a 200 response body and checks its shape. A page whose
// list is empty is reported with ErrEmptyList and a nil Page, so its
// next_cursor is never consumed.
func ParsePage(body []byte) (*Page, error) {
	payload, err := jsonvalue.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	data, ok := payload.Get("data")
	if !ok || !data.IsObject() {
		return nil, ErrUnexpectedShape
	}
	list, ok := data.Get("list")
	if !ok {
		return nil, ErrUnexpectedShape
	}
	if !list.Truthy() {
		return nil, ErrEmptyList
	}

	return &Page{
		Payload:    payload,
		List:       list,
		NextCursor: parseCursor(data),
	}, nil
}

// parseCursor reads next_cursor as an integer or numeric string
func parseCursor(data *jsonvalue.Value) Cursor {
	v, ok := data.Get("next_cursor")
	if !ok {
		return EndCursor
	}
	n, ok := v.Int64()
	if !ok {
		return EndCursor
	}
	return Cursor(n)
}
