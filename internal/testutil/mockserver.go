// Package testutil provides an in-process stand-in for the Weibo feed
// endpoint and its media CDN.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"wbvideo/pkg/weibo"
)

const mediaPrefix = "/media/"

type scriptedPage struct {
	failures []int // statuses returned before the page is served
	status   int
	body     string
}

type mediaFile struct {
	data    []byte
	status  int
	stall   bool
	noLen   bool
	fetches int32
}

// MockWeiboServer serves scripted feed pages keyed by cursor and media files
// keyed by name
type MockWeiboServer struct {
	server *httptest.Server

	mu      sync.Mutex
	pages   map[int64]*scriptedPage
	media   map[string]*mediaFile
	onMedia func(name string)
	cursors []int64

	feedRequests  int32
	mediaRequests int32
}

// NewMockWeiboServer starts a server. Close it when done.
func NewMockWeiboServer() *MockWeiboServer {
	m := &MockWeiboServer{
		pages: make(map[int64]*scriptedPage),
		media: make(map[string]*mediaFile),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(weibo.WaterfallEndpoint, m.handleFeed)
	mux.HandleFunc(mediaPrefix, m.handleMedia)
	m.server = httptest.NewServer(mux)
	return m
}

// Endpoint is the feed URL to hand to weibo.Client.SetEndpoint
func (m *MockWeiboServer) Endpoint() string {
	return m.server.URL + weibo.WaterfallEndpoint
}

// MediaURL returns the URL under which name is served. A query string is
// added so callers see the same shape as real CDN links.
func (m *MockWeiboServer) MediaURL(name string) string {
	return m.server.URL + mediaPrefix + name + "?label=mp4_720p&ts=1700000000"
}

// SetPage serves body with status for cursor. Failures queued with
// FailCursor are kept.
func (m *MockWeiboServer) SetPage(cursor int64, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &scriptedPage{status: status, body: body}
	if old, ok := m.pages[cursor]; ok {
		p.failures = old.failures
	}
	m.pages[cursor] = p
}

// AddFeedPage serves a page for cursor holding one qualifying entry per
// media name, each pointing at this server
func (m *MockWeiboServer) AddFeedPage(cursor, next int64, names ...string) []string {
	urls := make([]string, len(names))
	for i, name := range names {
		urls[i] = m.MediaURL(name)
	}
	m.SetPage(cursor, http.StatusOK, FeedPage(next, urls...))
	return urls
}

// FailCursor makes the next requests for cursor answer with statuses, in
// order, before the scripted page is served
func (m *MockWeiboServer) FailCursor(cursor int64, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[cursor]
	if !ok {
		p = &scriptedPage{status: http.StatusInternalServerError}
		m.pages[cursor] = p
	}
	p.failures = append(p.failures, statuses...)
}

// SetMedia serves data for name with a Content-Length header
func (m *MockWeiboServer) SetMedia(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[name] = &mediaFile{data: data, status: http.StatusOK}
}

// SetMediaWithoutLength serves data for name using chunked encoding
func (m *MockWeiboServer) SetMediaWithoutLength(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[name] = &mediaFile{data: data, status: http.StatusOK, noLen: true}
}

// SetMediaStatus makes name answer with status and no body
func (m *MockWeiboServer) SetMediaStatus(name string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[name] = &mediaFile{status: status}
}

// StallMedia makes name send half of data and then hang until the client
// goes away
func (m *MockWeiboServer) StallMedia(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[name] = &mediaFile{data: data, status: http.StatusOK, stall: true}
}

// OnMedia registers fn to run when a media request arrives, before any
// bytes are sent
func (m *MockWeiboServer) OnMedia(fn func(name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMedia = fn
}

func (m *MockWeiboServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.feedRequests, 1)

	cursor, err := strconv.ParseInt(r.URL.Query().Get("cursor"), 10, 64)
	if err != nil || r.URL.Query().Get("uid") == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.cursors = append(m.cursors, cursor)
	p, ok := m.pages[cursor]
	status, body := http.StatusBadRequest, ""
	if ok {
		if len(p.failures) > 0 {
			status = p.failures[0]
			p.failures = p.failures[1:]
		} else {
			status, body = p.status, p.body
		}
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func (m *MockWeiboServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.mediaRequests, 1)
	name := strings.TrimPrefix(r.URL.Path, mediaPrefix)

	m.mu.Lock()
	f, ok := m.media[name]
	hook := m.onMedia
	m.mu.Unlock()

	if hook != nil {
		hook(name)
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	atomic.AddInt32(&f.fetches, 1)

	if f.status != http.StatusOK {
		w.WriteHeader(f.status)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	if !f.noLen {
		w.Header().Set("Content-Length", strconv.Itoa(len(f.data)))
	}

	if f.stall {
		w.Write(f.data[:len(f.data)/2])
		if fl, ok := w.(http.Flusher); ok {
			fl.Flush()
		}
		<-r.Context().Done()
		return
	}
	w.Write(f.data)
}

// FeedRequests returns how many feed requests were received
func (m *MockWeiboServer) FeedRequests() int {
	return int(atomic.LoadInt32(&m.feedRequests))
}

// MediaRequests returns how many media requests were received
func (m *MockWeiboServer) MediaRequests() int {
	return int(atomic.LoadInt32(&m.mediaRequests))
}

// MediaFetches returns how many times name was served
func (m *MockWeiboServer) MediaFetches(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.media[name]; ok {
		return int(atomic.LoadInt32(&f.fetches))
	}
	return 0
}

// Cursors returns the cursors requested, in order
func (m *MockWeiboServer) Cursors() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.cursors...)
}

// Close shuts down the server
func (m *MockWeiboServer) Close() {
	m.server.Close()
}

// FeedPage renders a feed response whose list holds one qualifying entry
// per URL, nested the way the live endpoint nests them
func FeedPage(next int64, urls ...string) string {
	list := make([]interface{}, 0, len(urls))
	for i, u := range urls {
		list = append(list, map[string]interface{}{
			"idstr": strconv.Itoa(5000000000000000 + i),
			"page_info": map[string]interface{}{
				"object_type": "video",
				"media_info": map[string]interface{}{
					"playback_list": []interface{}{
						map[string]interface{}{
							"meta":      map[string]interface{}{"label": "mp4_720p"},
							"play_info": map[string]interface{}{"url": u, "type": 1},
						},
					},
				},
			},
		})
	}

	b, err := json.Marshal(map[string]interface{}{
		"ok": 1,
		"data": map[string]interface{}{
			"list":        list,
			"next_cursor": next,
		},
	})
	if err != nil {
		panic(err)
	}
	return string(b)
}
