package weibo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"wbvideo/pkg/config"
	errs "wbvideo/pkg/errors"
	"wbvideo/pkg/logger"
)

// bodyPreviewLen bounds how much of a response body is logged
const bodyPreviewLen = 200

// Client talks to the feed endpoint and the media CDN
type Client struct {
	httpClient  *http.Client
	mediaClient *http.Client
	headers     map[string]string
	endpoint    string
	logger      logger.Logger
}

// DefaultHeaders returns the browser header set sent with feed requests.
// Referer and Cookie are added per client and per request.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":             "application/json, text/plain, */*",
		"Accept-Language":    config.DefaultAcceptLanguage,
		"Sec-Ch-Ua":          `"Google Chrome";v="129", "Not=A?Brand";v="8", "Chromium";v="129"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"User-Agent":         config.DefaultUserAgent,
	}
}

// NewClient creates a feed client. timeout bounds each page request;
// media requests only bound the wait for response headers.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		mediaClient: &http.Client{
			Transport: mediaTransport(timeout),
		},
		headers:  DefaultHeaders(),
		endpoint: DefaultWaterfallURL,
		logger:   log,
	}
}

// NewClientFromConfig creates a client with the endpoint, identity headers
// and timeouts from cfg. cookie is the resolved session cookie.
func NewClientFromConfig(cfg *config.Config, cookie string, log logger.Logger) *Client {
	c := NewClient(cfg.Fetch.RequestTimeout, log)
	c.SetEndpoint(cfg.Weibo.BaseURL)
	c.SetMediaHeaderTimeout(cfg.Download.HeaderTimeout)

	if cfg.Weibo.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.Weibo.UserAgent)
	}
	if cfg.Weibo.AcceptLanguage != "" {
		c.SetHeader("Accept-Language", cfg.Weibo.AcceptLanguage)
	}
	c.SetHeaders(cfg.Weibo.ExtraHeaders)
	c.SetCookie(cookie)
	return c
}

func mediaTransport(headerTimeout time.Duration) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.ResponseHeaderTimeout = headerTimeout
	return t
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetCookie sets the session cookie. An empty cookie removes it.
func (c *Client) SetCookie(cookie string) {
	if cookie == "" {
		delete(c.headers, "Cookie")
		return
	}
	c.headers["Cookie"] = cookie
}

// SetEndpoint overrides the feed endpoint
func (c *Client) SetEndpoint(endpoint string) {
	if endpoint != "" {
		c.endpoint = endpoint
	}
}

// SetMediaHeaderTimeout bounds how long a media request waits for headers
func (c *Client) SetMediaHeaderTimeout(d time.Duration) {
	if t, ok := c.mediaClient.Transport.(*http.Transport); ok {
		t.ResponseHeaderTimeout = d
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(client *http.Client, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		// cancellation is not a network failure
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// FetchPage requests one feed page. Non-200 responses come back as typed
// errors carrying the status code; 200 responses are parsed with ParsePage
// and may yield ErrInvalidJSON, ErrUnexpectedShape or ErrEmptyList.
func (c *Client) FetchPage(ctx context.Context, userID string, cursor Cursor) (*Page, error) {
	pageURL := GetWaterfallURL(c.endpoint, userID, cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Referer", GetProfileURL(userID))

	resp, err := c.doRequest(c.httpClient, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	c.logger.DebugWithFields("feed response", map[string]interface{}{
		"user_id":      userID,
		"cursor":       int64(cursor),
		"status":       resp.StatusCode,
		"body_preview": preview(body),
	})

	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatus(resp.StatusCode)
	}

	page, err := ParsePage(body)
	if err != nil {
		return nil, fmt.Errorf("cursor %d: %w", int64(cursor), err)
	}
	return page, nil
}

// OpenMedia starts a media download. The caller owns the response body
// and must check the status code.
func (c *Client) OpenMedia(ctx context.Context, mediaURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	if ua, ok := c.headers["User-Agent"]; ok {
		req.Header.Set("User-Agent", ua)
	}

	return c.doRequest(c.mediaClient, req)
}

func preview(body []byte) string {
	runes := []rune(string(body))
	if len(runes) > bodyPreviewLen {
		return string(runes[:bodyPreviewLen]) + "..."
	}
	return string(runes)
}
