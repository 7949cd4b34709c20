package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"casecorpus/pkg/config"
	cerrors "casecorpus/pkg/errors"
	"casecorpus/pkg/logger"
	"casecorpus/pkg/ratelimit"
)

// maxBodySize caps a single response body. A larger body is a fetch
// failure, never a truncated document.
const maxBodySize = 32 << 20

// Fetcher retrieves raw document content by URL. A Fetcher is opened once
// per run and closed on every exit path.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Close() error
}

// Client is the HTTP Fetcher for the archive. Case pages embed the decision
// in a frame; when FrameSelector matches, the frame document is fetched and
// returned instead of the wrapper page.
type Client struct {
	httpClient    *http.Client
	headers       map[string]string
	frameSelector string
	maxBody       int64
	limiter       ratelimit.Limiter
	logger        logger.Logger
}

// NewClient creates an archive client from configuration
func NewClient(cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Fetch.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.Fetch.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-CA,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		frameSelector: cfg.Archive.FrameSelector,
		maxBody:       maxBodySize,
		limiter:       limiter,
		logger:        log,
	}
}

// Fetch returns the document at rawURL, following the content frame if present.
// Every failure is returned as a fetch failure.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	body, finalURL, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	frameURL, ok := c.frameSource(body, finalURL)
	if !ok {
		return body, nil
	}

	c.logger.DebugWithFields("following content frame", map[string]interface{}{
		"url":   rawURL,
		"frame": frameURL,
	})

	frame, _, err := c.get(ctx, frameURL)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// Close releases idle connections held by the client
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// get performs a rate limited GET and returns the body and the final URL after redirects
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, *url.URL, error) {
	if !c.limiter.Allow() {
		c.logger.DebugWithFields("Waiting for rate limit", map[string]interface{}{"url": rawURL})
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, cerrors.NewFetchFailure("fetch", rawURL, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, cerrors.NewFetchFailure("fetch", rawURL, err)
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      rawURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, nil, cerrors.NewFetchFailure("fetch", rawURL, err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      rawURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != http.StatusOK {
		return nil, nil, cerrors.NewStatusFailure("fetch", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, nil, cerrors.NewFetchFailure("read", rawURL, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, nil, cerrors.NewFetchFailure("read", rawURL,
			fmt.Errorf("%w: more than %d bytes", cerrors.ErrBodyTooLarge, c.maxBody))
	}

	return body, resp.Request.URL, nil
}

// frameSource resolves the content frame's src against base
func (c *Client) frameSource(body []byte, base *url.URL) (string, bool) {
	if c.frameSelector == "" || !bytes.Contains(bytes.ToLower(body), []byte("<iframe")) {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	src, ok := doc.Find(c.frameSelector).First().Attr("src")
	src = strings.TrimSpace(src)
	if !ok || src == "" || strings.HasPrefix(src, "about:") {
		return "", false
	}

	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}
