package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"property-trawler/utils"
)

// ErrSourceUnavailable marks an HTTP-level failure reaching a source:
// a block, a dead endpoint, or repeated network errors. It is a soft
// failure: the orchestrator records it and moves on to the next source.
var ErrSourceUnavailable = errors.New("source unavailable")

const (
	requestTimeout = 15 * time.Second
	// Pages shorter than this are block/interstitial pages, not result pages.
	minPageSize = 5000
)

// browserHeaders mimics a real Chrome session. Sites serve stripped or empty
// pages to clients without them.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-GB,en-US;q=0.9,en;q=0.8",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Cache-Control":             "max-age=0",
}

// Client is one adapter's HTTP session: a cookie jar shared across the
// paginated requests to a single source, browser-like headers, a pacing
// limiter between requests, and bounded retry for transient errors.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	retry   *utils.RetryConfig
	logger  *utils.Logger
	referer string
}

// NewClient creates a session client pacing requests at least delayMs apart.
func NewClient(delayMs, maxRetries int, logger *utils.Logger) *Client {
	if delayMs <= 0 {
		delayMs = 2000
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	jar, _ := cookiejar.New(nil)

	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: requestTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Duration(delayMs)*time.Millisecond), 1),
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Warmup visits the site homepage so the jar holds its cookies before any
// search request. Failures are ignored: the warm-up is an optimisation
// against anti-bot checks, not a prerequisite.
func (c *Client) Warmup(ctx context.Context, baseURL string) {
	if _, err := c.fetch(ctx, baseURL+"/"); err != nil {
		c.logger.Debug("[client] warmup %s failed: %v", baseURL, err)
		return
	}
	c.referer = baseURL + "/"
}

// GetDocument fetches url and parses it into a goquery document, retrying
// transient errors. Blocked responses (403/404/429 and friends) come back
// wrapping ErrSourceUnavailable and are never retried.
func (c *Client) GetDocument(ctx context.Context, url string) (*goquery.Document, int, error) {
	var body []byte
	err := c.retry.Do(ctx, "GET "+url, func() error {
		var ferr error
		body, ferr = c.fetch(ctx, url)
		return ferr
	})
	if err != nil {
		return nil, 0, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, len(body), nil
}

// FirstDocument tries candidate URL patterns in order and returns the first
// that yields a substantial result page. Sources differ in query-string
// conventions, so adapters supply several patterns per search.
func (c *Client) FirstDocument(ctx context.Context, urls []string) (*goquery.Document, string, error) {
	var lastErr error
	for _, u := range urls {
		doc, size, err := c.GetDocument(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		if size < minPageSize {
			lastErr = fmt.Errorf("page %s too small (%d bytes)", u, size)
			continue
		}
		return doc, u, nil
	}
	return nil, "", fmt.Errorf("all %d URL patterns failed: %w: %w", len(urls), ErrSourceUnavailable, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", url, err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests,
		http.StatusUnauthorized, http.StatusGone:
		// Anti-bot or dead endpoint: retrying only raises the block rate.
		return nil, fmt.Errorf("%s returned status %d: %w",
			url, resp.StatusCode, errors.Join(ErrSourceUnavailable, utils.ErrPermanent))
	default:
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	c.referer = url
	return body, nil
}
