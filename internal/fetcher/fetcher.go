package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/milewatcher/pkg/logger"
	"github.com/milewatcher/pkg/ratelimit"
)

// Client performs bounded-timeout GETs and parses the response body as HTML.
// A browser-identifying User-Agent is sent on every request; some of the
// monitored sites reject unidentified clients.
type Client struct {
	http        *resty.Client
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// New creates a fetcher with the given timeout and User-Agent. Every
// request waits on the scraper rate limiter before going out.
func New(timeout time.Duration, userAgent string, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)

	return &Client{
		http:        client,
		rateLimiter: limiter,
		log:         log.WithComponent("fetcher"),
	}
}

// Document fetches a URL and returns the parsed markup. Network errors,
// non-2xx statuses and parse failures all come back as errors; nothing
// panics past this boundary.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterScraper); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.log.Debug().Str("url", url).Msg("Fetching page")

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		c.log.Error().Err(err).Str("url", url).Msg("HTTP request failed")
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.IsError() {
		c.log.Error().Str("url", url).Str("status", resp.Status()).Msg("Unexpected HTTP status")
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		c.log.Error().Err(err).Str("url", url).Msg("Failed to parse HTML")
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	return doc, nil
}
