// Package fetch retrieves resort snow-report pages and reduces them to plain
// text suitable for the extraction model.
//
// Resort sites are rate-limited and block obvious bots, so requests carry
// browser-like headers, go through a token-bucket limiter, and retry with
// backoff on transient failures.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"
)

const (
	requestTimeout  = 30 * time.Second
	maxContentChars = 50000 // cap on text handed to the extraction model

	retryAttempts = 3
	retryDelay    = 2 * time.Second
	retryMaxDelay = 30 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

var whitespaceRE = regexp.MustCompile(`[ \t]{2,}|\r`)

// Client fetches snow-report pages.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a page-fetch client. requestsPerMinute bounds the request
// rate across all resorts sharing this client.
func NewClient(requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Fetch GETs a snow-report page and returns its visible text, capped at
// maxContentChars. Transient HTTP failures are retried with backoff; the
// returned error reflects the final attempt.
func (c *Client) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	var content string
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}

			// Browser-like headers; bare Go user agents get blocked.
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
			req.Header.Set("Accept-Language", "en-US,en;q=0.9")

			start := time.Now()
			resp, err := c.httpClient.Do(req)
			if err != nil {
				c.logger.Warn("Fetch failed, will retry", "url", pageURL, "error", err)
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				c.logger.Warn("Fetch returned non-OK status, will retry",
					"url", pageURL, "status", resp.StatusCode)
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}

			text, err := reduceHTML(resp.Body)
			if err != nil {
				return fmt.Errorf("parse page: %w", err)
			}

			c.logger.Info("Page fetched",
				"url", pageURL,
				"chars", len(text),
				"duration_ms", time.Since(start).Milliseconds())
			content = text
			return nil
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Info("Retrying fetch", "url", pageURL, "attempt", n, "error", err)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return content, nil
}

// reduceHTML strips scripts, styles, and markup, returning the page's visible
// text. Snow-report numbers live in the text; the model does not need the DOM.
func reduceHTML(body io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, iframe, svg").Remove()

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	text = whitespaceRE.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	text = strings.Join(kept, "\n")

	if len(text) > maxContentChars {
		text = text[:maxContentChars]
	}
	return text, nil
}
