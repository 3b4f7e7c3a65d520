// Package extract turns raw snow-report page text into structured report data
// using the Anthropic messages API, and generates the short SMS summary from
// that data. Both calls share one HTTP client.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dailyflake/dailyflake/internal/report"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	model          = "claude-3-5-haiku-20241022"

	extractMaxTokens = 500
	summaryMaxTokens = 100
	requestTimeout   = 60 * time.Second
)

// jsonObjectRE pulls the first JSON object out of a model reply that may be
// wrapped in prose or markdown fences.
var jsonObjectRE = regexp.MustCompile(`(?s)\{.*\}`)

// Client calls the Anthropic messages API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates an extraction client. Returns an error when the API key
// is missing so the misconfiguration surfaces at startup, not per scrape.
func NewClient(apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		logger:     logger,
	}, nil
}

// Extract pulls structured snow-report fields out of page text. Unparseable
// model output is an error; missing fields are normalized to 0 / "unknown".
func (c *Client) Extract(ctx context.Context, content, resortName string) (report.Data, error) {
	prompt := fmt.Sprintf(`Extract snow report data from this ski resort webpage and return ONLY valid JSON with no markdown formatting.

Required fields:
- newSnowfall: number (inches in last 24h, or 0 if none)
- baseDepth: number (total base in inches, or 0 if unknown)
- liftsOpen: string (format "X/Y" or "all" or "unknown")
- conditions: string (one word: excellent/good/fair/poor)

If any data is unavailable, use 0 for numbers or "unknown" for strings.

Webpage text:
%s

Return ONLY the JSON object, no explanation or markdown.`, content)

	text, err := c.complete(ctx, prompt, extractMaxTokens)
	if err != nil {
		return report.Data{}, fmt.Errorf("extract %s: %w", resortName, err)
	}

	data, err := ParseReportJSON(text)
	if err != nil {
		return report.Data{}, fmt.Errorf("extract %s: %w", resortName, err)
	}
	return data, nil
}

// Summarize generates the short human-readable SMS line for a report.
func (c *Client) Summarize(ctx context.Context, data report.Data, resortName string) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode report data: %w", err)
	}

	prompt := fmt.Sprintf(`Create a concise SMS message under 150 characters for this snow report.

Resort: %s
Data: %s

Format: "{newSnow}" fresh, {base}" base, {lifts} lifts, {conditions}"
Example: "8" fresh, 45" base, 12/15 lifts, excellent"

Return ONLY the message text, nothing else.`, resortName, raw)

	text, err := c.complete(ctx, prompt, summaryMaxTokens)
	if err != nil {
		return "", fmt.Errorf("summarize %s: %w", resortName, err)
	}
	return strings.TrimSpace(text), nil
}

// --------------------------------------------------------------------------
// Messages API plumbing
// --------------------------------------------------------------------------

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends a single-user-message request and returns the first text
// block of the reply.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("messages API: %s: %s", parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("messages API: HTTP %d", resp.StatusCode)
	}

	c.logger.Debug("Model call completed",
		"max_tokens", maxTokens,
		"duration_ms", time.Since(start).Milliseconds())

	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

// ParseReportJSON extracts and decodes the report object from model output,
// applying neutral defaults for missing string fields.
func ParseReportJSON(text string) (report.Data, error) {
	match := jsonObjectRE.FindString(text)
	if match == "" {
		return report.Data{}, fmt.Errorf("no JSON object in model output")
	}

	var data report.Data
	if err := json.Unmarshal([]byte(match), &data); err != nil {
		return report.Data{}, fmt.Errorf("decode model output: %w", err)
	}

	if data.LiftsOpen == "" {
		data.LiftsOpen = "unknown"
	}
	if data.Conditions == "" {
		data.Conditions = "unknown"
	}
	return data, nil
}
