package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	twilioBaseURL = "https://api.twilio.com"
	twilioTimeout = 15 * time.Second

	twilioRetryAttempts = 3
	twilioRetryDelay    = time.Second
)

// TwilioClient sends SMS messages via the Twilio Messages API.
type TwilioClient struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	logger     *slog.Logger
}

// NewTwilio creates an SMS sender. Credentials may be empty; sends then fail
// with a configuration error in the Result.
func NewTwilio(accountSID, authToken, fromNumber string, logger *slog.Logger) *TwilioClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &TwilioClient{
		httpClient: &http.Client{Timeout: twilioTimeout},
		baseURL:    twilioBaseURL,
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

// IsConfigured reports whether credentials and a from-number are set.
func (t *TwilioClient) IsConfigured() bool {
	return t.accountSID != "" && t.authToken != "" && t.fromNumber != ""
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // error message on non-2xx
	Code    int    `json:"code"`
}

// twilioAPIError is an API-level rejection (bad number, unverified recipient,
// quota). Retrying cannot fix these.
type twilioAPIError struct {
	Code    int
	Message string
}

func (e *twilioAPIError) Error() string {
	return fmt.Sprintf("twilio error %d: %s", e.Code, e.Message)
}

func isTwilioAPIError(err error) bool {
	var apiErr *twilioAPIError
	return errors.As(err, &apiErr)
}

// Send delivers one SMS. Network failures are retried; the final outcome,
// success or not, is returned as a Result.
func (t *TwilioClient) Send(ctx context.Context, to, body string) Result {
	if !t.IsConfigured() {
		t.logger.Warn("Twilio not configured, cannot send SMS", "to", to)
		return failure("twilio not configured")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID)

	var parsed twilioResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.SetBasicAuth(t.accountSID, t.authToken)

			resp, err := t.httpClient.Do(req)
			if err != nil {
				t.logger.Warn("Twilio request failed, will retry", "to", to, "error", err)
				return err
			}
			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			if err := json.Unmarshal(raw, &parsed); err != nil {
				return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
			}

			if resp.StatusCode >= 300 {
				return &twilioAPIError{Code: parsed.Code, Message: parsed.Message}
			}
			return nil
		},
		retry.Attempts(twilioRetryAttempts),
		retry.Delay(twilioRetryDelay),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !isTwilioAPIError(err)
		}),
	)
	if err != nil {
		t.logger.Warn("SMS send failed", "to", to, "error", err)
		return failure(err.Error())
	}

	t.logger.Info("SMS sent", "to", to, "sid", parsed.SID, "status", parsed.Status)
	return Result{Success: true, ProviderID: parsed.SID}
}
