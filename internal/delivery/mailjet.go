package delivery

import (
	"context"
	"fmt"
	"log/slog"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

// MailjetClient sends snow-report emails via the Mailjet API.
type MailjetClient struct {
	apiKey     string
	secretKey  string
	sender     string
	senderName string
	logger     *slog.Logger
}

// NewMailjet creates an email sender. Keys may be empty; sends then fail with
// a configuration error in the Result.
func NewMailjet(apiKey, secretKey, sender, senderName string, logger *slog.Logger) *MailjetClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailjetClient{
		apiKey:     apiKey,
		secretKey:  secretKey,
		sender:     sender,
		senderName: senderName,
		logger:     logger,
	}
}

// IsConfigured reports whether API keys and a sender address are set.
func (m *MailjetClient) IsConfigured() bool {
	return m.apiKey != "" && m.secretKey != "" && m.sender != ""
}

// Send delivers one plain-text email and returns the outcome as a Result.
func (m *MailjetClient) Send(ctx context.Context, to, subject, textBody string) Result {
	if !m.IsConfigured() {
		m.logger.Warn("Mailjet not configured, cannot send email", "to", to)
		return failure("mailjet not configured")
	}

	clt := mailjet.NewMailjetClient(m.apiKey, m.secretKey)
	msgs := mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: m.sender, Name: m.senderName},
		To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: to}},
		Subject:  subject,
		TextPart: textBody,
	}}}

	resp, err := clt.SendMailV31(&msgs)
	if err != nil {
		m.logger.Warn("Email send failed", "to", to, "error", err)
		return failure(err.Error())
	}

	var providerID string
	if len(resp.ResultsV31) > 0 && len(resp.ResultsV31[0].To) > 0 {
		providerID = fmt.Sprintf("%d", resp.ResultsV31[0].To[0].MessageID)
	}

	m.logger.Info("Email sent", "to", to, "message_id", providerID)
	return Result{Success: true, ProviderID: providerID}
}
