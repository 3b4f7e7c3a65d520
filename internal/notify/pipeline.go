package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dailyflake/dailyflake/internal/delivery"
	"github.com/dailyflake/dailyflake/internal/report"
)

// ReportSource looks up the day's report for a resort.
type ReportSource interface {
	Get(ctx context.Context, resortID int, date string) (*report.Report, error)
}

// Ledger is the dedup/audit slice of the notify store.
type Ledger interface {
	AlreadySent(ctx context.Context, userID, resortID int, channel Channel, date string) (bool, error)
	Record(ctx context.Context, rec *Record) error
}

// SMSSender delivers one SMS. Never errors; the Result carries the outcome.
type SMSSender interface {
	Send(ctx context.Context, to, body string) delivery.Result
}

// EmailSender delivers one plain-text email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, textBody string) delivery.Result
}

// Pipeline delivers one subscription's daily notification across its enabled
// channels.
type Pipeline struct {
	reports ReportSource
	ledger  Ledger
	sms     SMSSender
	email   EmailSender
	logger  *slog.Logger
}

// NewPipeline creates a notify pipeline.
func NewPipeline(reports ReportSource, ledger Ledger, sms SMSSender, email EmailSender, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		reports: reports,
		ledger:  ledger,
		sms:     sms,
		email:   email,
		logger:  logger,
	}
}

// Run processes one candidate for the given date. Channels are handled
// independently: each is deduplicated, delivered, and logged on its own, so
// an SMS failure never blocks the email (or vice versa). Delivery failures
// are captured in the log row, not returned; only store failures bubble up.
func (p *Pipeline) Run(ctx context.Context, c Candidate, date string) error {
	rep, err := p.reports.Get(ctx, c.ResortID, date)
	if err != nil {
		return fmt.Errorf("look up report: %w", err)
	}
	if !rep.Usable() {
		p.logger.Info("No usable report, will send fallback",
			"resort", c.ResortName, "date", date)
	}

	if c.SMSEnabled {
		if err := p.deliverSMS(ctx, c, rep, date); err != nil {
			return err
		}
	}
	if c.EmailEnabled {
		if err := p.deliverEmail(ctx, c, rep, date); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) deliverSMS(ctx context.Context, c Candidate, rep *report.Report, date string) error {
	done, err := p.ledger.AlreadySent(ctx, c.UserID, c.ResortID, ChannelSMS, date)
	if err != nil {
		return fmt.Errorf("sms dedup check: %w", err)
	}
	if done {
		p.logger.Info("SMS already attempted today, skipping",
			"user_id", c.UserID, "resort", c.ResortName)
		return nil
	}

	msg := ComposeSMS(c.ResortName, rep)
	result := p.sms.Send(ctx, c.PhoneNumber, msg)
	return p.record(ctx, c, ChannelSMS, c.PhoneNumber, msg, date, result)
}

func (p *Pipeline) deliverEmail(ctx context.Context, c Candidate, rep *report.Report, date string) error {
	done, err := p.ledger.AlreadySent(ctx, c.UserID, c.ResortID, ChannelEmail, date)
	if err != nil {
		return fmt.Errorf("email dedup check: %w", err)
	}
	if done {
		p.logger.Info("Email already attempted today, skipping",
			"user_id", c.UserID, "resort", c.ResortName)
		return nil
	}

	subject, body := ComposeEmail(c.ResortName, date, rep)
	result := p.email.Send(ctx, c.Email, subject, body)
	return p.record(ctx, c, ChannelEmail, c.Email, body, date, result)
}

// record writes the delivery log row that doubles as the dedup witness.
// It must succeed for the attempt to count as done for the day. date is the
// same reference-timezone day string the dedup check ran against.
func (p *Pipeline) record(ctx context.Context, c Candidate, channel Channel, recipient, msg, date string, result delivery.Result) error {
	rec := &Record{
		UserID:       c.UserID,
		ResortID:     c.ResortID,
		Channel:      channel,
		Recipient:    recipient,
		Message:      msg,
		ProviderID:   result.ProviderID,
		Status:       "sent",
		DeliveryDate: date,
	}
	if !result.Success {
		rec.Status = "failed"
		rec.ErrorDetails = result.Err
		p.logger.Warn("Delivery failed",
			"channel", channel, "recipient", recipient,
			"resort", c.ResortName, "error", result.Err)
	} else {
		p.logger.Info("Delivery sent",
			"channel", channel, "recipient", recipient,
			"resort", c.ResortName, "provider_id", result.ProviderID)
	}

	if err := p.ledger.Record(ctx, rec); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	return nil
}
