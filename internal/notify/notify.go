// Package notify runs the per-subscription notification pipeline:
// report lookup → message composition → per-channel delivery → delivery log.
//
// Each (user, resort, channel) gets at most one delivery attempt per calendar
// day. The delivery log row written after every attempt, sent or failed, is
// both the audit trail and the dedup witness; there is no separate retry
// table, and a failed attempt is not retried until the next day.
package notify

import "time"

// Channel is a delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// maxSMSLength caps composed SMS messages in bytes. Longer messages are cut
// to 157 plus an ellipsis, so ASCII messages come out at exactly 160.
const maxSMSLength = 160

// Candidate is an active subscription joined with the owning user's delivery
// preferences, as returned by the candidate query. The window filter and
// dedup checks run downstream.
type Candidate struct {
	SubscriptionID   int
	ResortID         int
	ResortName       string
	NotificationTime string // "HH:MM" in the reference timezone
	UserID           int
	Email            string
	PhoneNumber      string
	EmailEnabled     bool
	SMSEnabled       bool // already gated on phone_verified by the query
}

// Record is one row of the append-only delivery log. DeliveryDate is the
// calendar day in the reference timezone, written by the pipeline; it is the
// dedup key, independent of the timezone sent_at is later read back in.
type Record struct {
	UserID       int
	ResortID     int
	Channel      Channel
	Recipient    string
	Message      string
	ProviderID   string
	Status       string // "sent" | "failed"
	ErrorDetails string
	DeliveryDate string // "YYYY-MM-DD" in the reference timezone
	SentAt       time.Time
}
