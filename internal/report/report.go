// Package report holds the per-day snow report model and its Postgres store.
//
// A report is keyed by (resort, report date) and is written exactly once per
// day by the scrape pipeline, success or failure. Its existence is the
// scrape pipeline's dedup witness: a failed scrape is terminal until the next
// calendar day.
package report

import "time"

// Status is the outcome of a scrape attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Data is the structured snow report extracted from a resort page. The field
// schema is owned by the extraction collaborator; missing values arrive
// normalized to 0 or "unknown".
type Data struct {
	NewSnowfall float64 `json:"newSnowfall"` // inches in last 24h
	BaseDepth   float64 `json:"baseDepth"`   // total base in inches
	LiftsOpen   string  `json:"liftsOpen"`   // "X/Y", "all", or "unknown"
	Conditions  string  `json:"conditions"`  // excellent/good/fair/poor/unknown
}

// Report is one day's captured snow report for a resort.
type Report struct {
	ID           int       `json:"id"`
	ResortID     int       `json:"resort_id"`
	ReportDate   string    `json:"report_date"` // "YYYY-MM-DD" in the reference timezone
	Data         Data      `json:"report_data"`
	SMSSummary   string    `json:"sms_summary"` // empty when scrape failed
	Status       Status    `json:"scrape_status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Usable reports whether a report carries content the notify pipeline can
// deliver. Absent, failed, or summary-less reports fall back to the
// "data not available" message.
func (r *Report) Usable() bool {
	return r != nil && r.Status == StatusSuccess && r.SMSSummary != ""
}
