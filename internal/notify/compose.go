package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dailyflake/dailyflake/internal/report"
)

// ComposeSMS builds the SMS text for a resort's report. An absent, failed, or
// summary-less report yields the fallback message. Messages over 160 bytes
// are truncated to 157 plus "...", backing up to a rune boundary so the
// result is never invalid UTF-8.
func ComposeSMS(resortName string, rep *report.Report) string {
	if !rep.Usable() {
		return resortName + " data not available"
	}

	msg := resortName + ": " + rep.SMSSummary
	if len(msg) > maxSMSLength {
		cut := maxSMSLength - 3
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}

// ComposeEmail builds the subject and plain-text body for a resort's report.
// The body mirrors the SMS fallback rule when no usable report exists.
func ComposeEmail(resortName, date string, rep *report.Report) (subject, body string) {
	subject = fmt.Sprintf("%s Snow Report - %s", resortName, date)

	if !rep.Usable() {
		return subject, resortName + " data not available\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - Daily Snow Report\n\n", resortName)
	b.WriteString("Today's Conditions:\n\n")
	fmt.Fprintf(&b, "New Snow (24hr): %g\"\n", rep.Data.NewSnowfall)
	fmt.Fprintf(&b, "Base Depth: %g\"\n", rep.Data.BaseDepth)
	fmt.Fprintf(&b, "Lifts Open: %s\n", rep.Data.LiftsOpen)
	fmt.Fprintf(&b, "Conditions: %s\n", rep.Data.Conditions)
	fmt.Fprintf(&b, "\n%s\n", rep.SMSSummary)
	return subject, b.String()
}
