package notify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/dailyflake/dailyflake/internal/report"
)

func successReport(summary string) *report.Report {
	return &report.Report{
		ResortID:   1,
		ReportDate: "2026-01-15",
		Data:       report.Data{NewSnowfall: 8, BaseDepth: 45, LiftsOpen: "12/15", Conditions: "excellent"},
		SMSSummary: summary,
		Status:     report.StatusSuccess,
	}
}

func TestComposeSMS(t *testing.T) {
	t.Run("normal report", func(t *testing.T) {
		msg := ComposeSMS("Vail", successReport(`8" fresh, 45" base, 12/15 lifts, excellent`))
		assert.Equal(t, `Vail: 8" fresh, 45" base, 12/15 lifts, excellent`, msg)
	})

	t.Run("nil report falls back", func(t *testing.T) {
		assert.Equal(t, "Vail data not available", ComposeSMS("Vail", nil))
	})

	t.Run("failed report falls back", func(t *testing.T) {
		rep := &report.Report{Status: report.StatusFailed, ErrorMessage: "HTTP 503"}
		assert.Equal(t, "Keystone data not available", ComposeSMS("Keystone", rep))
	})

	t.Run("empty summary falls back", func(t *testing.T) {
		rep := successReport("")
		assert.Equal(t, "Vail data not available", ComposeSMS("Vail", rep))
	})

	t.Run("long message truncated to exactly 160", func(t *testing.T) {
		long := strings.Repeat("deep powder ", 20) // well past the cap
		msg := ComposeSMS("Vail", successReport(long))
		assert.Len(t, msg, 160)
		assert.True(t, strings.HasSuffix(msg, "..."))
		assert.Equal(t, "Vail: "+long[:151], msg[:157])
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		// Each é is two bytes, so with the "Vail: " prefix the byte cap lands
		// mid-rune; the cut must back up rather than emit invalid UTF-8.
		long := strings.Repeat("é", 120)
		msg := ComposeSMS("Vail", successReport(long))
		assert.True(t, utf8.ValidString(msg))
		assert.LessOrEqual(t, len(msg), 160)
		assert.True(t, strings.HasSuffix(msg, "..."))
	})

	t.Run("message at exactly 160 untouched", func(t *testing.T) {
		summary := strings.Repeat("x", 160-len("Vail: "))
		msg := ComposeSMS("Vail", successReport(summary))
		assert.Len(t, msg, 160)
		assert.False(t, strings.HasSuffix(msg, "..."))
	})
}

func TestComposeEmail(t *testing.T) {
	t.Run("normal report", func(t *testing.T) {
		subject, body := ComposeEmail("Vail", "2026-01-15", successReport(`8" fresh`))
		assert.Equal(t, "Vail Snow Report - 2026-01-15", subject)
		assert.Contains(t, body, `New Snow (24hr): 8"`)
		assert.Contains(t, body, `Base Depth: 45"`)
		assert.Contains(t, body, "Lifts Open: 12/15")
		assert.Contains(t, body, "Conditions: excellent")
		assert.Contains(t, body, `8" fresh`)
	})

	t.Run("missing report falls back", func(t *testing.T) {
		subject, body := ComposeEmail("Vail", "2026-01-15", nil)
		assert.Equal(t, "Vail Snow Report - 2026-01-15", subject)
		assert.Contains(t, body, "Vail data not available")
	})
}
