// Package resort holds the resort model and its Postgres store. Resorts are
// created and edited through the admin API; the job core only reads them.
package resort

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Resort is a ski resort whose snow report is scraped once per day.
type Resort struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	SnowReportURL string    `json:"snow_report_url"`
	ScrapeTime    string    `json:"scrape_time"` // "HH:MM" in the reference timezone
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidateTargetTime checks that a target time is a valid 24-hour "HH:MM"
// string. Shared by resort scrape times and subscription notification times.
func ValidateTargetTime(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return fmt.Errorf("target time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return fmt.Errorf("target time %q: hour out of range", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return fmt.Errorf("target time %q: minute out of range", s)
	}
	return nil
}
