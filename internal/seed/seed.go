// Package seed installs the initial resort list.
package seed

import (
	"context"
	"log/slog"

	"github.com/dailyflake/dailyflake/internal/resort"
)

// Resorts is the starting lineup. Existing rows are left untouched, so
// seeding is safe to repeat.
var Resorts = []resort.Resort{
	{Name: "Vail", SnowReportURL: "https://www.vail.com/the-mountain/mountain-conditions/snow-and-weather-report.aspx", ScrapeTime: "05:30"},
	{Name: "Breckenridge", SnowReportURL: "https://www.breckenridge.com/the-mountain/mountain-conditions/snow-and-weather-report.aspx", ScrapeTime: "05:30"},
	{Name: "Keystone", SnowReportURL: "https://www.keystoneresort.com/the-mountain/mountain-conditions/snow-and-weather-report.aspx", ScrapeTime: "05:30"},
	{Name: "Aspen Snowmass", SnowReportURL: "https://www.aspensnowmass.com/while-you-are-here/mountain-report", ScrapeTime: "05:30"},
	{Name: "Steamboat", SnowReportURL: "https://www.steamboat.com/the-mountain/mountain-report", ScrapeTime: "05:30"},
}

// Run upserts the seed resorts and returns how many were newly created.
func Run(ctx context.Context, store *resort.Store, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	created := 0
	for i := range Resorts {
		r := Resorts[i]
		wasCreated, err := store.UpsertByName(ctx, &r)
		if err != nil {
			return created, err
		}
		if wasCreated {
			created++
			logger.Info("Seeded resort", "name", r.Name, "scrape_time", r.ScrapeTime)
		} else {
			logger.Info("Resort already present", "name", r.Name)
		}
	}
	return created, nil
}
