package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyflake/dailyflake/internal/report"
	"github.com/dailyflake/dailyflake/internal/resort"
)

type fakeFetcher struct {
	content string
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	return f.content, f.err
}

type fakeExtractor struct {
	data report.Data
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, content, resortName string) (report.Data, error) {
	return f.data, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, data report.Data, resortName string) (string, error) {
	return f.summary, f.err
}

type fakeReportStore struct {
	exists    bool
	existsErr error
	upserted  []*report.Report
	upsertErr error
}

func (f *fakeReportStore) Exists(ctx context.Context, resortID int, date string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeReportStore) Upsert(ctx context.Context, r *report.Report) error {
	f.upserted = append(f.upserted, r)
	return f.upsertErr
}

var vail = resort.Resort{ID: 1, Name: "Vail", SnowReportURL: "https://vail.example/snow"}

func TestRunSuccessPersistsReport(t *testing.T) {
	store := &fakeReportStore{}
	p := New(
		&fakeFetcher{content: "page text"},
		&fakeExtractor{data: report.Data{NewSnowfall: 8, BaseDepth: 45, LiftsOpen: "12/15", Conditions: "excellent"}},
		&fakeSummarizer{summary: `8" fresh, 45" base, 12/15 lifts, excellent`},
		store, nil,
	)

	err := p.Run(context.Background(), vail, "2026-01-15")
	require.NoError(t, err)

	require.Len(t, store.upserted, 1)
	rep := store.upserted[0]
	assert.Equal(t, 1, rep.ResortID)
	assert.Equal(t, "2026-01-15", rep.ReportDate)
	assert.Equal(t, report.StatusSuccess, rep.Status)
	assert.Equal(t, `8" fresh, 45" base, 12/15 lifts, excellent`, rep.SMSSummary)
	assert.Equal(t, 8.0, rep.Data.NewSnowfall)
	assert.Empty(t, rep.ErrorMessage)
}

func TestRunSkipsWhenReportExists(t *testing.T) {
	fetcher := &fakeFetcher{content: "page text"}
	store := &fakeReportStore{exists: true}
	p := New(fetcher, &fakeExtractor{}, &fakeSummarizer{summary: "x"}, store, nil)

	err := p.Run(context.Background(), vail, "2026-01-15")
	require.NoError(t, err)

	// Dedup short-circuits before any collaborator runs.
	assert.Zero(t, fetcher.calls)
	assert.Empty(t, store.upserted)
}

func TestRunFetchFailureWritesFailedReport(t *testing.T) {
	store := &fakeReportStore{}
	p := New(
		&fakeFetcher{err: errors.New("HTTP 503")},
		&fakeExtractor{}, &fakeSummarizer{}, store, nil,
	)

	err := p.Run(context.Background(), vail, "2026-01-15")
	require.Error(t, err)

	// The failure is still recorded; the day is terminal for this resort.
	require.Len(t, store.upserted, 1)
	rep := store.upserted[0]
	assert.Equal(t, report.StatusFailed, rep.Status)
	assert.Empty(t, rep.SMSSummary)
	assert.Equal(t, report.Data{}, rep.Data)
	assert.Contains(t, rep.ErrorMessage, "HTTP 503")
}

func TestRunExtractFailureWritesFailedReport(t *testing.T) {
	store := &fakeReportStore{}
	p := New(
		&fakeFetcher{content: "page text"},
		&fakeExtractor{err: errors.New("no JSON object in model output")},
		&fakeSummarizer{}, store, nil,
	)

	err := p.Run(context.Background(), vail, "2026-01-15")
	require.Error(t, err)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, report.StatusFailed, store.upserted[0].Status)
	assert.Contains(t, store.upserted[0].ErrorMessage, "extract data")
}

func TestRunSummaryFailureWritesFailedReport(t *testing.T) {
	store := &fakeReportStore{}
	p := New(
		&fakeFetcher{content: "page text"},
		&fakeExtractor{data: report.Data{NewSnowfall: 2}},
		&fakeSummarizer{err: errors.New("messages API: HTTP 500")},
		store, nil,
	)

	err := p.Run(context.Background(), vail, "2026-01-15")
	require.Error(t, err)

	require.Len(t, store.upserted, 1)
	rep := store.upserted[0]
	assert.Equal(t, report.StatusFailed, rep.Status)
	// Partial extraction results are not kept on failure.
	assert.Equal(t, report.Data{}, rep.Data)
}

func TestRunExistsCheckFailure(t *testing.T) {
	store := &fakeReportStore{existsErr: errors.New("db down")}
	p := New(&fakeFetcher{}, &fakeExtractor{}, &fakeSummarizer{}, store, nil)

	err := p.Run(context.Background(), vail, "2026-01-15")
	require.Error(t, err)
	assert.Empty(t, store.upserted)
}
