package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyflake/dailyflake/internal/delivery"
	"github.com/dailyflake/dailyflake/internal/report"
)

type fakeReportSource struct {
	rep *report.Report
	err error
}

func (f *fakeReportSource) Get(ctx context.Context, resortID int, date string) (*report.Report, error) {
	return f.rep, f.err
}

type fakeLedger struct {
	sent         map[Channel]bool
	sentErr      error
	checkedDates []string
	records      []*Record
	recordErr    error
}

func (f *fakeLedger) AlreadySent(ctx context.Context, userID, resortID int, channel Channel, date string) (bool, error) {
	f.checkedDates = append(f.checkedDates, date)
	return f.sent[channel], f.sentErr
}

func (f *fakeLedger) Record(ctx context.Context, rec *Record) error {
	f.records = append(f.records, rec)
	return f.recordErr
}

type fakeSMS struct {
	result delivery.Result
	sent   []string
}

func (f *fakeSMS) Send(ctx context.Context, to, body string) delivery.Result {
	f.sent = append(f.sent, body)
	return f.result
}

type fakeEmail struct {
	result   delivery.Result
	subjects []string
	bodies   []string
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, textBody string) delivery.Result {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, textBody)
	return f.result
}

func candidate() Candidate {
	return Candidate{
		SubscriptionID:   10,
		ResortID:         1,
		ResortName:       "Vail",
		NotificationTime: "07:00",
		UserID:           42,
		Email:            "skier@example.com",
		PhoneNumber:      "+13035551234",
		EmailEnabled:     true,
		SMSEnabled:       true,
	}
}

func okSMS() *fakeSMS {
	return &fakeSMS{result: delivery.Result{Success: true, ProviderID: "SM123"}}
}

func okEmail() *fakeEmail {
	return &fakeEmail{result: delivery.Result{Success: true, ProviderID: "MJ456"}}
}

func TestRunDeliversBothChannels(t *testing.T) {
	reports := &fakeReportSource{rep: &report.Report{
		Status: report.StatusSuccess, SMSSummary: `8" fresh`,
	}}
	ledger := &fakeLedger{sent: map[Channel]bool{}}
	sms, email := okSMS(), okEmail()
	p := NewPipeline(reports, ledger, sms, email, nil)

	require.NoError(t, p.Run(context.Background(), candidate(), "2026-01-15"))

	assert.Equal(t, []string{`Vail: 8" fresh`}, sms.sent)
	assert.Equal(t, []string{"Vail Snow Report - 2026-01-15"}, email.subjects)

	require.Len(t, ledger.records, 2)
	assert.Equal(t, ChannelSMS, ledger.records[0].Channel)
	assert.Equal(t, "sent", ledger.records[0].Status)
	assert.Equal(t, "SM123", ledger.records[0].ProviderID)
	assert.Equal(t, `Vail: 8" fresh`, ledger.records[0].Message)
	assert.Equal(t, ChannelEmail, ledger.records[1].Channel)
	assert.Equal(t, "sent", ledger.records[1].Status)
	assert.Equal(t, 42, ledger.records[1].UserID)
	// The audit row holds the delivered body, not the subject line.
	require.Len(t, email.bodies, 1)
	assert.Equal(t, email.bodies[0], ledger.records[1].Message)
	assert.Contains(t, ledger.records[1].Message, `8" fresh`)
}

func TestRunWitnessCarriesRunDate(t *testing.T) {
	reports := &fakeReportSource{rep: &report.Report{
		Status: report.StatusSuccess, SMSSummary: `8" fresh`,
	}}
	ledger := &fakeLedger{sent: map[Channel]bool{}}
	p := NewPipeline(reports, ledger, okSMS(), okEmail(), nil)

	// An evening run: in the reference zone it is still Jan 15 even though the
	// send timestamps land on Jan 16 UTC. Dedup check and witness write must
	// both use the run's day string so the next tick sees the row.
	const date = "2026-01-15"
	require.NoError(t, p.Run(context.Background(), candidate(), date))

	assert.Equal(t, []string{date, date}, ledger.checkedDates)
	require.Len(t, ledger.records, 2)
	for _, rec := range ledger.records {
		assert.Equal(t, date, rec.DeliveryDate)
	}
}

func TestRunMissingReportSendsFallback(t *testing.T) {
	reports := &fakeReportSource{rep: nil}
	ledger := &fakeLedger{sent: map[Channel]bool{}}
	sms := okSMS()
	p := NewPipeline(reports, ledger, sms, okEmail(), nil)

	c := candidate()
	c.EmailEnabled = false
	require.NoError(t, p.Run(context.Background(), c, "2026-01-15"))

	assert.Equal(t, []string{"Vail data not available"}, sms.sent)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, "sent", ledger.records[0].Status)
}

func TestRunChannelsAreIndependent(t *testing.T) {
	reports := &fakeReportSource{rep: &report.Report{
		Status: report.StatusSuccess, SMSSummary: `8" fresh`,
	}}
	ledger := &fakeLedger{sent: map[Channel]bool{}}
	sms := &fakeSMS{result: delivery.Result{Err: "twilio error 21211: invalid number"}}
	email := okEmail()
	p := NewPipeline(reports, ledger, sms, email, nil)

	// SMS fails, email still goes out; both attempts are logged.
	require.NoError(t, p.Run(context.Background(), candidate(), "2026-01-15"))

	require.Len(t, ledger.records, 2)
	assert.Equal(t, "failed", ledger.records[0].Status)
	assert.Contains(t, ledger.records[0].ErrorDetails, "21211")
	assert.Equal(t, "sent", ledger.records[1].Status)
	assert.Len(t, email.subjects, 1)
}

func TestRunDedupPerChannel(t *testing.T) {
	reports := &fakeReportSource{rep: &report.Report{
		Status: report.StatusSuccess, SMSSummary: `8" fresh`,
	}}
	ledger := &fakeLedger{sent: map[Channel]bool{ChannelSMS: true}}
	sms, email := okSMS(), okEmail()
	p := NewPipeline(reports, ledger, sms, email, nil)

	require.NoError(t, p.Run(context.Background(), candidate(), "2026-01-15"))

	// SMS already attempted today; only the email is sent and logged.
	assert.Empty(t, sms.sent)
	assert.Len(t, email.subjects, 1)
	require.Len(t, ledger.records, 1)
	assert.Equal(t, ChannelEmail, ledger.records[0].Channel)
}

func TestRunDisabledChannelsSkipped(t *testing.T) {
	reports := &fakeReportSource{rep: &report.Report{
		Status: report.StatusSuccess, SMSSummary: `8" fresh`,
	}}
	ledger := &fakeLedger{sent: map[Channel]bool{}}
	sms, email := okSMS(), okEmail()
	p := NewPipeline(reports, ledger, sms, email, nil)

	c := candidate()
	c.SMSEnabled = false
	c.EmailEnabled = false
	require.NoError(t, p.Run(context.Background(), c, "2026-01-15"))

	assert.Empty(t, sms.sent)
	assert.Empty(t, email.subjects)
	assert.Empty(t, ledger.records)
}

func TestRunStoreErrorsPropagate(t *testing.T) {
	t.Run("report lookup", func(t *testing.T) {
		reports := &fakeReportSource{err: errors.New("db down")}
		p := NewPipeline(reports, &fakeLedger{sent: map[Channel]bool{}}, okSMS(), okEmail(), nil)
		require.Error(t, p.Run(context.Background(), candidate(), "2026-01-15"))
	})

	t.Run("dedup check", func(t *testing.T) {
		ledger := &fakeLedger{sent: map[Channel]bool{}, sentErr: errors.New("db down")}
		p := NewPipeline(&fakeReportSource{}, ledger, okSMS(), okEmail(), nil)
		require.Error(t, p.Run(context.Background(), candidate(), "2026-01-15"))
	})

	t.Run("record write", func(t *testing.T) {
		ledger := &fakeLedger{sent: map[Channel]bool{}, recordErr: errors.New("db down")}
		p := NewPipeline(&fakeReportSource{}, ledger, okSMS(), okEmail(), nil)
		require.Error(t, p.Run(context.Background(), candidate(), "2026-01-15"))
	})
}
