package notify_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"
)

type fakeTransport struct {
	to, subject, text, html string
	err                     error
}

func (f *fakeTransport) SendMail(_ context.Context, to, subject, textBody, htmlBody string) error {
	f.to, f.subject, f.text, f.html = to, subject, textBody, htmlBody
	return f.err
}

func TestEmailNotifier_Send(t *testing.T) {
	transport := &fakeTransport{}
	n := notify.NewEmailNotifier(transport)
	assert.Equal(t, notify.ChannelEmail, n.Channel())

	result := n.Send(context.Background(), "founder@example.com", notify.Message{
		Title:     "Runway critically low",
		Body:      "Runway is 2.1 months.",
		Severity:  model.SeverityCritical,
		ActionURL: "https://app.example.com/alerts",
	})

	assert.True(t, result.Success)
	assert.Equal(t, "founder@example.com", transport.to)
	assert.Contains(t, transport.subject, "[CRITICAL]")
	assert.Contains(t, transport.subject, "Runway critically low")
	assert.Contains(t, transport.text, "View details: https://app.example.com/alerts")
	assert.Empty(t, transport.html)
}

func TestEmailNotifier_Send_TransportFailure(t *testing.T) {
	transport := &fakeTransport{err: errors.New("relay refused")}
	result := notify.NewEmailNotifier(transport).Send(context.Background(), "x@example.com", notify.Message{
		Severity: model.SeverityWarning,
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "relay refused")
}

func TestBuildWeeklyDigest(t *testing.T) {
	zero := time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)
	stats := notify.WeeklyStats{
		OrgName:    "Acme Inc",
		WeekStart:  time.Date(2025, time.May, 26, 0, 0, 0, 0, time.UTC),
		WeekEnd:    time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		CashOnHand: decimal.RequireFromString("210000"),
		Burn: model.BurnMetrics{
			GrossBurn: decimal.RequireFromString("30000"),
			NetBurn:   decimal.RequireFromString("23333"),
		},
		Runway: model.RunwayMetrics{Months: 9.0, ZeroDate: &zero},
		TopVendors: []notify.VendorTotal{
			{Vendor: "aws", Total: decimal.RequireFromString("5964")},
			{Vendor: "gusto <hr>", Total: decimal.RequireFromString("18000")},
		},
		Alerts: []model.ThresholdAlert{
			{Title: "Spend spike: aws", Message: "up 60%", Severity: model.SeverityWarning},
		},
	}

	digest := notify.BuildWeeklyDigest(stats)

	assert.Contains(t, digest.Subject, "$23333/mo net burn")
	assert.Contains(t, digest.Subject, "9.0 mo runway")
	assert.Contains(t, digest.Body, "Cash on hand:  $210000.00")
	assert.Contains(t, digest.Body, "aws")
	assert.Contains(t, digest.Body, "[WARNING] Spend spike: aws")
	assert.Contains(t, digest.HTML, "<h2>Burn report for Acme Inc</h2>")
	// Vendor names are escaped in the HTML variant.
	assert.NotContains(t, digest.HTML, "gusto <hr>")
	assert.Contains(t, digest.HTML, "gusto &lt;hr&gt;")
}

func TestBuildWeeklyDigest_IndefiniteRunway(t *testing.T) {
	stats := notify.WeeklyStats{
		OrgName: "Acme Inc",
		Burn: model.BurnMetrics{
			GrossBurn: decimal.RequireFromString("1000"),
			NetBurn:   decimal.RequireFromString("-4000"),
		},
		Runway: metricsIndefinite(),
	}

	digest := notify.BuildWeeklyDigest(stats)
	assert.Contains(t, digest.Subject, "indefinite runway")
	assert.NotContains(t, digest.Body, "Cash-out date")
}

func metricsIndefinite() model.RunwayMetrics {
	return model.RunwayMetrics{Months: math.Inf(1)}
}

func TestEmailNotifier_SendDigest(t *testing.T) {
	transport := &fakeTransport{}
	digest := notify.Digest{Subject: "Weekly burn report", Body: "text", HTML: "<p>html</p>"}

	result := notify.NewEmailNotifier(transport).SendDigest(context.Background(), "founder@example.com", digest)

	require.True(t, result.Success)
	assert.Equal(t, "Weekly burn report", transport.subject)
	assert.Equal(t, "text", transport.text)
	assert.Equal(t, "<p>html</p>", transport.html)
}
