package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/notify"
)

func hoursPtr(h int) *int { return &h }

func atHour(h int) time.Time {
	return time.Date(2025, time.June, 1, h, 30, 0, 0, time.UTC)
}

func TestIsInQuietHours_OvernightWindow(t *testing.T) {
	p := notify.Preferences{
		QuietHoursStart: hoursPtr(22),
		QuietHoursEnd:   hoursPtr(7),
	}

	assert.True(t, notify.IsInQuietHours(p, atHour(23)))
	assert.True(t, notify.IsInQuietHours(p, atHour(3)))
	assert.False(t, notify.IsInQuietHours(p, atHour(12)))
	assert.True(t, notify.IsInQuietHours(p, atHour(22)))  // start inclusive
	assert.False(t, notify.IsInQuietHours(p, atHour(7))) // end exclusive
}

func TestIsInQuietHours_DaytimeWindow(t *testing.T) {
	p := notify.Preferences{
		QuietHoursStart: hoursPtr(9),
		QuietHoursEnd:   hoursPtr(17),
	}

	assert.True(t, notify.IsInQuietHours(p, atHour(12)))
	assert.False(t, notify.IsInQuietHours(p, atHour(8)))
	assert.False(t, notify.IsInQuietHours(p, atHour(17)))
}

func TestIsInQuietHours_NoConfig(t *testing.T) {
	assert.False(t, notify.IsInQuietHours(notify.Preferences{}, atHour(3)))

	p := notify.Preferences{QuietHoursStart: hoursPtr(22)} // end missing
	assert.False(t, notify.IsInQuietHours(p, atHour(23)))
}

func TestIsInQuietHours_TimezoneConversion(t *testing.T) {
	// 20:00 UTC is 03:00 in Bangkok (UTC+7), inside a 22-7 window there.
	p := notify.Preferences{
		QuietHoursStart: hoursPtr(22),
		QuietHoursEnd:   hoursPtr(7),
		Timezone:        "Asia/Bangkok",
	}

	assert.True(t, notify.IsInQuietHours(p, atHour(20)))
	assert.False(t, notify.IsInQuietHours(p, atHour(5))) // 12:00 in Bangkok
}

func TestShouldSend_MinSeverityGate(t *testing.T) {
	p := notify.Preferences{MinSeverity: model.SeverityWarning}

	info := notify.Message{Severity: model.SeverityInfo}
	warning := notify.Message{Severity: model.SeverityWarning}

	assert.False(t, notify.ShouldSend(p, info, atHour(12)))
	assert.True(t, notify.ShouldSend(p, warning, atHour(12)))
}

func TestShouldSend_CriticalBypassesQuietHours(t *testing.T) {
	p := notify.Preferences{
		MinSeverity:     model.SeverityInfo,
		QuietHoursStart: hoursPtr(22),
		QuietHoursEnd:   hoursPtr(7),
	}

	critical := notify.Message{Severity: model.SeverityCritical}
	warning := notify.Message{Severity: model.SeverityWarning}

	assert.True(t, notify.ShouldSend(p, critical, atHour(23)))
	assert.False(t, notify.ShouldSend(p, warning, atHour(23)))
	assert.True(t, notify.ShouldSend(p, warning, atHour(12)))
}

func TestTargetChannels_RoutingAndEnablement(t *testing.T) {
	p := notify.Preferences{
		Channels: []notify.ChannelConfig{
			{Type: notify.ChannelEmail, Enabled: true, Destination: "founder@example.com"},
			{Type: notify.ChannelSlack, Enabled: true, Destination: "https://hooks.slack.com/x"},
			{Type: notify.ChannelSMS, Enabled: false, Destination: "+15550100"},
		},
	}
	policy := notify.DefaultRoutingPolicy()

	critical := notify.TargetChannels(p, policy, model.SeverityCritical)
	assert.Len(t, critical, 2) // sms disabled

	warning := notify.TargetChannels(p, policy, model.SeverityWarning)
	assert.Len(t, warning, 1)
	assert.Equal(t, notify.ChannelSlack, warning[0].Type)

	info := notify.TargetChannels(p, policy, model.SeverityInfo)
	assert.Empty(t, info)
}

func TestTargetChannels_MissingDestination(t *testing.T) {
	p := notify.Preferences{
		Channels: []notify.ChannelConfig{
			{Type: notify.ChannelSlack, Enabled: true, Destination: ""},
		},
	}

	targets := notify.TargetChannels(p, notify.DefaultRoutingPolicy(), model.SeverityWarning)
	assert.Empty(t, targets)
}
