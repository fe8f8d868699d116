package notify

import (
	"time"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// IsInQuietHours reports whether now falls inside the user's quiet-hours
// window. The hour is taken in the user's configured timezone (UTC when the
// timezone is absent or unknown). A start hour greater than the end hour is
// an overnight window, e.g. 22-7 covers 22:00 through 06:59. No quiet-hours
// config means never quiet.
func IsInQuietHours(p Preferences, now time.Time) bool {
	if p.QuietHoursStart == nil || p.QuietHoursEnd == nil {
		return false
	}
	start, end := *p.QuietHoursStart, *p.QuietHoursEnd
	if start == end {
		return false
	}

	loc := time.UTC
	if p.Timezone != "" {
		if l, err := time.LoadLocation(p.Timezone); err == nil {
			loc = l
		}
	}
	hour := now.In(loc).Hour()

	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

// ShouldSend decides whether a message passes the user's preference gates:
// the message severity must reach MinSeverity, and during quiet hours only
// critical messages go through.
func ShouldSend(p Preferences, msg Message, now time.Time) bool {
	if !msg.Severity.AtLeast(p.MinSeverity) {
		return false
	}
	if msg.Severity != model.SeverityCritical && IsInQuietHours(p, now) {
		return false
	}
	return true
}

// RoutingPolicy maps a severity to the channels it may use. Severities
// absent from the policy route nowhere.
type RoutingPolicy map[model.Severity][]Channel

// DefaultRoutingPolicy routes critical alerts to every channel, warnings to
// Slack only, and keeps info alerts for in-app display.
func DefaultRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{
		model.SeverityCritical: {ChannelEmail, ChannelSlack, ChannelSMS},
		model.SeverityWarning:  {ChannelSlack},
	}
}

// TargetChannels returns the user's channels that are enabled, have a
// destination, and are allowed for the given severity by the policy.
func TargetChannels(p Preferences, policy RoutingPolicy, severity model.Severity) []ChannelConfig {
	allowed := make(map[Channel]bool, len(policy[severity]))
	for _, c := range policy[severity] {
		allowed[c] = true
	}

	var targets []ChannelConfig
	for _, c := range p.Channels {
		if c.Enabled && c.Destination != "" && allowed[c.Type] {
			targets = append(targets, c)
		}
	}
	return targets
}
