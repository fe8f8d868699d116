// Package notify filters alerts against user notification preferences and
// fans them out to delivery channels.
package notify

import (
	"context"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// Channel identifies a delivery medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSlack Channel = "slack"
	ChannelSMS   Channel = "sms"
)

// Message is the channel-agnostic notification payload.
type Message struct {
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Severity  model.Severity `json:"severity"`
	ActionURL string         `json:"action_url,omitempty"`
}

// Result records the outcome of one delivery attempt. Channel errors are
// stringified into Error rather than returned, so a caller can aggregate
// partial failures across channels.
type Result struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// Notifier delivers a message to one destination on its channel. Send always
// returns a Result, never panics, and must be safe for concurrent use.
type Notifier interface {
	Channel() Channel
	Send(ctx context.Context, destination string, msg Message) Result
}

// ChannelConfig is one user-configured delivery channel.
type ChannelConfig struct {
	Type        Channel `json:"type"`
	Enabled     bool    `json:"enabled"`
	Destination string  `json:"destination"` // webhook URL, email address, or phone number
}

// Preferences are a user's notification settings, read-only to this package.
// Quiet hours are local hours in Timezone; a nil start or end disables them.
type Preferences struct {
	Channels        []ChannelConfig `json:"channels"`
	MinSeverity     model.Severity  `json:"min_severity"`
	QuietHoursStart *int            `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   *int            `json:"quiet_hours_end,omitempty"`
	Timezone        string          `json:"timezone,omitempty"`
}

// MessageFromAlert converts a threshold alert into a notification payload.
func MessageFromAlert(a model.ThresholdAlert, actionURL string) Message {
	return Message{
		Title:     a.Title,
		Body:      a.Message,
		Severity:  a.Severity,
		ActionURL: actionURL,
	}
}
