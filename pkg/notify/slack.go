package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/finsight-hq/burnwatch/pkg/model"
)

// SlackNotifier posts Block Kit messages to per-user incoming webhooks. The
// destination passed to Send is the webhook URL.
type SlackNotifier struct {
	client *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier() *SlackNotifier {
	return &SlackNotifier{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackNotifier) Channel() Channel { return ChannelSlack }

func (s *SlackNotifier) Send(ctx context.Context, webhookURL string, msg Message) Result {
	fail := func(errMsg string) Result {
		return Result{Channel: ChannelSlack, Error: errMsg}
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: severityEmoji(msg.Severity) + " " + msg.Title, Emoji: true},
		},
		{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: msg.Body},
		},
	}
	if msg.ActionURL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{{
				Type: "button",
				Text: &slackText{Type: "plain_text", Text: "View details", Emoji: true},
				URL:  msg.ActionURL,
			}},
		})
	}

	body, err := json.Marshal(slackPayload{Blocks: blocks})
	if err != nil {
		return fail(fmt.Sprintf("marshal slack payload: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Sprintf("create slack request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fail(fmt.Sprintf("send slack notification: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(fmt.Sprintf("Slack API error: %d", resp.StatusCode))
	}
	return Result{Channel: ChannelSlack, Success: true}
}

func severityEmoji(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return "🚨"
	case model.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackElement struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
	URL  string     `json:"url,omitempty"`
}
