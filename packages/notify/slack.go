package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// SlackNotifier sends notifications to Slack via webhook
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	client     *resty.Client
	now        func() time.Time
}

// SlackOption is a functional option for SlackNotifier
type SlackOption func(*SlackNotifier)

func WithSlackChannel(channel string) SlackOption {
	return func(s *SlackNotifier) {
		s.channel = channel
	}
}

func WithSlackUsername(username string) SlackOption {
	return func(s *SlackNotifier) {
		s.username = username
	}
}

func WithSlackIconEmoji(emoji string) SlackOption {
	return func(s *SlackNotifier) {
		s.iconEmoji = emoji
	}
}

func WithSlackTimeout(d time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.client.SetTimeout(d)
	}
}

func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	s := &SlackNotifier{
		webhookURL: webhookURL,
		username:   "classifyprobe",
		iconEmoji:  ":mag:",
		client:     newWebhookClient(DefaultWebhookTimeout),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SlackNotifier) Name() string {
	return "slack"
}

type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	TS     int64        `json:"ts,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func (s *SlackNotifier) buildMessage(summary *RunSummary) slackMessage {
	color := "good"
	emoji := ":white_check_mark:"
	switch {
	case !summary.Success:
		color = "danger"
		emoji = ":x:"
	case summary.IsRecovery:
		emoji = ":tada:"
	case summary.Inconclusive > 0:
		color = "warning"
		emoji = ":warning:"
	}

	fields := []slackField{
		{Title: "Endpoint", Value: summary.Endpoint, Short: false},
		{Title: "Total", Value: fmt.Sprint(summary.Total), Short: true},
		{Title: "Passed", Value: fmt.Sprint(summary.Passed), Short: true},
		{Title: "Failed", Value: fmt.Sprint(summary.Failed), Short: true},
		{Title: "Inconclusive", Value: fmt.Sprint(summary.Inconclusive), Short: true},
		{Title: "Duration", Value: summary.Duration.Round(time.Millisecond).String(), Short: true},
	}
	if summary.Environment != "" {
		fields = append(fields, slackField{Title: "Environment", Value: summary.Environment, Short: true})
	}

	var text strings.Builder
	if len(summary.FailedCases) > 0 {
		text.WriteString("*Failed cases:*\n")
		for _, fc := range summary.FailedCases {
			fmt.Fprintf(&text, "• `%s` (%s)", fc.Name, fc.Reason)
			if fc.Message != "" {
				fmt.Fprintf(&text, ": %s", fc.Message)
			}
			text.WriteString("\n")
		}
	}

	return slackMessage{
		Channel:   s.channel,
		Username:  s.username,
		IconEmoji: s.iconEmoji,
		Attachments: []slackAttachment{{
			Color:  color,
			Title:  fmt.Sprintf("%s %s", emoji, summary.headline()),
			Text:   text.String(),
			Fields: fields,
			Footer: "classifyprobe",
			TS:     s.now().Unix(),
		}},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, summary *RunSummary) error {
	return postJSON(ctx, s.client, "slack", s.webhookURL, s.buildMessage(summary), 200)
}
