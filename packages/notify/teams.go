package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TeamsNotifier sends Adaptive Card notifications to Microsoft Teams.
type TeamsNotifier struct {
	webhookURL string
	client     *resty.Client
	now        func() time.Time
}

// TeamsOption is a functional option for TeamsNotifier
type TeamsOption func(*TeamsNotifier)

func WithTeamsTimeout(d time.Duration) TeamsOption {
	return func(t *TeamsNotifier) {
		t.client.SetTimeout(d)
	}
}

func NewTeamsNotifier(webhookURL string, opts ...TeamsOption) *TeamsNotifier {
	t := &TeamsNotifier{
		webhookURL: webhookURL,
		client:     newWebhookClient(DefaultWebhookTimeout),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TeamsNotifier) Name() string {
	return "teams"
}

type teamsMessage struct {
	Type        string      `json:"type"`
	Attachments []teamsCard `json:"attachments"`
}

type teamsCard struct {
	ContentType string           `json:"contentType"`
	ContentURL  *string          `json:"contentUrl"`
	Content     teamsCardContent `json:"content"`
}

type teamsCardContent struct {
	Schema  string       `json:"$schema"`
	Type    string       `json:"type"`
	Version string       `json:"version"`
	Body    []teamsBlock `json:"body"`
}

type teamsBlock struct {
	Type      string        `json:"type"`
	Size      string        `json:"size,omitempty"`
	Weight    string        `json:"weight,omitempty"`
	Text      string        `json:"text,omitempty"`
	Color     string        `json:"color,omitempty"`
	Wrap      bool          `json:"wrap,omitempty"`
	Columns   []teamsColumn `json:"columns,omitempty"`
	Facts     []teamsFact   `json:"facts,omitempty"`
	Spacing   string        `json:"spacing,omitempty"`
	Separator bool          `json:"separator,omitempty"`
}

type teamsColumn struct {
	Type  string       `json:"type"`
	Width string       `json:"width"`
	Items []teamsBlock `json:"items"`
}

type teamsFact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

func countColumn(label string, n int, color string) teamsColumn {
	return teamsColumn{
		Type:  "Column",
		Width: "stretch",
		Items: []teamsBlock{
			{Type: "TextBlock", Text: "**" + label + "**", Wrap: true},
			{Type: "TextBlock", Text: fmt.Sprint(n), Color: color, Wrap: true},
		},
	}
}

func (t *TeamsNotifier) buildMessage(summary *RunSummary) teamsMessage {
	color := "good"
	if !summary.Success {
		color = "attention"
	} else if summary.Inconclusive > 0 {
		color = "warning"
	}

	facts := []teamsFact{
		{Title: "Endpoint", Value: summary.Endpoint},
		{Title: "Duration", Value: summary.Duration.Round(time.Millisecond).String()},
	}
	if summary.Environment != "" {
		facts = append(facts, teamsFact{Title: "Environment", Value: summary.Environment})
	}

	body := []teamsBlock{
		{Type: "TextBlock", Size: "Large", Weight: "Bolder", Text: summary.headline(), Color: color},
		{Type: "FactSet", Facts: facts},
		{
			Type:      "ColumnSet",
			Separator: true,
			Spacing:   "Medium",
			Columns: []teamsColumn{
				countColumn("Total", summary.Total, ""),
				countColumn("Passed", summary.Passed, "good"),
				countColumn("Failed", summary.Failed, "attention"),
				countColumn("Inconclusive", summary.Inconclusive, "warning"),
			},
		},
	}

	if len(summary.FailedCases) > 0 {
		body = append(body, teamsBlock{
			Type:      "TextBlock",
			Text:      "**Failed cases:**",
			Separator: true,
			Spacing:   "Medium",
		})
		for _, fc := range summary.FailedCases {
			text := fmt.Sprintf("- `%s` (%s)", fc.Name, fc.Reason)
			if fc.Message != "" {
				text += ": " + fc.Message
			}
			body = append(body, teamsBlock{Type: "TextBlock", Text: text, Wrap: true})
		}
	}

	body = append(body, teamsBlock{
		Type:      "TextBlock",
		Text:      fmt.Sprintf("_classifyprobe - %s_", t.now().Format(time.RFC3339)),
		Separator: true,
		Spacing:   "Medium",
	})

	return teamsMessage{
		Type: "message",
		Attachments: []teamsCard{{
			ContentType: "application/vnd.microsoft.card.adaptive",
			Content: teamsCardContent{
				Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
				Type:    "AdaptiveCard",
				Version: "1.2",
				Body:    body,
			},
		}},
	}
}

func (t *TeamsNotifier) Notify(ctx context.Context, summary *RunSummary) error {
	return postJSON(ctx, t.client, "teams", t.webhookURL, t.buildMessage(summary), 200, 202)
}
