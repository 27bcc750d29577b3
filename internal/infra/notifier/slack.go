package notifier

import (
	"context"
	"fmt"
	"strings"

	"newsbrief/internal/usecase/digest"
)

// Slack Block Kit limits.
const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	truncationSuffix     = "..."
)

// SlackWebhookPayload is an Incoming Webhook message using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`
	Blocks []SlackBlock `json:"blocks"`
}

type SlackBlock struct {
	Type     string            `json:"type"`
	Text     *SlackTextObject  `json:"text,omitempty"`
	Elements []SlackTextObject `json:"elements,omitempty"`
}

type SlackTextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SlackNotifier posts announcements to a Slack Incoming Webhook,
// limited to 1 request per second.
type SlackNotifier struct {
	hook *webhook
}

func NewSlackNotifier(cfg WebhookConfig) *SlackNotifier {
	return &SlackNotifier{hook: newWebhook("slack", cfg, 1.0, 1)}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Announce(ctx context.Context, a digest.Announcement) error {
	return s.hook.post(ctx, buildSlackPayload(a))
}

// buildSlackPayload renders a header section with the insight, one line
// per headline, and a context line with the counts.
func buildSlackPayload(a digest.Announcement) SlackWebhookPayload {
	fallback := truncate(fmt.Sprintf("%s (%s)", a.Subject, a.Day.Format(digest.DateLayout)), maxFallbackLength, truncationSuffix)

	var headlines strings.Builder
	for _, h := range a.Headlines {
		fmt.Fprintf(&headlines, "• <%s|%s>\n", h.Link, h.Title)
	}

	blocks := []SlackBlock{
		{
			Type: "section",
			Text: &SlackTextObject{
				Type: "mrkdwn",
				Text: truncate(fmt.Sprintf("*%s*\n\n%s", a.Subject, a.Insight), maxSectionTextLength, truncationSuffix),
			},
		},
	}
	if headlines.Len() > 0 {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackTextObject{Type: "mrkdwn", Text: truncate(headlines.String(), maxSectionTextLength, truncationSuffix)},
		})
	}
	blocks = append(blocks, SlackBlock{
		Type: "context",
		Elements: []SlackTextObject{{
			Type: "mrkdwn",
			Text: fmt.Sprintf("%s • 기사 %d건 • 수신자 %d명", a.Day.Format(digest.DateLayout), a.ArticleCount, a.Recipients),
		}},
	})

	return SlackWebhookPayload{Text: fallback, Blocks: blocks}
}
