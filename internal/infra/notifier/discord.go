package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"newsbrief/internal/usecase/digest"
)

// Discord embed limits.
const (
	maxTitleLength       = 256
	maxDescriptionLength = 4096

	// #5865F2
	discordBlueColor = 5793266
)

type DiscordWebhookPayload struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordNotifier posts announcements to a Discord webhook, limited to
// 30 requests per minute.
type DiscordNotifier struct {
	hook *webhook
}

func NewDiscordNotifier(cfg WebhookConfig) *DiscordNotifier {
	return &DiscordNotifier{hook: newWebhook("discord", cfg, 0.5, 3)}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Announce(ctx context.Context, a digest.Announcement) error {
	return d.hook.post(ctx, buildDiscordPayload(a))
}

func buildDiscordPayload(a digest.Announcement) DiscordWebhookPayload {
	var desc strings.Builder
	desc.WriteString(a.Insight)
	if len(a.Headlines) > 0 {
		desc.WriteString("\n\n")
		for _, h := range a.Headlines {
			fmt.Fprintf(&desc, "• [%s](%s)\n", h.Title, h.Link)
		}
	}

	return DiscordWebhookPayload{Embeds: []DiscordEmbed{{
		Title:       truncate(a.Subject, maxTitleLength, ""),
		Description: truncate(desc.String(), maxDescriptionLength, truncationSuffix),
		Color:       discordBlueColor,
		Footer: DiscordEmbedFooter{
			Text: fmt.Sprintf("기사 %d건 • 수신자 %d명", a.ArticleCount, a.Recipients),
		},
		Timestamp: a.Day.Format(time.RFC3339),
	}}}
}
