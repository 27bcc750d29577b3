// Package notifier posts digest announcements to chat webhooks. Slack and
// Discord are supported; both implement digest.Announcer.
package notifier

import (
	"time"

	"newsbrief/internal/pkg/config"
	"newsbrief/internal/usecase/digest"
)

// WebhookConfig configures one chat channel. A channel without a webhook
// URL is disabled.
type WebhookConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Enabled reports whether a webhook URL is set.
func (c WebhookConfig) Enabled() bool { return c.WebhookURL != "" }

// Config holds every supported channel.
type Config struct {
	Slack   WebhookConfig
	Discord WebhookConfig
}

// LoadConfig reads SLACK_WEBHOOK_URL, DISCORD_WEBHOOK_URL and
// NOTIFY_TIMEOUT. Webhook URLs embed a token and are read as secrets.
func LoadConfig(loader *config.Loader) Config {
	timeout := loader.Duration("NOTIFY_TIMEOUT", 10*time.Second, config.DurationRange(time.Second, time.Minute))
	return Config{
		Slack:   WebhookConfig{WebhookURL: loader.Secret("SLACK_WEBHOOK_URL"), Timeout: timeout},
		Discord: WebhookConfig{WebhookURL: loader.Secret("DISCORD_WEBHOOK_URL"), Timeout: timeout},
	}
}

// Announcers returns the enabled channels.
func Announcers(cfg Config) []digest.Announcer {
	var out []digest.Announcer
	if cfg.Slack.Enabled() {
		out = append(out, NewSlackNotifier(cfg.Slack))
	}
	if cfg.Discord.Enabled() {
		out = append(out, NewDiscordNotifier(cfg.Discord))
	}
	return out
}
