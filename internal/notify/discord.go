package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Discord embed colors (decimal format).
const (
	ColorInfo     = 0x3498db // Blue
	ColorWarning  = 0xf39c12 // Orange
	ColorError    = 0xe74c3c // Red
	ColorSuccess  = 0x2ecc71 // Green
	ColorCritical = 0x9b59b6 // Purple
)

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Footer      *discordFooter      `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordProvider sends notifications via Discord webhooks.
type DiscordProvider struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordProvider creates a new Discord provider. If webhookURL is
// empty, it reads from the DISCORD_WEBHOOK_URL environment variable.
func NewDiscordProvider(webhookURL string) *DiscordProvider {
	if webhookURL == "" {
		webhookURL = os.Getenv("DISCORD_WEBHOOK_URL")
	}

	return &DiscordProvider{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the provider name.
func (d *DiscordProvider) Name() string {
	return "discord"
}

// IsConfigured returns true if the webhook URL is set.
func (d *DiscordProvider) IsConfigured() bool {
	return d.webhookURL != ""
}

// Send posts a notification as a Discord embed.
func (d *DiscordProvider) Send(ctx context.Context, n *Notification) error {
	if !d.IsConfigured() {
		return nil
	}

	embed := discordEmbed{
		Title:       n.Title,
		Description: n.Message,
		Color:       severityToColor(n.Severity),
		Footer:      &discordFooter{Text: fmt.Sprintf("stevedore/%s", n.Source)},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	if len(n.Metadata) > 0 {
		embed.Fields = make([]discordEmbedField, 0, len(n.Metadata))
		for key, value := range n.Metadata {
			if value == "" {
				continue
			}
			embed.Fields = append(embed.Fields, discordEmbedField{
				Name:   key,
				Value:  truncateString(value, 1024), // Discord field limit.
				Inline: true,
			})
		}
	}

	body, err := json.Marshal(discordPayload{Embeds: []discordEmbed{embed}})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	// Discord returns 204 No Content on success.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

func severityToColor(severity Severity) int {
	switch severity {
	case SeverityInfo:
		return ColorSuccess
	case SeverityWarning:
		return ColorWarning
	case SeverityError:
		return ColorError
	case SeverityCritical:
		return ColorCritical
	default:
		return ColorInfo
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
