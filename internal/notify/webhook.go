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

// webhookPayload is the generic JSON body posted to a plain webhook.
type webhookPayload struct {
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Severity string            `json:"severity"`
	Source   string            `json:"source"`
	Time     string            `json:"time"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// WebhookProvider posts notifications as JSON to an arbitrary endpoint.
type WebhookProvider struct {
	url    string
	client *http.Client
}

// NewWebhookProvider creates a generic webhook provider. If url is empty,
// it reads from the STEVEDORE_WEBHOOK_URL environment variable.
func NewWebhookProvider(url string) *WebhookProvider {
	if url == "" {
		url = os.Getenv("STEVEDORE_WEBHOOK_URL")
	}

	return &WebhookProvider{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the provider name.
func (w *WebhookProvider) Name() string {
	return "webhook"
}

// IsConfigured returns true if the endpoint URL is set.
func (w *WebhookProvider) IsConfigured() bool {
	return w.url != ""
}

// Send posts the notification.
func (w *WebhookProvider) Send(ctx context.Context, n *Notification) error {
	if !w.IsConfigured() {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Title:    n.Title,
		Message:  n.Message,
		Severity: string(n.Severity),
		Source:   n.Source,
		Time:     time.Now().UTC().Format(time.RFC3339),
		Metadata: n.Metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
