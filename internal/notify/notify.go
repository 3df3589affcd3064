// Package notify reports hydration batch results to external channels.
package notify

import (
	"context"
	"errors"
	"fmt"
)

// Severity levels for notifications.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Notification represents a message to send.
type Notification struct {
	Title    string            // Short title/subject
	Message  string            // Full message body
	Severity Severity          // Notification severity
	Source   string            // What generated this (e.g., "hydrate", "snapshot")
	Metadata map[string]string // Additional context (cluster counts, commit, etc.)
}

// Provider interface for notification backends.
type Provider interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
	IsConfigured() bool
}

// Manager fans notifications out to the configured providers.
type Manager struct {
	providers []Provider
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{providers: make([]Provider, 0)}
}

// AddProvider adds a provider if it is configured.
func (m *Manager) AddProvider(p Provider) {
	if p.IsConfigured() {
		m.providers = append(m.providers, p)
	}
}

// Send delivers a notification to every configured provider. Returns an
// aggregated error if any provider fails.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if len(m.providers) == 0 {
		return nil
	}

	var errs []error
	for _, p := range m.providers {
		if err := p.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify errors: %w", errors.Join(errs...))
	}
	return nil
}

// HasProviders returns true if at least one provider is configured.
func (m *Manager) HasProviders() bool {
	return len(m.providers) > 0
}

// ProviderNames returns the names of all configured providers.
func (m *Manager) ProviderNames() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// SendBatchResult reports a finished hydration batch. Severity scales
// with the failure mix: all hydrated is info, skips are a warning, and
// an aborted batch is an error.
func (m *Manager) SendBatchResult(ctx context.Context, hydrated, skipped int, aborted bool, detail string) error {
	title := "Hydration Complete"
	severity := SeverityInfo
	switch {
	case aborted:
		title = "Hydration Aborted"
		severity = SeverityError
	case skipped > 0:
		title = "Hydration Complete With Skips"
		severity = SeverityWarning
	}

	msg := fmt.Sprintf("%d cluster(s) hydrated, %d skipped", hydrated, skipped)
	if detail != "" {
		msg += "\n" + detail
	}

	return m.Send(ctx, &Notification{
		Title:    title,
		Message:  msg,
		Severity: severity,
		Source:   "hydrate",
		Metadata: map[string]string{
			"hydrated": fmt.Sprintf("%d", hydrated),
			"skipped":  fmt.Sprintf("%d", skipped),
		},
	})
}

// SendRollback reports a snapshot restore.
func (m *Manager) SendRollback(ctx context.Context, snapshotName string) error {
	return m.Send(ctx, &Notification{
		Title:    "Output Rolled Back",
		Message:  fmt.Sprintf("Output directory restored from %s", snapshotName),
		Severity: SeverityWarning,
		Source:   "snapshot",
		Metadata: map[string]string{"snapshot": snapshotName},
	})
}
