package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider records what it is asked to send.
type stubProvider struct {
	name       string
	configured bool
	err        error
	sent       []*Notification
}

func (s *stubProvider) Name() string       { return s.name }
func (s *stubProvider) IsConfigured() bool { return s.configured }
func (s *stubProvider) Send(_ context.Context, n *Notification) error {
	s.sent = append(s.sent, n)
	return s.err
}

func TestManager(t *testing.T) {
	t.Run("unconfigured providers are not added", func(t *testing.T) {
		m := NewManager()
		m.AddProvider(&stubProvider{name: "off", configured: false})
		assert.False(t, m.HasProviders())
	})

	t.Run("send without providers is a no-op", func(t *testing.T) {
		assert.NoError(t, NewManager().Send(context.Background(), &Notification{Title: "x"}))
	})

	t.Run("fans out to every provider", func(t *testing.T) {
		a := &stubProvider{name: "a", configured: true}
		b := &stubProvider{name: "b", configured: true}
		m := NewManager()
		m.AddProvider(a)
		m.AddProvider(b)

		require.NoError(t, m.Send(context.Background(), &Notification{Title: "hello"}))
		require.Len(t, a.sent, 1)
		require.Len(t, b.sent, 1)
		assert.Equal(t, []string{"a", "b"}, m.ProviderNames())
	})

	t.Run("one failure does not stop the others", func(t *testing.T) {
		bad := &stubProvider{name: "bad", configured: true, err: errors.New("down")}
		good := &stubProvider{name: "good", configured: true}
		m := NewManager()
		m.AddProvider(bad)
		m.AddProvider(good)

		err := m.Send(context.Background(), &Notification{Title: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad")
		assert.Len(t, good.sent, 1)
	})
}

func TestSendBatchResult(t *testing.T) {
	send := func(t *testing.T, hydrated, skipped int, aborted bool) *Notification {
		t.Helper()
		p := &stubProvider{name: "p", configured: true}
		m := NewManager()
		m.AddProvider(p)
		require.NoError(t, m.SendBatchResult(context.Background(), hydrated, skipped, aborted, ""))
		require.Len(t, p.sent, 1)
		return p.sent[0]
	}

	t.Run("clean batch is info", func(t *testing.T) {
		n := send(t, 3, 0, false)
		assert.Equal(t, SeverityInfo, n.Severity)
		assert.Contains(t, n.Message, "3 cluster(s) hydrated")
	})

	t.Run("skips raise a warning", func(t *testing.T) {
		n := send(t, 2, 1, false)
		assert.Equal(t, SeverityWarning, n.Severity)
		assert.Equal(t, "1", n.Metadata["skipped"])
	})

	t.Run("aborted batch is an error", func(t *testing.T) {
		n := send(t, 1, 0, true)
		assert.Equal(t, SeverityError, n.Severity)
		assert.Equal(t, "Hydration Aborted", n.Title)
	})

	t.Run("detail is appended to the message", func(t *testing.T) {
		p := &stubProvider{name: "p", configured: true}
		m := NewManager()
		m.AddProvider(p)
		require.NoError(t, m.SendBatchResult(context.Background(), 1, 1, false, "c2: overlay missing"))
		assert.Contains(t, p.sent[0].Message, "c2: overlay missing")
	})
}
