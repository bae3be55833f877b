//go:build linux

package notify

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionNotifier returns a notifier bound to the real session bus, or
// skips when none is available.
func sessionNotifier(t *testing.T) Notifier {
	t.Helper()
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no D-Bus session available")
	}
	n, err := New()
	require.NoError(t, err)
	if _, ok := n.(discard); ok {
		t.Skip("session bus unreachable")
	}
	return n
}

func TestDesktop_NotifyAndReplace(t *testing.T) {
	n := sessionNotifier(t)

	first, err := n.Notify(Notification{
		Title:    "Intro",
		Body:     "You may only watch previously viewed content",
		Category: categoryRestricted,
		Timeout:  1000,
		Urgency:  UrgencyLow,
	})
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := n.Notify(Notification{
		Title:      "Intro",
		Body:       "Lesson complete",
		Timeout:    1000,
		ReplacesID: first,
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.NoError(t, n.Dismiss(second))
}

func TestDiscard(t *testing.T) {
	var n Notifier = discard{}
	id, err := n.Notify(Notification{Title: "Intro"})
	assert.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, n.Dismiss(7))
}
