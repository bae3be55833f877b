// Package notify shows lesson notices as desktop notifications, over
// D-Bus on Linux and as a no-op elsewhere.
//
// Forwarder maps engine notices (restricted seeks, completion, failures)
// to notifications and keeps one popup per notice kind.
package notify

// Urgency is the freedesktop urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title    string // Summary text (required)
	Body     string
	Icon     string // icon name or path
	Category string // freedesktop category hint, empty for none
	Timeout  int32  // ms, -1 = server default, 0 = never expire
	// ReplacesID updates an existing popup in place when non-zero.
	ReplacesID uint32
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its id. A notifier that cannot reach a
	// notification server returns 0 and no error.
	Notify(n Notification) (uint32, error)
	// Dismiss closes a shown notification.
	Dismiss(id uint32) error
}
