package notify

import (
	"errors"
	"sync"

	"github.com/llehouerou/lessongate/internal/lesson"
)

const (
	restrictedTimeout = 3000
	completedTimeout  = 8000

	categoryRestricted = "lessongate.restricted"
	categoryCompleted  = "transfer.complete"
	categoryError      = "transfer.error"
)

// FromNotice builds the notification for a lesson notice. title is the
// lesson title shown as the summary.
func FromNotice(n lesson.Notice, title string) Notification {
	out := Notification{
		Title:   title,
		Body:    n.Message,
		Icon:    "video-x-generic",
		Timeout: -1,
		Urgency: UrgencyNormal,
	}
	switch n.Kind {
	case lesson.NoticeRestricted:
		out.Category = categoryRestricted
		out.Urgency = UrgencyLow
		out.Timeout = restrictedTimeout
	case lesson.NoticeCompleted:
		out.Category = categoryCompleted
		out.Timeout = completedTimeout
	case lesson.NoticeError:
		out.Category = categoryError
		out.Urgency = UrgencyCritical
		out.Timeout = 0
	case lesson.NoticeCommandFailed:
		out.Category = categoryError
	}
	return out
}

// Forwarder sends lesson notices as desktop notifications. Each notice
// kind replaces its previous popup, so repeated restricted seeks show
// one notification rather than a stack.
type Forwarder struct {
	n     Notifier
	title string

	mu   sync.Mutex
	last map[lesson.NoticeKind]uint32
}

// NewForwarder creates a forwarder for the lesson with the given title.
func NewForwarder(n Notifier, title string) *Forwarder {
	return &Forwarder{n: n, title: title, last: make(map[lesson.NoticeKind]uint32)}
}

// Send delivers a notice. Errors are returned but never fatal to playback.
func (f *Forwarder) Send(n lesson.Notice) error {
	notif := FromNotice(n, f.title)

	f.mu.Lock()
	notif.ReplacesID = f.last[n.Kind]
	f.mu.Unlock()

	id, err := f.n.Notify(notif)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.last[n.Kind] = id
	f.mu.Unlock()
	return nil
}

// Dismiss closes the popups still showing for the given kinds.
func (f *Forwarder) Dismiss(kinds ...lesson.NoticeKind) error {
	f.mu.Lock()
	ids := make([]uint32, 0, len(kinds))
	for _, k := range kinds {
		if id := f.last[k]; id != 0 {
			ids = append(ids, id)
			delete(f.last, k)
		}
	}
	f.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := f.n.Dismiss(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
