package lesson

import "time"

// Handler receives session callbacks. Any field may be nil.
//
// Callbacks run on engine goroutines, one at a time and in order, and
// never after Close has returned. A callback may call engine controls
// such as SeekTo or Pause; the callbacks those produce are delivered
// after it returns. Callbacks must not block and must not call Close.
//
// Persisting progress is the caller's job. OnProgress and OnTimeUpdate
// fire on every tracker tick, so persistence should be debounced.
type Handler struct {
	OnProgress       func(watch, actual float64)
	OnPause          func(actual float64, current time.Duration)
	OnComplete       func()
	OnDurationChange func(duration time.Duration)
	OnTimeUpdate     func(current time.Duration)
	OnNotice         func(n Notice)
	OnPhaseChange    func(change PhaseChange)
}

// NoticeKind classifies user-visible notices.
type NoticeKind int

const (
	// NoticeRestricted: a seek past watched content was pulled back.
	NoticeRestricted NoticeKind = iota
	// NoticeCompleted: the completion threshold was crossed.
	NoticeCompleted
	// NoticeCommandFailed: a play/pause command gave up after retries.
	NoticeCommandFailed
	// NoticeError: the session moved to the Error phase.
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeRestricted:
		return "Restricted"
	case NoticeCompleted:
		return "Completed"
	case NoticeCommandFailed:
		return "CommandFailed"
	case NoticeError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Notice texts.
const (
	MessageRestricted = "You may only watch previously viewed content"
	MessageCompleted  = "Lesson complete. You can continue to the next lesson"
)

// Notice is a message meant for the learner.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error // set for NoticeCommandFailed and NoticeError
}

// PhaseChange is emitted when the session phase changes.
type PhaseChange struct {
	Previous Phase
	Current  Phase
}

// ProgressUpdate is emitted on every tracker tick.
type ProgressUpdate struct {
	Current          time.Duration
	Duration         time.Duration
	WatchPercentage  float64
	ActualPercentage float64
}
