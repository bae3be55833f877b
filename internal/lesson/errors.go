package lesson

import (
	"errors"
	"fmt"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/errmsg"
)

// Sentinel errors; every *Error matches exactly one of the first four.
var (
	ErrAdapterInit      = errors.New("player unavailable")
	ErrAdapterCommand   = errors.New("player did not respond")
	ErrInvalidSource    = errors.New("invalid video reference")
	ErrProviderPlayback = errors.New("provider playback failure")

	ErrClosed         = errors.New("lesson session closed")
	ErrNotStarted     = errors.New("lesson session not started")
	ErrAlreadyStarted = errors.New("lesson session already started")
	ErrRate           = errors.New("unsupported playback rate")
)

// Kind classifies session errors.
type Kind int

const (
	KindAdapterInit Kind = iota
	KindAdapterCommand
	KindInvalidSource
	KindProviderPlayback
)

func (k Kind) sentinel() error {
	switch k {
	case KindAdapterInit:
		return ErrAdapterInit
	case KindAdapterCommand:
		return ErrAdapterCommand
	case KindInvalidSource:
		return ErrInvalidSource
	default:
		return ErrProviderPlayback
	}
}

// Error is a classified session failure.
type Error struct {
	Kind Kind
	Op   errmsg.Op
	Code adapter.ErrorCode // provider code for KindProviderPlayback
	Err  error
}

func (e *Error) Error() string {
	cause := e.Err
	if cause == nil {
		cause = e.Kind.sentinel()
	}
	if e.Kind == KindProviderPlayback && e.Code != adapter.CodeNone {
		return fmt.Sprintf("%s: %v (code %d)", e.Op, cause, int(e.Code))
	}
	return fmt.Sprintf("%s: %v", e.Op, cause)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// Fatal reports whether the session cannot recover without a new source.
// Invalid sources stay broken until the learner retries by hand; every
// other kind is worth an automatic or one-click retry.
func (e *Error) Fatal() bool {
	return e.Kind == KindInvalidSource
}

// Message returns the user-facing text for the error.
func (e *Error) Message() string {
	switch {
	case e.Kind == KindProviderPlayback:
		return errmsg.Format(e.Op, errors.New(e.Code.String()))
	case e.Err != nil:
		return errmsg.Format(e.Op, e.Err)
	default:
		return errmsg.Format(e.Op, e.Kind.sentinel())
	}
}
