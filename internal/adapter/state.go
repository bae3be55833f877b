// internal/adapter/state.go
package adapter

import "fmt"

// State is the player state as reported by the provider.
//
//	Unstarted ──cue──▶ Cued ──play──▶ Playing ◀──▶ Paused
//	                                     │  ▲
//	                              stall  ▼  │ resume
//	                                  Buffering
//	Playing ──reach end──▶ Ended
//
// Any state can move to Errored when the provider reports a failure.
type State int

const (
	Unstarted State = iota
	Cued
	Playing
	Paused
	Buffering
	Ended
	Errored
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Unstarted:
		return "Unstarted"
	case Cued:
		return "Cued"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	case Buffering:
		return "Buffering"
	case Ended:
		return "Ended"
	case Errored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// ErrorCode is a provider playback error code.
type ErrorCode int

// Codes used by YouTube-like iframe players.
const (
	CodeNone             ErrorCode = 0
	CodeInvalidParameter ErrorCode = 2
	CodeHTML5            ErrorCode = 5
	CodeNotFound         ErrorCode = 100
	CodeEmbedForbidden   ErrorCode = 101
	CodeEmbedForbidden2  ErrorCode = 150
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeHTML5:
		return "html5 player error"
	case CodeNotFound:
		return "video not found"
	case CodeEmbedForbidden, CodeEmbedForbidden2:
		return "embedding not allowed"
	default:
		return fmt.Sprintf("provider error %d", int(c))
	}
}
