package lesson

// Phase is the session lifecycle state.
//
//	Uninitialized ──start──▶ AwaitingDuration ──duration known──▶ Ready
//	                                                               │
//	                                       ┌──────── play ─────────┘
//	                                       ▼
//	                                    Playing ◀──▶ Paused
//	                                       │
//	                                  end  ▼
//	                                     Ended
//
// Any phase moves to Error on an adapter or provider failure; Retry
// moves Error back to Uninitialized and re-runs readiness.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseAwaitingDuration
	PhaseReady
	PhasePlaying
	PhasePaused
	PhaseEnded
	PhaseError
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "Uninitialized"
	case PhaseAwaitingDuration:
		return "AwaitingDuration"
	case PhaseReady:
		return "Ready"
	case PhasePlaying:
		return "Playing"
	case PhasePaused:
		return "Paused"
	case PhaseEnded:
		return "Ended"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsLoaded returns true once duration is known and resume has been applied.
func (p Phase) IsLoaded() bool {
	switch p {
	case PhaseReady, PhasePlaying, PhasePaused, PhaseEnded:
		return true
	default:
		return false
	}
}
