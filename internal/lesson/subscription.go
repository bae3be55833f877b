package lesson

const eventBufferSize = 16

// Subscription provides event channels for a subscriber. Sends never
// block; a subscriber that falls behind loses events.
type Subscription struct {
	PhaseChanged <-chan PhaseChange
	Progress     <-chan ProgressUpdate
	Notices      <-chan Notice
	Done         <-chan struct{}

	// Internal write channels
	phaseCh    chan PhaseChange
	progressCh chan ProgressUpdate
	noticeCh   chan Notice
	doneCh     chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		phaseCh:    make(chan PhaseChange, eventBufferSize),
		progressCh: make(chan ProgressUpdate, eventBufferSize),
		noticeCh:   make(chan Notice, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.PhaseChanged = s.phaseCh
	s.Progress = s.progressCh
	s.Notices = s.noticeCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendPhase(e PhaseChange) {
	select {
	case s.phaseCh <- e:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendProgress(e ProgressUpdate) {
	select {
	case s.progressCh <- e:
	default:
	}
}

func (s *Subscription) sendNotice(e Notice) {
	select {
	case s.noticeCh <- e:
	default:
	}
}
