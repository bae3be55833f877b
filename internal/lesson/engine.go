// Package lesson implements progress-gated video lesson playback: it
// wraps an embedded player, tracks verified watch progress, keeps the
// learner from skipping ahead, resumes from prior progress and latches
// lesson completion.
package lesson

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/lessongate/internal/adapter"
	"github.com/llehouerou/lessongate/internal/errmsg"
	"github.com/llehouerou/lessongate/internal/log"
	"github.com/llehouerou/lessongate/internal/metrics"
	"github.com/llehouerou/lessongate/internal/source"
)

// Engine runs one lesson session against one player. It owns the player
// handle until Close.
//
// The tracker and guard timers run on their own goroutines. All session
// state is guarded by mu; callbacks are collected while mu is held and
// delivered in order after it is released, one at a time.
type Engine struct {
	cfg     Config
	handler Handler
	logger  zerolog.Logger
	id      string

	mu        sync.Mutex
	player    adapter.Interface
	watchStop chan struct{} // nil when no watcher serves player
	ref       string
	video     source.VideoID
	hint      ResumeHint
	sess      Session
	latch     latch
	err       *Error
	subs      []*Subscription

	started          bool
	resumed          bool // resume seek happens once per session
	durationReported bool
	resumeGen        int
	attempts         int
	retry            *time.Timer
	trackStop        chan struct{}
	guardStop        chan struct{}
	scrubRequest     time.Duration

	closed atomic.Bool
	quit   chan struct{}
	wg     sync.WaitGroup

	emitMu   sync.Mutex // held while a callback runs
	queueMu  sync.Mutex
	queue    emits
	draining bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default is the "lesson" component
// logger from internal/log.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine for player p. p may be nil; Start then fails with
// ErrAdapterInit and Reattach can supply a player later.
func New(p adapter.Interface, cfg Config, h Handler, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:     cfg.withDefaults(),
		handler: h,
		logger:  log.WithComponent("lesson"),
		id:      uuid.NewString(),
		player:  p,
		sess:    newSession(ResumeHint{}),
		quit:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str(log.FieldSessionID, e.id).Logger()
	return e, nil
}

// ID returns the session identifier used in logs.
func (e *Engine) ID() string { return e.id }

// Start mounts the lesson: it validates the video reference, begins
// watching player events and runs the resume sequence.
func (e *Engine) Start(ref string, hint ResumeHint) error {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	e.ref = ref
	e.hint = hint
	e.sess = newSession(hint)
	e.latch = latch{threshold: e.cfg.CompletionThreshold}

	var out emits
	err := e.startLocked(&out)
	gen := e.resumeGen
	e.mu.Unlock()

	e.dispatch(out)
	if err != nil {
		return err
	}
	e.awaitDuration(gen)
	return nil
}

func (e *Engine) startLocked(out *emits) error {
	id, err := source.Parse(e.ref)
	if err != nil {
		return e.failLocked(out, &Error{Kind: KindInvalidSource, Op: errmsg.OpLoadSource, Err: err})
	}
	e.video = id
	if !adapter.Alive(e.player) {
		e.player = nil
		return e.failLocked(out, &Error{Kind: KindAdapterInit, Op: errmsg.OpAttachPlayer})
	}
	e.watchLocked()
	e.resumeGen++
	e.attempts = 0
	e.logger.Debug().Str(log.FieldVideoID, id.String()).Msg("lesson starting")
	e.setPhaseLocked(out, PhaseAwaitingDuration)
	return nil
}

// Retry leaves the Error phase and re-runs readiness with the current
// player. It is a no-op in any other phase.
func (e *Engine) Retry() error {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return ErrClosed
	}
	if !e.started {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if e.sess.Phase != PhaseError {
		e.mu.Unlock()
		return nil
	}
	var out emits
	e.err = nil
	e.setPhaseLocked(&out, PhaseUninitialized)
	err := e.startLocked(&out)
	gen := e.resumeGen
	e.mu.Unlock()

	e.dispatch(out)
	if err != nil {
		return err
	}
	e.awaitDuration(gen)
	return nil
}

// Reattach replaces a failed player and retries. The session keeps its
// progress; the resume seek is not repeated.
func (e *Engine) Reattach(p adapter.Interface) error {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.sess.Phase != PhaseError {
		e.mu.Unlock()
		return nil
	}
	if e.watchStop != nil {
		close(e.watchStop)
		e.watchStop = nil
	}
	e.player = p
	e.mu.Unlock()
	return e.Retry()
}

// Close ends the session. It stops both timers, drops the player handle
// and waits for engine goroutines to exit. No callback fires after Close
// returns. Close must not be called from a Handler callback.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed.Load() {
		e.mu.Unlock()
		return nil
	}
	e.closed.Store(true)
	e.stopTimersLocked()
	e.stopRetryLocked()
	e.player = nil
	e.watchStop = nil
	close(e.quit)
	subs := e.subs
	e.subs = nil
	e.mu.Unlock()

	// Wait out a callback already running; queued ones are dropped.
	e.emitMu.Lock()
	for _, s := range subs {
		s.close()
	}
	e.emitMu.Unlock()

	e.wg.Wait()
	e.logger.Debug().Msg("lesson session closed")
	return nil
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	sub := newSubscription()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		sub.close()
		return sub
	}
	e.subs = append(e.subs, sub)
	return sub
}

// Snapshot returns a copy of the session state.
func (e *Engine) Snapshot() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}

// Phase returns the current lifecycle phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Phase
}

// Err returns the error that moved the session to the Error phase, or nil.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err == nil {
		return nil
	}
	return e.err
}

// VideoID returns the parsed video id, empty until Start succeeds.
func (e *Engine) VideoID() source.VideoID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.video
}

// watchLocked starts a goroutine consuming events from the current player.
func (e *Engine) watchLocked() {
	if e.watchStop != nil {
		return
	}
	stop := make(chan struct{})
	e.watchStop = stop
	p := e.player
	e.wg.Add(1)
	go e.watch(p, stop)
}

func (e *Engine) watch(p adapter.Interface, stop chan struct{}) {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case <-stop:
			return
		case <-p.Done():
			e.handleDestroyed(stop)
			return
		case ev := <-p.Events():
			e.handleEvent(stop, ev)
		}
	}
}

func (e *Engine) handleDestroyed(stop chan struct{}) {
	e.mu.Lock()
	if e.closed.Load() || e.watchStop != stop {
		e.mu.Unlock()
		return
	}
	e.watchStop = nil
	e.player = nil
	var out emits
	_ = e.failLocked(&out, &Error{Kind: KindAdapterInit, Op: errmsg.OpAttachPlayer, Err: adapter.ErrDestroyed})
	e.mu.Unlock()
	e.dispatch(out)
}

func (e *Engine) handleEvent(stop chan struct{}, ev adapter.Event) {
	e.mu.Lock()
	if e.closed.Load() || e.watchStop != stop {
		e.mu.Unlock()
		return
	}
	var out emits
	switch ev.State {
	case adapter.Playing:
		e.onPlayingLocked(&out)
	case adapter.Paused:
		e.onStoppedLocked(&out, PhasePaused)
	case adapter.Ended:
		e.onStoppedLocked(&out, PhaseEnded)
	case adapter.Errored:
		metrics.IncProviderError(int(ev.Code))
		_ = e.failLocked(&out, &Error{Kind: KindProviderPlayback, Op: errmsg.OpPlayback, Code: ev.Code})
	case adapter.Unstarted, adapter.Cued, adapter.Buffering:
		// Buffering keeps the timers running; the others carry no progress.
	}
	e.mu.Unlock()
	e.dispatch(out)
}

func (e *Engine) onPlayingLocked(out *emits) {
	e.sess.IsPlaying = true
	if !e.sess.Phase.IsLoaded() {
		// Autoplay before resume finished; readyLocked starts the timers.
		return
	}
	e.setPhaseLocked(out, PhasePlaying)
	e.startTimersLocked()
}

// onStoppedLocked handles pause and end: timers stop and a last sample
// records the position playback stopped at.
func (e *Engine) onStoppedLocked(out *emits, next Phase) {
	e.sess.IsPlaying = false
	e.stopTimersLocked()
	if !e.sess.Phase.IsLoaded() {
		return
	}
	e.sampleLocked(out)
	e.setPhaseLocked(out, next)
	if next == PhasePaused && e.handler.OnPause != nil {
		fn, actual, cur := e.handler.OnPause, e.sess.ActualPercentage, e.sess.CurrentTime
		out.add(func() { fn(actual, cur) })
	}
}

// failLocked moves the session to Error. Every failure path goes through
// here so no timer survives it.
func (e *Engine) failLocked(out *emits, err *Error) error {
	e.stopTimersLocked()
	e.stopRetryLocked()
	e.sess.IsPlaying = false
	e.sess.Scrubbing = false
	e.err = err

	ev := e.logger.Warn()
	if err.Kind == KindProviderPlayback {
		ev = e.logger.Error().Int(log.FieldCode, int(err.Code))
	}
	ev.Err(err).Msg("lesson session failed")

	e.setPhaseLocked(out, PhaseError)
	e.noticeLocked(out, Notice{Kind: NoticeError, Message: err.Message(), Err: err})
	return err
}

func (e *Engine) setPhaseLocked(out *emits, p Phase) {
	prev := e.sess.Phase
	if prev == p {
		return
	}
	e.sess.Phase = p
	e.logger.Debug().
		Str(log.FieldOldPhase, prev.String()).
		Str(log.FieldNewPhase, p.String()).
		Msg("phase changed")

	change := PhaseChange{Previous: prev, Current: p}
	subs := e.subs
	fn := e.handler.OnPhaseChange
	out.add(func() {
		if fn != nil {
			fn(change)
		}
		for _, s := range subs {
			s.sendPhase(change)
		}
	})
}

func (e *Engine) noticeLocked(out *emits, n Notice) {
	subs := e.subs
	fn := e.handler.OnNotice
	out.add(func() {
		if fn != nil {
			fn(n)
		}
		for _, s := range subs {
			s.sendNotice(n)
		}
	})
}

func (e *Engine) startTimersLocked() {
	if e.trackStop == nil {
		e.trackStop = make(chan struct{})
		e.runTicker(e.cfg.TrackInterval, e.trackStop, e.trackTick)
	}
	if e.guardStop == nil {
		e.guardStop = make(chan struct{})
		e.runTicker(e.cfg.GuardInterval, e.guardStop, e.guardTick)
	}
}

func (e *Engine) stopTimersLocked() {
	if e.trackStop != nil {
		close(e.trackStop)
		e.trackStop = nil
	}
	if e.guardStop != nil {
		close(e.guardStop)
		e.guardStop = nil
	}
}

func (e *Engine) stopRetryLocked() {
	if e.retry != nil {
		e.retry.Stop()
		e.retry = nil
	}
}

func (e *Engine) runTicker(interval time.Duration, stop chan struct{}, tick func(stop chan struct{})) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-e.quit:
				return
			case <-ticker.C:
				tick(stop)
			}
		}
	}()
}

// emits collects callbacks produced while mu is held.
type emits []func()

func (o *emits) add(fn func()) { *o = append(*o, fn) }

// dispatch delivers a batch unless the session closed in the meantime.
//
// Batches go through one queue. The goroutine that finds the queue idle
// drains it, so a callback that calls back into the engine only appends
// its own batch, which runs after the current callback returns.
func (e *Engine) dispatch(out emits) {
	if len(out) == 0 {
		return
	}
	e.queueMu.Lock()
	e.queue = append(e.queue, out...)
	if e.draining {
		e.queueMu.Unlock()
		return
	}
	e.draining = true
	for len(e.queue) > 0 {
		fn := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.queueMu.Unlock()
		e.deliver(fn)
		e.queueMu.Lock()
	}
	e.queue = nil
	e.draining = false
	e.queueMu.Unlock()
}

// deliver runs one callback. emitMu is what Close waits on.
func (e *Engine) deliver(fn func()) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if e.closed.Load() {
		return
	}
	fn()
}
