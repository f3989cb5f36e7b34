// Package dictation runs the hotkey-driven record, transcribe and type cycle.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"limbo/encoder"
	"limbo/log"
	"limbo/transcriber"
)

const (
	DefaultSettleDelay       = 100 * time.Millisecond
	DefaultDisplayDelay      = 2000 * time.Millisecond
	DefaultTranscribeTimeout = 30 * time.Second

	eventQueue = 16
)

// Recorder captures microphone audio between Start and Stop.
type Recorder interface {
	Start() error
	Stop() [][]byte
}

// Transcriber turns a recording into text. It reports silence with
// transcriber.ErrNoSpeech and other failures with *transcriber.ServiceError.
type Transcriber interface {
	Transcribe(ctx context.Context, chunks [][]byte) (string, error)
}

// Injector types text at the current input focus.
type Injector interface {
	Inject(text string) error
}

type Config struct {
	// SettleDelay is the pause between showing a result and typing it, so
	// focus returns to the target window first.
	SettleDelay time.Duration
	// DisplayDelay is how long a result or error stays up before the
	// controller returns to Idle.
	DisplayDelay      time.Duration
	TranscribeTimeout time.Duration
	// OnInjectError, if set, is called from the injection goroutine when
	// typing the result fails.
	OnInjectError func(error)
}

func (c *Config) setDefaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.DisplayDelay <= 0 {
		c.DisplayDelay = DefaultDisplayDelay
	}
	if c.TranscribeTimeout <= 0 {
		c.TranscribeTimeout = DefaultTranscribeTimeout
	}
}

type hotkeyEvent struct{}

type transcribedEvent struct {
	session uuid.UUID
	text    string
	err     error
}

type expiredEvent struct {
	session uuid.UUID
}

// Controller is the dictation state machine. All state lives on the
// goroutine running Run; Toggle and background work talk to it through
// a channel.
type Controller struct {
	rec  Recorder
	tr   Transcriber
	inj  Injector
	view View
	cfg  Config

	events chan any
	done   chan struct{}

	snapMu sync.RWMutex
	snap   State

	// owned by the Run goroutine
	state   State
	cycle   uuid.UUID
	session *Session
	timer   *time.Timer
	typing  *time.Timer
}

func New(rec Recorder, tr Transcriber, inj Injector, view View, cfg Config) *Controller {
	cfg.setDefaults()
	if view == nil {
		view = Views(nil)
	}
	return &Controller{
		rec:    rec,
		tr:     tr,
		inj:    inj,
		view:   view,
		cfg:    cfg,
		events: make(chan any, eventQueue),
		done:   make(chan struct{}),
	}
}

// Toggle delivers a hotkey press. It never blocks; presses arriving
// faster than the loop can handle them are dropped.
func (c *Controller) Toggle() {
	select {
	case c.events <- hotkeyEvent{}:
	default:
		log.Warn("hotkey_dropped: event queue full")
	}
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Run processes events until ctx is done. On return the recorder is
// stopped and views have been told the controller is Idle. Run must be
// called exactly once.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	c.view.Render(c.state)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case ev := <-c.events:
			switch ev := ev.(type) {
			case hotkeyEvent:
				c.onHotkey(ctx)
			case transcribedEvent:
				c.onTranscribed(ev)
			case expiredEvent:
				c.onExpired(ev)
			}
		}
	}
}

// post hands an event from a worker back to the loop. It gives up once
// the loop has exited.
func (c *Controller) post(ev any) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) onHotkey(ctx context.Context) {
	switch c.state.Phase {
	case Idle:
		c.startListening()
	case Listening:
		c.stopListening(ctx)
	default:
		log.Infof("hotkey_ignored: phase=%s", c.state.Phase)
	}
}

func (c *Controller) startListening() {
	c.stopTimer()
	sess := newSession()
	c.cycle = sess.ID
	log.SessionStart(sess.ID.String())

	if err := c.rec.Start(); err != nil {
		log.Errorf("recorder start failed: %v", err)
		c.fail(msgDeviceFailure + err.Error())
		return
	}
	c.session = sess
	c.transition(State{Phase: Listening})
	if w, ok := c.tr.(interface{ Warm() }); ok {
		go w.Warm()
	}
}

func (c *Controller) stopListening(ctx context.Context) {
	sess := c.session
	c.session = nil
	sess.Chunks = c.rec.Stop()

	var dropped uint64
	if d, ok := c.rec.(interface{ Dropped() uint64 }); ok {
		dropped = d.Dropped()
	}
	audioS := float64(sess.Bytes()) / (encoder.SampleRate * encoder.BytesPerSample)
	log.SessionEnd(sess.ID.String(), len(sess.Chunks), audioS, dropped)

	c.transition(State{Phase: Processing})
	if len(sess.Chunks) == 0 {
		log.Info("empty_session: skipping transcription")
		c.transition(State{Phase: Idle})
		return
	}

	go func() {
		tctx, cancel := context.WithTimeout(ctx, c.cfg.TranscribeTimeout)
		defer cancel()
		text, err := c.tr.Transcribe(tctx, sess.Chunks)
		c.post(transcribedEvent{session: sess.ID, text: text, err: err})
	}()
}

func (c *Controller) onTranscribed(ev transcribedEvent) {
	if ev.session != c.cycle || c.state.Phase != Processing {
		log.Warnf("stale transcription dropped: session=%s", ev.session)
		return
	}

	switch {
	case ev.err == nil && strings.TrimSpace(ev.text) != "":
		c.transition(State{Phase: Result, Text: ev.text})
		c.injectLater(ev.text)
		c.expireLater(ev.session)
	case ev.err == nil, errors.Is(ev.err, transcriber.ErrNoSpeech):
		c.fail(MsgNoSpeech)
	default:
		c.fail(failureDetail(ev.err))
	}
}

func failureDetail(err error) string {
	var se *transcriber.ServiceError
	if errors.As(err, &se) && se.Detail != "" {
		return se.Detail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return defaultFailureMsg
}

func (c *Controller) onExpired(ev expiredEvent) {
	if ev.session != c.cycle {
		return
	}
	if p := c.state.Phase; p != Result && p != Error {
		return
	}
	c.timer = nil
	c.transition(State{Phase: Idle})
}

// fail shows msg and schedules the return to Idle.
func (c *Controller) fail(msg string) {
	c.transition(State{Phase: Error, Text: msg})
	c.expireLater(c.cycle)
}

func (c *Controller) expireLater(session uuid.UUID) {
	c.stopTimer()
	c.timer = time.AfterFunc(c.cfg.DisplayDelay, func() {
		c.post(expiredEvent{session: session})
	})
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) injectLater(text string) {
	c.typing = time.AfterFunc(c.cfg.SettleDelay, func() {
		if err := c.inj.Inject(text); err != nil {
			log.Errorf("inject failed: %v", err)
			if c.cfg.OnInjectError != nil {
				c.cfg.OnInjectError(fmt.Errorf("typing result: %w", err))
			}
		}
	})
}

func (c *Controller) transition(next State) {
	prev := c.state
	c.state = next

	c.snapMu.Lock()
	c.snap = next
	c.snapMu.Unlock()

	var session string
	if c.cycle != uuid.Nil {
		session = c.cycle.String()
	}
	log.StateChange(session, prev.Phase.String(), next.Phase.String(), next.Text)
	c.view.Render(next)
}

func (c *Controller) shutdown() {
	c.stopTimer()
	if c.typing != nil {
		c.typing.Stop()
		c.typing = nil
	}
	if c.state.Phase == Listening {
		c.rec.Stop()
		c.session = nil
	}
	if c.state.Phase != Idle {
		c.transition(State{Phase: Idle})
	}
}
