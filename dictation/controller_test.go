package dictation

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"limbo/inject"
	"limbo/transcriber"
)

const waitTimeout = 2 * time.Second

type fakeRecorder struct {
	mu        sync.Mutex
	startErr  error
	chunks    [][]byte
	capturing bool
	starts    int
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts++
	if r.startErr != nil {
		return r.startErr
	}
	r.capturing = true
	return nil
}

func (r *fakeRecorder) Stop() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.capturing {
		return nil
	}
	r.capturing = false
	return r.chunks
}

func (r *fakeRecorder) isCapturing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capturing
}

func (r *fakeRecorder) startCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts
}

// viewLog records every rendered state and checks that the recorder is
// capturing exactly while the controller is Listening.
type viewLog struct {
	t   *testing.T
	rec *fakeRecorder

	mu     sync.Mutex
	states []State
	ch     chan State
}

func (v *viewLog) Render(s State) {
	if got := v.rec.isCapturing(); got != (s.Phase == Listening) {
		v.t.Errorf("recorder capturing=%v while phase=%s", got, s.Phase)
	}
	v.mu.Lock()
	v.states = append(v.states, s)
	v.mu.Unlock()
	v.ch <- s
}

func (v *viewLog) waitFor(p Phase) State {
	v.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-v.ch:
			if s.Phase == p {
				return s
			}
		case <-deadline:
			v.t.Fatalf("timed out waiting for %s (seen %v)", p, v.phases())
			return State{}
		}
	}
}

func (v *viewLog) phases() []Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Phase, len(v.states))
	for i, s := range v.states {
		out[i] = s.Phase
	}
	return out
}

type harness struct {
	c      *Controller
	rec    *fakeRecorder
	tr     *transcriber.Fake
	inj    *inject.Fake
	view   *viewLog
	cancel context.CancelFunc
	runErr chan error
}

func newHarness(t *testing.T, rec *fakeRecorder, tr *transcriber.Fake, inj *inject.Fake, cfg Config) *harness {
	t.Helper()
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = 5 * time.Millisecond
	}
	if cfg.DisplayDelay == 0 {
		cfg.DisplayDelay = 50 * time.Millisecond
	}
	if inj == nil {
		inj = inject.NewFake(nil)
	}
	if inj.Injected == nil {
		inj.Injected = make(chan string, 4)
	}
	view := &viewLog{t: t, rec: rec, ch: make(chan State, 64)}
	h := &harness{
		c:      New(rec, tr, inj, view, cfg),
		rec:    rec,
		tr:     tr,
		inj:    inj,
		view:   view,
		runErr: make(chan error, 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.runErr <- h.c.Run(ctx) }()
	h.view.waitFor(Idle)
	t.Cleanup(func() {
		cancel()
		<-h.runErr
	})
	return h
}

func speech() [][]byte {
	return [][]byte{make([]byte, 2048), make([]byte, 2048), make([]byte, 100)}
}

func TestHotkeyStartsListening(t *testing.T) {
	rec := &fakeRecorder{}
	h := newHarness(t, rec, transcriber.NewFake("x", nil), nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	if !rec.isCapturing() {
		t.Error("recorder not capturing")
	}
	if got := h.c.State(); got.Phase != Listening {
		t.Errorf("State() = %v, want Listening", got)
	}
}

func TestSuccessfulDictation(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	tr := transcriber.NewFake("hello world", nil)
	h := newHarness(t, rec, tr, nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()

	res := h.view.waitFor(Result)
	if res.Text != "hello world" {
		t.Errorf("Result text = %q", res.Text)
	}
	select {
	case got := <-h.inj.Injected:
		if got != "hello world" {
			t.Errorf("injected %q", got)
		}
	case <-time.After(waitTimeout):
		t.Fatal("text was never injected")
	}
	h.view.waitFor(Idle)

	want := []Phase{Idle, Listening, Processing, Result, Idle}
	if got := h.view.phases(); !reflect.DeepEqual(got, want) {
		t.Errorf("phases = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(tr.LastChunks(), speech()) {
		t.Error("transcriber did not receive the recorded chunks")
	}
	if n := len(h.inj.Texts()); n != 1 {
		t.Errorf("injected %d times, want 1", n)
	}
}

func TestInjectWaitsForSettleDelay(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	h := newHarness(t, rec, transcriber.NewFake("later", nil), nil, Config{
		SettleDelay:  100 * time.Millisecond,
		DisplayDelay: time.Second,
	})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Result)
	shown := time.Now()

	select {
	case <-h.inj.Injected:
		if d := time.Since(shown); d < 80*time.Millisecond {
			t.Errorf("injected %v after showing the result, want >= settle delay", d)
		}
	case <-time.After(waitTimeout):
		t.Fatal("text was never injected")
	}
}

func TestFailures(t *testing.T) {
	for _, tt := range []struct {
		name string
		text string
		err  error
		want string
	}{
		{"no speech", "", transcriber.ErrNoSpeech, MsgNoSpeech},
		{"blank transcript", "   \n", nil, MsgNoSpeech},
		{"service failure", "", &transcriber.ServiceError{Detail: "network timeout"}, "network timeout"},
		{"wrapped service failure", "", errors.Join(errors.New("ctx"), &transcriber.ServiceError{Detail: "groq: rate limited (429)"}), "groq: rate limited (429)"},
		{"untyped error", "", errors.New("boom"), "boom"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecorder{chunks: speech()}
			h := newHarness(t, rec, transcriber.NewFake(tt.text, tt.err), nil, Config{})

			h.c.Toggle()
			h.view.waitFor(Listening)
			h.c.Toggle()

			got := h.view.waitFor(Error)
			if got.Text != tt.want {
				t.Errorf("Error text = %q, want %q", got.Text, tt.want)
			}
			h.view.waitFor(Idle)
			if texts := h.inj.Texts(); len(texts) != 0 {
				t.Errorf("injected %q after a failure", texts)
			}
		})
	}
}

func TestEmptySessionSkipsTranscription(t *testing.T) {
	rec := &fakeRecorder{}
	tr := transcriber.NewFake("never", nil)
	h := newHarness(t, rec, tr, nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Idle)

	want := []Phase{Idle, Listening, Processing, Idle}
	if got := h.view.phases(); !reflect.DeepEqual(got, want) {
		t.Errorf("phases = %v, want %v", got, want)
	}
	if tr.Calls() != 0 {
		t.Errorf("transcriber called %d times for an empty session", tr.Calls())
	}
}

func TestStopAlwaysEntersProcessing(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		rec := &fakeRecorder{chunks: make([][]byte, n)}
		for i := range rec.chunks {
			rec.chunks[i] = make([]byte, 2048)
		}
		tr := transcriber.NewFake("ok", nil)
		tr.Gate = make(chan struct{})
		h := newHarness(t, rec, tr, nil, Config{})

		h.c.Toggle()
		h.view.waitFor(Listening)
		h.c.Toggle()
		h.view.waitFor(Processing)
		close(tr.Gate)
	}
}

func TestDeviceError(t *testing.T) {
	rec := &fakeRecorder{startErr: errors.New("permission denied")}
	h := newHarness(t, rec, transcriber.NewFake("x", nil), nil, Config{})

	h.c.Toggle()
	got := h.view.waitFor(Error)
	if want := "Microphone unavailable: permission denied"; got.Text != want {
		t.Errorf("Error text = %q, want %q", got.Text, want)
	}
	h.view.waitFor(Idle)

	// the next press tries again
	rec.mu.Lock()
	rec.startErr = nil
	rec.mu.Unlock()
	h.c.Toggle()
	h.view.waitFor(Listening)
}

func TestHotkeyIgnoredWhileProcessing(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	tr := transcriber.NewFake("done", nil)
	tr.Gate = make(chan struct{})
	h := newHarness(t, rec, tr, nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Processing)

	h.c.Toggle()
	h.c.Toggle()
	time.Sleep(30 * time.Millisecond)
	if got := h.c.State().Phase; got != Processing {
		t.Errorf("phase = %s after hotkey during processing", got)
	}
	if n := rec.startCount(); n != 1 {
		t.Errorf("recorder started %d times, want 1", n)
	}

	close(tr.Gate)
	h.view.waitFor(Result)
}

func TestHotkeyIgnoredWhileShowingResult(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	h := newHarness(t, rec, transcriber.NewFake("shown", nil), nil, Config{DisplayDelay: 300 * time.Millisecond})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Result)

	h.c.Toggle()
	time.Sleep(30 * time.Millisecond)
	if got := h.c.State().Phase; got != Result {
		t.Errorf("phase = %s, want Result", got)
	}
	h.view.waitFor(Idle)
	if n := rec.startCount(); n != 1 {
		t.Errorf("recorder started %d times, want 1", n)
	}
}

func TestStaleEventsDropped(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	tr := transcriber.NewFake("mine", nil)
	tr.Gate = make(chan struct{})
	h := newHarness(t, rec, tr, nil, Config{DisplayDelay: time.Hour})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Processing)

	h.c.post(transcribedEvent{session: uuid.New(), text: "someone else's"})
	time.Sleep(30 * time.Millisecond)
	if got := h.c.State().Phase; got != Processing {
		t.Fatalf("foreign completion moved phase to %s", got)
	}

	close(tr.Gate)
	if got := h.view.waitFor(Result); got.Text != "mine" {
		t.Errorf("Result text = %q", got.Text)
	}

	h.c.post(expiredEvent{session: uuid.New()})
	time.Sleep(30 * time.Millisecond)
	if got := h.c.State().Phase; got != Result {
		t.Errorf("foreign timer moved phase to %s", got)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	tr := transcriber.NewFake("late", nil)
	tr.Gate = make(chan struct{}) // never released
	h := newHarness(t, rec, tr, nil, Config{TranscribeTimeout: 30 * time.Millisecond})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	if got := h.view.waitFor(Error); got.Text != "network timeout" {
		t.Errorf("Error text = %q, want network timeout", got.Text)
	}
}

func TestInjectErrorDoesNotChangeState(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	injErrs := make(chan error, 1)
	h := newHarness(t, rec, transcriber.NewFake("typed", nil), inject.NewFake(errors.New("no uinput")), Config{
		OnInjectError: func(err error) { injErrs <- err },
	})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Result)

	select {
	case err := <-injErrs:
		if err == nil {
			t.Error("callback got nil error")
		}
	case <-time.After(waitTimeout):
		t.Fatal("OnInjectError not called")
	}
	h.view.waitFor(Idle)
	for _, p := range h.view.phases() {
		if p == Error {
			t.Error("injection failure surfaced as an Error state")
		}
	}
}

func TestShutdownWhileListening(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	h := newHarness(t, rec, transcriber.NewFake("x", nil), nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.cancel()

	select {
	case err := <-h.runErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
		h.runErr <- err // for cleanup
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
	}
	if rec.isCapturing() {
		t.Error("recorder still capturing after shutdown")
	}
	if got := h.c.State().Phase; got != Idle {
		t.Errorf("phase = %s after shutdown, want Idle", got)
	}
}

func TestPhaseString(t *testing.T) {
	for p, want := range map[Phase]string{
		Idle: "idle", Listening: "listening", Processing: "processing",
		Result: "result", Error: "error", Phase(42): "unknown",
	} {
		if got := p.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", p, got, want)
		}
	}
}

func TestStateLook(t *testing.T) {
	tests := []struct {
		state State
		label string
		msg   string
	}{
		{State{Phase: Idle}, "READY", "Press Alt+Space to speak"},
		{State{Phase: Listening}, "LISTENING...", "Speak now..."},
		{State{Phase: Processing}, "PROCESSING...", "Transcribing your speech..."},
		{State{Phase: Result, Text: "hello there"}, "SUCCESS!", `"hello there"`},
		{State{Phase: Error, Text: MsgNoSpeech}, "ERROR", MsgNoSpeech},
	}
	for _, tt := range tests {
		t.Run(tt.state.Phase.String(), func(t *testing.T) {
			l := tt.state.Look()
			if l.Label != tt.label || l.Message != tt.msg {
				t.Errorf("Look() = %q / %q, want %q / %q", l.Label, l.Message, tt.label, tt.msg)
			}
		})
	}
}

func TestResultTextKeptVerbatim(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	h := newHarness(t, rec, transcriber.NewFake(" hello world", nil), nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()

	if res := h.view.waitFor(Result); res.Text != " hello world" {
		t.Errorf("Result text = %q, want it unchanged", res.Text)
	}
	select {
	case got := <-h.inj.Injected:
		if got != " hello world" {
			t.Errorf("injected %q, want it unchanged", got)
		}
	case <-time.After(waitTimeout):
		t.Fatal("text was never injected")
	}
}

func TestBlankTranscriptIsNoSpeech(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	h := newHarness(t, rec, transcriber.NewFake(" \n\t", nil), nil, Config{})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()

	if s := h.view.waitFor(Error); s.Text != MsgNoSpeech {
		t.Errorf("Error text = %q, want %q", s.Text, MsgNoSpeech)
	}
	if n := len(h.inj.Texts()); n != 0 {
		t.Errorf("injected %d times, want 0", n)
	}
}

func TestShutdownCancelsPendingTyping(t *testing.T) {
	rec := &fakeRecorder{chunks: speech()}
	h := newHarness(t, rec, transcriber.NewFake("too late", nil), nil, Config{
		SettleDelay:  200 * time.Millisecond,
		DisplayDelay: time.Second,
	})

	h.c.Toggle()
	h.view.waitFor(Listening)
	h.c.Toggle()
	h.view.waitFor(Result)
	h.cancel()

	select {
	case err := <-h.runErr:
		h.runErr <- err // for cleanup
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
	}

	select {
	case got := <-h.inj.Injected:
		t.Errorf("typed %q after shutdown", got)
	case <-time.After(400 * time.Millisecond):
	}
}
