package transcriber

import (
	"context"
	"sync"
)

// Fake returns a canned outcome after an optional gate is released.
type Fake struct {
	text string
	err  error

	// Gate, when non-nil, blocks Transcribe until it is closed or the
	// context ends.
	Gate chan struct{}

	mu     sync.Mutex
	calls  int
	chunks [][]byte
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Warm() {}

func (f *Fake) Transcribe(ctx context.Context, chunks [][]byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.chunks = chunks
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return "", classify(f.Name(), ctx.Err())
		}
	}
	if f.err != nil {
		return "", f.err
	}
	if f.text == "" {
		return "", ErrNoSpeech
	}
	return f.text, nil
}

// Calls returns how many times Transcribe ran.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastChunks returns the audio passed to the most recent call.
func (f *Fake) LastChunks() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chunks
}
