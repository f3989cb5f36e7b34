package inject

import "sync"

// Fake records every injected string.
type Fake struct {
	mu    sync.Mutex
	texts []string
	err   error
	// Injected, when non-nil, receives each text after it is recorded.
	Injected chan string
}

func NewFake(err error) *Fake {
	return &Fake{err: err}
}

func (f *Fake) Inject(text string) error {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	ch := f.Injected
	f.mu.Unlock()
	if ch != nil {
		ch <- text
	}
	return f.err
}

// Texts returns a copy of everything injected so far.
func (f *Fake) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}
