package inject

import cb "github.com/atotto/clipboard"

type clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error) { return cb.ReadAll() }

func (systemClipboard) WriteAll(text string) error { return cb.WriteAll(text) }

// ClipboardAvailable reports whether the clipboard fallback can work on
// this machine.
func ClipboardAvailable() bool { return !cb.Unsupported }
