// Package hotkey delivers the global Alt+Space dictation chord.
package hotkey

// Combo is the fixed dictation chord, for display.
const Combo = "Alt+Space"

type Hotkey interface {
	Register() error
	Unregister()
	// Keydown fires once per press of the chord. Auto-repeat while the
	// chord is held does not fire again.
	Keydown() <-chan struct{}
}
