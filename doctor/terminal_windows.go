//go:build windows

package doctor

// Console mode is restored by the system when the process exits.
func resetTerminal() {}
