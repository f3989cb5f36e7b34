//go:build !windows

package doctor

import (
	"os"
	"os/exec"
)

// resetTerminal restores cooked mode after a hotkey grab or a killed prompt
// left the tty raw.
func resetTerminal() {
	cmd := exec.Command("stty", "sane")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}
