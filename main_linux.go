//go:build linux

package main

import "os"

func main() {
	// before any cgo code runs
	initCrashLog()

	if wantsGUI(os.Args[1:]) {
		initGUI()
		return
	}
	run()
}
