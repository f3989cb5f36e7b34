//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// before any cgo code runs
	initCrashLog()

	// The window takes the main thread itself and runs run in a goroutine.
	if wantsGUI(os.Args[1:]) {
		initGUI()
		return
	}
	mainthread.Init(run)
}
