//go:build gui

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"limbo/audio"
	"limbo/dictation"
	"limbo/gui"
)

var guiApp *gui.App

// Created on the main thread; Core Audio on macOS needs that.
var guiAudioCtx audio.Context

func initGUI() {
	guiMode = true

	var err error
	guiAudioCtx, err = audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	// Fyne and GLFW own this thread from here on.
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
		guiApp.Quit()
	}, nil)
	if err := gui.Run(guiApp); err != nil {
		guiAudioCtx.Close()
		panic(err)
	}
}

// guiView shows state in the floating window. The tray Quit item cancels
// the daemon through stop.
func guiView(stop context.CancelFunc) dictation.View {
	guiApp.OnQuit(stop)
	return guiApp
}
