//go:build !gui

package main

import (
	"context"

	"limbo/audio"
	"limbo/dictation"
)

// Never set without the gui tag; guiMode stays false.
var guiAudioCtx audio.Context

func initGUI() {
	panic("limbo: built without GUI support (rebuild with -tags gui)")
}

func guiView(context.CancelFunc) dictation.View { return dictation.Views(nil) }
