package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"limbo/beep"
	"limbo/dictation"
	"limbo/hotkey"
)

func TestTestViewSignalsCycles(t *testing.T) {
	var out bytes.Buffer
	cycles := make(chan struct{}, 4)
	v := testView(&out, cycles)

	for _, p := range []dictation.Phase{dictation.Idle, dictation.Listening, dictation.Processing, dictation.Result, dictation.Idle} {
		v.Render(dictation.State{Phase: p})
	}
	if len(cycles) != 1 {
		t.Errorf("cycles = %d, want 1", len(cycles))
	}
	want := "STATE: idle\nSTATE: listening\nSTATE: processing\nSTATE: result\nSTATE: idle\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestDriveTestMode(t *testing.T) {
	hk := hotkey.NewFake()
	cycles := make(chan struct{}, 1)
	cycles <- struct{}{}

	done := make(chan struct{})
	go func() {
		driveTestMode(context.Background(), strings.NewReader("TOGGLE\nWAIT\nSLEEP 1\nBOGUS\nQUIT\nTOGGLE\n"), hk, cycles)
		close(done)
	}()

	select {
	case <-hk.Keydown():
	case <-time.After(time.Second):
		t.Fatal("TOGGLE did not press the hotkey")
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not stop at QUIT")
	}
	select {
	case <-hk.Keydown():
		t.Error("command after QUIT was run")
	default:
	}
}

func TestDriveTestModeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		driveTestMode(ctx, strings.NewReader("WAIT\n"), hotkey.NewFake(), make(chan struct{}))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WAIT ignored cancellation")
	}
}

func TestCueViewTransitions(t *testing.T) {
	beep.Disable()
	v := cueView()
	for _, p := range []dictation.Phase{dictation.Idle, dictation.Listening, dictation.Processing, dictation.Error, dictation.Idle} {
		v.Render(dictation.State{Phase: p})
	}
}
