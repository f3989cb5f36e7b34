// Package doctor walks the user through checks of everything a dictation
// cycle depends on.
package doctor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"limbo/audio"
	"limbo/hotkey"
	"limbo/inject"
	"limbo/shutdown"
	"limbo/transcriber"
)

// Doctor holds what the checks run against. Fields left nil are filled
// with the real implementations by Run.
type Doctor struct {
	In  io.Reader
	Out io.Writer

	Provider    string
	Device      string
	Hotkey      hotkey.Hotkey
	Audio       audio.Context
	Transcriber transcriber.Transcriber
	Diagnose    func() (string, error)
	Verify      func() (string, error)

	RecordFor     time.Duration
	HotkeyTimeout time.Duration

	in *bufio.Reader
}

// Run executes interactive diagnostic checks and returns an exit code
// (0=all pass, 1=any fail).
func Run(provider, device string) int {
	resetTerminal()
	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	// Prompts block on stdin, so an interrupt cannot wait for them.
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			resetTerminal()
			fmt.Fprintln(os.Stderr, "\nInterrupted")
			os.Exit(1)
		case <-done:
		}
	}()

	d := &Doctor{Provider: provider, Device: device}
	code := d.Run(ctx)
	close(done)
	<-exited
	return code
}

func (d *Doctor) defaults() {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Diagnose == nil {
		d.Diagnose = hotkey.Diagnose
	}
	if d.Verify == nil {
		d.Verify = inject.Verify
	}
	if d.RecordFor == 0 {
		d.RecordFor = 3 * time.Second
	}
	if d.HotkeyTimeout == 0 {
		d.HotkeyTimeout = 10 * time.Second
	}
	d.in = bufio.NewReader(d.In)
}

func (d *Doctor) Run(ctx context.Context) int {
	d.defaults()

	d.printf("limbo doctor - interactive system diagnostics\n")
	d.printf("=============================================\n")

	checks := []struct {
		name string
		fn   func(context.Context) bool
	}{
		{"Speech backend", d.checkBackend},
		{"Hotkey detection", d.checkHotkey},
		{"Microphone and transcription", d.checkMicAndTranscription},
		{"Keystroke output", d.checkTyping},
	}

	allPass := true
	for i, c := range checks {
		d.printf("\n[%d/%d] %s\n", i+1, len(checks), c.name)
		if !c.fn(ctx) {
			allPass = false
			break
		}
	}

	d.printf("\n")
	if allPass {
		d.printf("All checks passed!\n")
		return 0
	}
	d.printf("Some checks failed. See details above.\n")
	return 1
}

func (d *Doctor) printf(format string, args ...any) {
	fmt.Fprintf(d.Out, format, args...)
}

func (d *Doctor) fail(format string, args ...any) bool {
	d.printf("  FAIL: "+format+"\n", args...)
	return false
}

func (d *Doctor) confirm(question string) bool {
	d.printf("%s [y/n]: ", question)
	answer, _ := d.in.ReadString('\n')
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

func (d *Doctor) checkBackend(context.Context) bool {
	if d.Transcriber == nil {
		tr, err := transcriber.New(d.Provider)
		if err != nil {
			return d.fail("%v", err)
		}
		d.Transcriber = tr
	}
	d.printf("  PASS: using %s\n", d.Transcriber.Name())
	return true
}

func (d *Doctor) checkHotkey(ctx context.Context) bool {
	if d.Hotkey == nil {
		msg, err := d.Diagnose()
		if err != nil {
			return d.fail("%v", err)
		}
		d.printf("  %s\n", msg)
		d.Hotkey = hotkey.New()
	}

	if err := d.Hotkey.Register(); err != nil {
		return d.fail("could not register hotkey: %v", err)
	}
	defer d.Hotkey.Unregister()

	d.printf("Press %s...\n", hotkey.Combo)
	select {
	case <-d.Hotkey.Keydown():
		// the chord may leave the terminal in raw mode
		resetTerminal()
		d.printf("  PASS: hotkey detected\n")
		return true
	case <-time.After(d.HotkeyTimeout):
		return d.fail("timeout waiting for hotkey")
	case <-ctx.Done():
		return d.fail("interrupted")
	}
}

func (d *Doctor) checkMicAndTranscription(ctx context.Context) bool {
	actx := d.Audio
	if actx == nil {
		var err error
		if actx, err = audio.NewContext(); err != nil {
			return d.fail("cannot connect to audio: %v", err)
		}
		defer actx.Close()
	}

	device, err := d.pickDevice(actx)
	if err != nil {
		return d.fail("%v", err)
	}
	capture, err := actx.NewCapture(device, audio.Config())
	if err != nil {
		return d.fail("cannot open microphone: %v", err)
	}
	defer capture.Close()
	rec := audio.NewRecorder(capture)
	d.printf("Using device: %s\n", rec.DeviceName())

	d.printf("Press Enter and speak for %s...", d.RecordFor)
	d.in.ReadString('\n')

	if err := rec.Start(); err != nil {
		return d.fail("recording error: %v", err)
	}
	d.printf("  Recording")
	deadline := time.After(d.RecordFor)
	tick := time.NewTicker(500 * time.Millisecond)
wait:
	for {
		select {
		case <-deadline:
			break wait
		case <-ctx.Done():
			break wait
		case <-tick.C:
			d.printf(".")
		}
	}
	tick.Stop()
	chunks := rec.Stop()
	d.printf(" done\n")

	if len(chunks) == 0 {
		return d.fail("no audio captured")
	}
	size := 0
	for _, c := range chunks {
		size += len(c)
	}
	d.printf("  Recorded %.1f KB, transcribing...\n", float64(size)/1024)

	tctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	text, err := d.Transcriber.Transcribe(tctx, chunks)
	switch {
	case errors.Is(err, transcriber.ErrNoSpeech):
		text = "(no speech detected)"
	case err != nil:
		return d.fail("transcription error: %v", err)
	}

	d.printf("\n  Transcribed text: %s\n\n", text)
	if !d.confirm("Is this correct?") {
		return d.fail("transcription not confirmed")
	}
	d.printf("  PASS: transcription verified by user\n")
	return true
}

// pickDevice resolves the configured device name, or asks when several
// devices exist and none was named.
func (d *Doctor) pickDevice(actx audio.Context) (*audio.DeviceInfo, error) {
	devices, err := actx.Devices()
	if err != nil {
		return nil, fmt.Errorf("cannot list devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, errors.New("no capture devices found")
	}
	if d.Device != "" {
		for i := range devices {
			if devices[i].Name == d.Device {
				return &devices[i], nil
			}
		}
		return nil, fmt.Errorf("device %q not found", d.Device)
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	d.printf("\nSelect input device:\n")
	for i, dev := range devices {
		d.printf("  %d. %s\n", i+1, dev.Name)
	}
	d.printf("Choice [1-%d]: ", len(devices))
	choice, _ := d.in.ReadString('\n')
	choice = strings.TrimSpace(choice)
	idx := 1
	if choice != "" {
		if _, err := fmt.Sscanf(choice, "%d", &idx); err != nil {
			return nil, fmt.Errorf("invalid choice %q", choice)
		}
	}
	if idx < 1 || idx > len(devices) {
		return nil, fmt.Errorf("invalid choice %q", choice)
	}
	return &devices[idx-1], nil
}

func (d *Doctor) checkTyping(context.Context) bool {
	msg, err := d.Verify()
	if err != nil {
		d.printf("  FAIL: %v\n", err)
		if runtime.GOOS == "linux" {
			d.printf("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput\n")
		}
		return false
	}
	d.printf("  PASS: %s\n", msg)
	if inject.ClipboardAvailable() {
		d.printf("  clipboard fallback available\n")
	} else {
		d.printf("  Warning: no clipboard tool found; characters without a key mapping will be skipped\n")
	}
	return true
}
