package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"limbo/audio"
	"limbo/beep"
	"limbo/dictation"
	"limbo/hotkey"
	"limbo/inject"
	"limbo/log"
	"limbo/transcriber"
)

// fakeTextEnv holds the transcript returned by -provider fake. Empty means
// the fake hears no speech.
const fakeTextEnv = "LIMBO_FAKE_TEXT"

// runTestMode replays a WAV file as the microphone and takes hotkey
// presses from stdin, one command per line:
//
//	TOGGLE    press the hotkey
//	WAIT      block until a dictation cycle is back to idle
//	SLEEP n   pause n milliseconds
//	QUIT      shut down
//
// Typed text goes to stdout as "TYPED: <text>" and every state change as
// "STATE: <phase>".
func runTestMode(cfg *config) int {
	beep.Disable()

	var tr transcriber.Transcriber
	if cfg.provider == fakeProvider {
		tr = transcriber.NewFake(os.Getenv(fakeTextEnv), nil)
	} else {
		var err error
		if tr, err = transcriber.New(cfg.provider); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	fakeCtx, err := audio.NewFakeContext(cfg.args[0], true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		return 1
	}
	capture, err := fakeCtx.NewCapture(nil, audio.Config())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		return 1
	}
	defer capture.Close()
	rec := audio.NewRecorder(capture)

	inj := inject.NewFake(nil)
	inj.Injected = make(chan string)
	go func() {
		for text := range inj.Injected {
			fmt.Printf("TYPED: %s\n", text)
		}
	}()

	cycles := make(chan struct{}, 64)
	ctrl := dictation.New(rec, tr, inj, testView(os.Stdout, cycles), dictation.Config{
		TranscribeTimeout: cfg.timeout,
		OnInjectError: func(err error) {
			fmt.Printf("INJECT_ERROR: %v\n", err)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hk := hotkey.NewFake()
	go func() {
		for {
			select {
			case <-hk.Keydown():
				ctrl.Toggle()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Startup(version, tr.Name(), rec.DeviceName())
	go func() {
		driveTestMode(ctx, os.Stdin, hk, cycles)
		cancel()
	}()

	ctrl.Run(ctx)
	return 0
}

// testView prints each state and signals cycles whenever the controller
// comes back to Idle.
func testView(w io.Writer, cycles chan<- struct{}) dictation.View {
	last := dictation.Idle
	return dictation.ViewFunc(func(s dictation.State) {
		fmt.Fprintf(w, "STATE: %s\n", s.Phase)
		if s.Phase == dictation.Idle && last != dictation.Idle {
			select {
			case cycles <- struct{}{}:
			default:
			}
		}
		last = s.Phase
	})
}

// driveTestMode runs stdin commands until QUIT, EOF or ctx ends.
func driveTestMode(ctx context.Context, r io.Reader, hk *hotkey.FakeHotkey, cycles <-chan struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "TOGGLE":
			hk.SimKeydown()
		case cmd == "WAIT":
			select {
			case <-cycles:
			case <-ctx.Done():
				return
			}
		case cmd == "QUIT":
			return
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[len("SLEEP "):]); err == nil {
				select {
				case <-time.After(time.Duration(ms) * time.Millisecond):
				case <-ctx.Done():
					return
				}
			}
		case cmd == "":
		default:
			log.Warnf("test mode: unknown command %q", cmd)
		}
	}
}
