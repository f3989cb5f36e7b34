package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"limbo/audio"
	"limbo/beep"
	"limbo/dictation"
	"limbo/doctor"
	"limbo/hotkey"
	"limbo/inject"
	"limbo/log"
	"limbo/shutdown"
	"limbo/transcriber"
)

var version = "dev"

// guiMode is set by initGUI before run starts.
var guiMode bool

// initCrashLog routes runtime crash output to crash_log.txt in the default
// log directory. run repoints it once -logpath is known.
func initCrashLog() {
	if dir, err := log.ResolveDir(""); err == nil {
		log.SetDir(dir)
		openCrashLog()
	}
}

func openCrashLog() {
	if err := log.EnsureDir(); err != nil {
		return
	}
	f, err := os.OpenFile(log.CrashPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(f, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(f, debug.CrashOptions{})
	f.Close()
}

func run() {
	fs, cfg := newFlagSet("limbo", os.Stderr)
	if err := parseConfig(fs, cfg, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if cfg.version {
		fmt.Printf("limbo %s\n", version)
		os.Exit(0)
	}

	loaded, err := loadEnv(envFiles())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	logPath, err := log.ResolveDir(cfg.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	openCrashLog()

	if cfg.profile != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", cfg.profile)
			if err := http.ListenAndServe(cfg.profile, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if cfg.doctor {
		os.Exit(doctor.Run(cfg.provider, cfg.device))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	if len(loaded) > 0 {
		log.Infof("env_loaded: %v", loaded)
	}

	if cfg.test {
		os.Exit(runTestMode(cfg))
	}

	if err := runDaemon(cfg); err != nil {
		log.Errorf("startup: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Close()
		os.Exit(1)
	}
}

// runDaemon wires the live components and blocks until shutdown.
func runDaemon(cfg *config) error {
	tr, err := transcriber.New(cfg.provider)
	if err != nil {
		return err
	}

	actx, err := audioContext()
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer actx.Close()

	device, err := resolveDevice(actx, cfg)
	if err != nil {
		return err
	}
	capture, err := actx.NewCapture(device, audio.Config())
	if err != nil {
		return fmt.Errorf("initializing capture device: %w", err)
	}
	defer capture.Close()
	rec := audio.NewRecorder(capture)

	var inj dictation.Injector
	if inj, err = inject.New(); err != nil {
		log.Warnf("keystroke injection unavailable: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: keystroke injection unavailable: %v\n", err)
		inj = unavailableInjector{err: err}
	}

	if cfg.beep {
		go beep.Init()
	} else {
		beep.Disable()
	}

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		return fmt.Errorf("registering hotkey %s: %w", hotkey.Combo, err)
	}
	defer hk.Unregister()

	ctx, stop := shutdown.Context(context.Background())
	defer stop()

	views := dictation.Views{cueView()}
	if guiMode {
		views = append(views, guiView(stop))
	}

	var tuiDone chan struct{}
	if cfg.tui {
		p := NewTUIProgram()
		setTUIProgram(p)
		tuiDone = make(chan struct{})
		go func() {
			defer close(tuiDone)
			if _, err := p.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			stop()
		}()
		views = append(views, tuiView{})
	}

	ctrl := dictation.New(rec, tr, inj, views, dictation.Config{
		TranscribeTimeout: cfg.timeout,
		OnInjectError: func(err error) {
			logToTUI("typing failed: %v", err)
		},
	})

	log.Startup(version, tr.Name(), rec.DeviceName())
	tuiSend(DeviceLineMsg{Text: deviceLineText(rec.DeviceName())})
	tuiSend(ModeLineMsg{Text: modeLineText(tr.Name(), cfg.timeout)})
	if !cfg.tui && !guiMode {
		fmt.Printf("limbo %s: press %s to dictate, Ctrl+C to quit\n", version, hotkey.Combo)
	}

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

	ctrl.Run(ctx)
	log.Info("shutdown")

	if tuiDone != nil {
		tuiSend(tea.Quit())
		<-tuiDone
		setTUIProgram(nil)
	}
	return nil
}

// audioContext returns the context created on the main thread in window
// mode, or a new one.
func audioContext() (audio.Context, error) {
	if guiAudioCtx != nil {
		return guiAudioCtx, nil
	}
	return audio.NewContext()
}

// resolveDevice maps -device or -setup to a capture device. nil means the
// system default.
func resolveDevice(actx audio.Context, cfg *config) (*audio.DeviceInfo, error) {
	if cfg.device != "" {
		devices, err := actx.Devices()
		if err != nil {
			return nil, fmt.Errorf("listing devices: %w", err)
		}
		for i := range devices {
			if devices[i].Name == cfg.device {
				return &devices[i], nil
			}
		}
		log.Warnf("device not found: %s", cfg.device)
		fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", cfg.device)
		return nil, nil
	}
	if !cfg.setup {
		return nil, nil
	}
	dev, err := audio.SelectDevice(actx)
	if err != nil {
		log.Warnf("device selection failed: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\nFalling back to default device\n", err)
		return nil, nil
	}
	return dev, nil
}

func deviceLineText(name string) string {
	if audio.IsBluetooth(name) {
		return name + " (bluetooth: expect low quality)"
	}
	return name
}

func modeLineText(provider string, timeout time.Duration) string {
	return fmt.Sprintf("%s · timeout %s", provider, timeout)
}

// cueView plays the start, stop and failure sounds on phase changes.
func cueView() dictation.View {
	last := dictation.Idle
	return dictation.ViewFunc(func(s dictation.State) {
		switch {
		case s.Phase == dictation.Listening && last != dictation.Listening:
			beep.Play(beep.Start)
		case s.Phase == dictation.Processing && last == dictation.Listening:
			beep.Play(beep.Stop)
		case s.Phase == dictation.Error && last != dictation.Error:
			beep.Play(beep.Fail)
		}
		last = s.Phase
	})
}

// unavailableInjector stands in when no keyboard backend could be opened,
// so dictation still shows results.
type unavailableInjector struct{ err error }

func (u unavailableInjector) Inject(string) error {
	return fmt.Errorf("keystroke injection unavailable: %w", u.err)
}
