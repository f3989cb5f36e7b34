package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"limbo/dictation"
	"limbo/transcriber"
)

// fakeProvider selects the canned transcriber; only valid with -test.
const fakeProvider = "fake"

type config struct {
	provider string
	device   string
	setup    bool
	timeout  time.Duration
	logPath  string
	tui      bool
	gui      bool
	beep     bool
	test     bool
	doctor   bool
	version  bool
	profile  string
	args     []string
}

func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *config) {
	c := &config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&c.provider, "provider", "", "Speech backend: groq, openai, deepgram or google (default: first with an API key set)")
	fs.StringVar(&c.device, "device", "", "Use named microphone device")
	fs.BoolVar(&c.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	fs.DurationVar(&c.timeout, "timeout", dictation.DefaultTranscribeTimeout, "Give up on a transcription after this long")
	fs.StringVar(&c.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	fs.BoolVar(&c.tui, "tui", true, "Run with terminal UI")
	fs.BoolVar(&c.gui, "gui", false, "Show status in a floating window (needs a build with -tags gui)")
	fs.BoolVar(&c.beep, "beep", true, "Play a sound when dictation starts, stops or fails")
	fs.BoolVar(&c.test, "test", false, "Test mode (headless, stdin-driven): limbo -test <wav-file>")
	fs.BoolVar(&c.doctor, "doctor", false, "Run system diagnostics and exit")
	fs.BoolVar(&c.version, "version", false, "Print version and exit")
	fs.StringVar(&c.profile, "profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	return fs, c
}

// parseConfig parses command-line arguments and checks them for
// consistency. The window view replaces the terminal one, and test mode
// runs headless.
func parseConfig(fs *flag.FlagSet, c *config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	c.args = fs.Args()

	if c.timeout <= 0 {
		return fmt.Errorf("-timeout must be positive, got %v", c.timeout)
	}
	if err := checkProvider(c.provider, c.test); err != nil {
		return err
	}
	if c.test {
		if len(c.args) == 0 {
			return errors.New("usage: limbo -test <wav-file>")
		}
		c.tui = false
		c.gui = false
		c.beep = false
	}
	if c.gui {
		c.tui = false
	}
	return nil
}

func checkProvider(name string, test bool) error {
	if name == "" {
		return nil
	}
	if name == fakeProvider {
		if !test {
			return errors.New("-provider fake is only available with -test")
		}
		return nil
	}
	for _, p := range transcriber.Providers {
		if p.Name == name {
			return nil
		}
	}
	return fmt.Errorf("unknown provider %q", name)
}

// envFiles lists .env files in load order. Earlier files win since
// godotenv never overrides a variable that is already set, and the real
// environment beats both.
func envFiles() []string {
	files := []string{".env"}
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "limbo", ".env"))
	}
	return files
}

// loadEnv loads each file that exists and returns the ones it read.
func loadEnv(files []string) ([]string, error) {
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return loaded, fmt.Errorf("load %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}

// wantsGUI spots -gui before flags are parsed, since the window has to
// own the main thread from the start.
func wantsGUI(args []string) bool {
	for _, a := range args {
		switch a {
		case "-gui", "--gui", "-gui=true", "--gui=true":
			return true
		case "--":
			return false
		}
	}
	return false
}
