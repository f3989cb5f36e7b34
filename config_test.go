package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"limbo/dictation"
)

func parse(t *testing.T, args ...string) (*config, error) {
	t.Helper()
	fs, c := newFlagSet("limbo", io.Discard)
	return c, parseConfig(fs, c, args)
}

func TestConfigDefaults(t *testing.T) {
	c, err := parse(t)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.tui || c.gui || !c.beep || c.test {
		t.Errorf("mode flags = tui:%v gui:%v beep:%v test:%v", c.tui, c.gui, c.beep, c.test)
	}
	if c.timeout != dictation.DefaultTranscribeTimeout {
		t.Errorf("timeout = %v, want %v", c.timeout, dictation.DefaultTranscribeTimeout)
	}
	if c.provider != "" {
		t.Errorf("provider = %q, want auto", c.provider)
	}
}

func TestConfigFlags(t *testing.T) {
	c, err := parse(t, "-provider", "deepgram", "-device", "USB Mic", "-timeout", "5s", "-beep=false", "-logpath", "./")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.provider != "deepgram" || c.device != "USB Mic" || c.timeout != 5*time.Second || c.beep || c.logPath != "./" {
		t.Errorf("config = %+v", *c)
	}
}

func TestConfigModes(t *testing.T) {
	t.Run("gui replaces tui", func(t *testing.T) {
		c, err := parse(t, "-gui")
		if err != nil {
			t.Fatal(err)
		}
		if !c.gui || c.tui {
			t.Errorf("gui=%v tui=%v", c.gui, c.tui)
		}
	})

	t.Run("test mode is headless", func(t *testing.T) {
		c, err := parse(t, "-gui", "-test", "speech.wav")
		if err != nil {
			t.Fatal(err)
		}
		if c.gui || c.tui || c.beep {
			t.Errorf("gui=%v tui=%v beep=%v", c.gui, c.tui, c.beep)
		}
		if len(c.args) != 1 || c.args[0] != "speech.wav" {
			t.Errorf("args = %v", c.args)
		}
	})
}

func TestConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"zero timeout", []string{"-timeout", "0s"}, "-timeout must be positive"},
		{"unknown provider", []string{"-provider", "whisper"}, `unknown provider "whisper"`},
		{"fake outside test", []string{"-provider", "fake"}, "only available with -test"},
		{"test without wav", []string{"-test"}, "usage: limbo -test"},
		{"bad flag", []string{"-nope"}, "not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := parse(t, "-test", "-provider", "fake", "x.wav"); err != nil {
		t.Errorf("fake provider in test mode: %v", err)
	}
}

// unsetForTest clears key for the duration of the test and restores it after.
func unsetForTest(t *testing.T, key string) {
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	missing := filepath.Join(dir, "missing.env")
	os.WriteFile(first, []byte("LIMBO_TEST_A=first\n"), 0644)
	os.WriteFile(second, []byte("LIMBO_TEST_A=second\nLIMBO_TEST_B=second\nLIMBO_TEST_C=file\n"), 0644)

	unsetForTest(t, "LIMBO_TEST_A")
	unsetForTest(t, "LIMBO_TEST_B")
	t.Setenv("LIMBO_TEST_C", "env")

	loaded, err := loadEnv([]string{first, missing, second})
	if err != nil {
		t.Fatalf("loadEnv: %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("loaded = %v, want the two existing files", loaded)
	}

	for key, want := range map[string]string{
		"LIMBO_TEST_A": "first",
		"LIMBO_TEST_B": "second",
		"LIMBO_TEST_C": "env",
	} {
		if got := os.Getenv(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestLoadEnvMalformed(t *testing.T) {
	bad := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(bad, []byte("LIMBO_TEST_BAD='unterminated\n"), 0644)
	unsetForTest(t, "LIMBO_TEST_BAD")

	if _, err := loadEnv([]string{bad}); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestWantsGUI(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-gui"}, true},
		{[]string{"-provider", "groq", "--gui=true"}, true},
		{[]string{"-gui=false"}, false},
		{[]string{"--", "-gui"}, false},
	}
	for _, tt := range tests {
		if got := wantsGUI(tt.args); got != tt.want {
			t.Errorf("wantsGUI(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestStatusLines(t *testing.T) {
	if got := deviceLineText("Built-in Microphone"); got != "Built-in Microphone" {
		t.Errorf("deviceLineText = %q", got)
	}
	if got := deviceLineText("AirPods Pro"); !strings.Contains(got, "bluetooth") {
		t.Errorf("deviceLineText(AirPods Pro) = %q, want bluetooth note", got)
	}
	if got := modeLineText("groq", 30*time.Second); got != "groq · timeout 30s" {
		t.Errorf("modeLineText = %q", got)
	}
}
