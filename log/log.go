package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const (
	diagFileName  = "diagnostics_log.txt"
	crashFileName = "crash_log.txt"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady atomic.Bool
	dir      string
)

// Metrics describes one upload to a speech backend.
type Metrics struct {
	AudioS     float64
	EncodedKB  float64
	EncodeMs   float64
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
	TLSProto   string
	RateLimit  string
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}
	// Priority 2: LIMBO_LOG_PATH environment variable
	if envPath := os.Getenv("LIMBO_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}
	// Priority 3: OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

// CrashPath is where the runtime writes fatal panics and stack dumps.
func CrashPath() string { return filepath.Join(dir, crashFileName) }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, diagFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	diagFile = f

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05.000",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", os.Getpid()).Logger()
	logReady.Store(true)
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	logReady.Store(false)
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
}

func Info(msg string) {
	if logReady.Load() {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady.Load() {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady.Load() {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady.Load() {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady.Load() {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady.Load() {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Startup records the configuration a run was started with.
func Startup(version, provider, device string) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().
		Str("version", version).
		Str("provider", provider).
		Str("device", device).
		Msg("startup")
}

func SessionStart(session string) {
	if !logReady.Load() {
		return
	}
	diagLog.Info().Str("session", session).Msg("session_start")
}

func SessionEnd(session string, chunks int, audioS float64, dropped uint64) {
	if !logReady.Load() {
		return
	}
	ev := diagLog.Info().
		Str("session", session).
		Int("chunks", chunks).
		Float64("audio_s", audioS)
	if dropped > 0 {
		ev = ev.Uint64("dropped_blocks", dropped)
	}
	ev.Msg("session_end")
}

func StateChange(session, from, to, text string) {
	if !logReady.Load() {
		return
	}
	ev := diagLog.Info().
		Str("from", from).
		Str("to", to)
	if session != "" {
		ev = ev.Str("session", session)
	}
	if text != "" && to == "error" {
		ev = ev.Str("detail", text)
	}
	ev.Msg("state")
}

func TranscriptionMetrics(provider, format string, m Metrics) {
	if !logReady.Load() {
		return
	}
	connStatus := "new"
	if m.ConnReused {
		connStatus = "reused"
	}
	ev := diagLog.Info().
		Str("provider", provider).
		Str("format", format).
		Str("conn", connStatus)
	if m.TLSProto != "" {
		ev = ev.Str("tls_proto", m.TLSProto)
	}
	if m.RateLimit != "" {
		ev = ev.Str("rate_limit", m.RateLimit)
	}
	ev.Float64("audio_s", m.AudioS).
		Float64("encoded_kb", m.EncodedKB).
		Float64("encode_ms", m.EncodeMs).
		Float64("dns_ms", m.DNSMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Msg("transcription")
}
