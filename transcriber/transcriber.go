package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

const language = "en"

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

// Result is what a backend extracted from one response.
type Result struct {
	Text       string
	Metrics    *NetworkMetrics
	RateLimit  string
	Confidence float64
	Duration   float64
}

// Transcriber turns one recording into text.
//
// Transcribe returns ErrNoSpeech when the service heard nothing it could
// transcribe, and a *ServiceError for every other failure.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, chunks [][]byte) (string, error)
	// Warm opens a connection ahead of the upload. Best effort.
	Warm()
}

// Providers lists backends in the order their keys are probed.
var Providers = []struct {
	Name   string
	EnvKey string
}{
	{"groq", "GROQ_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"deepgram", "DEEPGRAM_API_KEY"},
	{"google", "GOOGLE_SPEECH_API_KEY"},
}

// New builds the named backend, or the first one with a key in the
// environment when name is empty.
func New(name string) (Transcriber, error) {
	if name == "" {
		for _, p := range Providers {
			if os.Getenv(p.EnvKey) != "" {
				name = p.Name
				break
			}
		}
		if name == "" {
			keys := make([]string, len(Providers))
			for i, p := range Providers {
				keys[i] = p.EnvKey
			}
			return nil, fmt.Errorf("no speech backend configured: set one of %s", strings.Join(keys, ", "))
		}
	}

	for _, p := range Providers {
		if p.Name != name {
			continue
		}
		key := os.Getenv(p.EnvKey)
		if key == "" {
			return nil, fmt.Errorf("%s selected but %s is not set", name, p.EnvKey)
		}
		switch name {
		case "groq":
			return NewGroq(key), nil
		case "openai":
			return NewOpenAI(key), nil
		case "deepgram":
			return NewDeepgram(key), nil
		case "google":
			return NewGoogle(key), nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}
