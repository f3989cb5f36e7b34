package transcriber

import (
	"bytes"
	"context"
	"strings"
	"time"

	"limbo/encoder"
	"limbo/log"
)

// requestFunc uploads one encoded recording.
type requestFunc func(ctx context.Context, audio []byte, enc encoder.Encoder) (*Result, error)

// transcribeBatch concatenates chunks, encodes them as format and makes a
// single request. It owns the mapping from backend results to the
// package's error taxonomy.
func transcribeBatch(ctx context.Context, provider, format string, chunks [][]byte, request requestFunc) (string, error) {
	pcm := bytes.Join(chunks, nil)
	if len(pcm) < encoder.BytesPerSample {
		return "", ErrNoSpeech
	}

	enc, err := encoder.New(format)
	if err != nil {
		return "", &ServiceError{Detail: "audio encoding failed", Err: err}
	}
	encodeStart := time.Now()
	audio, err := encoder.EncodePCM(enc, pcm)
	if err != nil {
		return "", &ServiceError{Detail: "audio encoding failed", Err: err}
	}
	encodeTime := time.Since(encodeStart)

	result, err := request(ctx, audio, enc)
	if err != nil {
		err = classify(provider, err)
		log.Warnf("%s transcription failed: %v", provider, err)
		return "", err
	}

	m := log.Metrics{
		AudioS:    float64(enc.TotalFrames()) / encoder.SampleRate,
		EncodedKB: float64(len(audio)) / 1024,
		EncodeMs:  float64(encodeTime.Microseconds()) / 1000,
		RateLimit: result.RateLimit,
	}
	if nm := result.Metrics; nm != nil {
		m.DNSMs = float64(nm.DNS.Milliseconds())
		m.TLSMs = float64(nm.TLS.Milliseconds())
		m.TTFBMs = float64(nm.TTFB.Milliseconds())
		m.TotalMs = float64(nm.Total.Milliseconds())
		m.ConnReused = nm.ConnReused
		m.TLSProto = nm.TLSProtocol
	}
	log.TranscriptionMetrics(provider, format, m)

	// blank means silence; anything else is passed through as received
	if strings.TrimSpace(result.Text) == "" {
		return "", ErrNoSpeech
	}
	return result.Text, nil
}
