package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"limbo/encoder"
)

const groqAPIURL = "https://api.groq.com/openai/v1/audio/transcriptions"

type Groq struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewGroq(apiKey string) *Groq {
	return &Groq{
		client: NewTracedClient(groqAPIURL),
		apiURL: groqAPIURL,
		apiKey: apiKey,
	}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Warm() { g.client.Warm() }

func (g *Groq) Transcribe(ctx context.Context, chunks [][]byte) (string, error) {
	return transcribeBatch(ctx, g.Name(), "wav", chunks, g.request)
}

type groqResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

func (g *Groq) request(ctx context.Context, audio []byte, enc encoder.Encoder) (*Result, error) {
	req, err := newUploadRequest(ctx, g.apiURL, g.apiKey, audio, enc,
		formField{"model", "whisper-large-v3-turbo"},
		formField{"response_format", "verbose_json"},
		formField{"language", language},
	)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(g.Name(), resp.StatusCode, resp.Body)
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return nil, &ServiceError{Detail: "groq: malformed response", Err: fmt.Errorf("groq response parse error: %w", err)}
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      gResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
		Duration:  gResp.Duration,
	}, nil
}
