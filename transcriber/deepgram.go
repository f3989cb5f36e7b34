package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"limbo/encoder"
)

const (
	deepgramAPIURL  = "https://api.deepgram.com/v1/listen?model=nova-3&smart_format=true&language=" + language
	deepgramWarmURL = "https://api.deepgram.com"
)

type Deepgram struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		client: NewTracedClient(deepgramWarmURL),
		apiURL: deepgramAPIURL,
		apiKey: apiKey,
	}
}

func (d *Deepgram) Name() string { return "deepgram" }

func (d *Deepgram) Warm() { d.client.Warm() }

func (d *Deepgram) Transcribe(ctx context.Context, chunks [][]byte) (string, error) {
	return transcribeBatch(ctx, d.Name(), "wav", chunks, d.request)
}

type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (d *Deepgram) request(ctx context.Context, audio []byte, enc encoder.Encoder) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL, bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", enc.ContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(d.Name(), resp.StatusCode, resp.Body)
	}

	var dgResp deepgramResponse
	if err := json.Unmarshal(resp.Body, &dgResp); err != nil {
		return nil, &ServiceError{Detail: "deepgram: malformed response", Err: fmt.Errorf("deepgram response parse error: %w", err)}
	}

	var text string
	var confidence float64
	if len(dgResp.Results.Channels) > 0 && len(dgResp.Results.Channels[0].Alternatives) > 0 {
		alt := dgResp.Results.Channels[0].Alternatives[0]
		text = alt.Transcript
		confidence = alt.Confidence
	}

	remaining := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-remaining", "x-ratelimit-remaining", "ratelimit-remaining")
	limit := firstNonEmpty(resp.Header,
		"x-dg-ratelimit-limit", "x-ratelimit-limit", "ratelimit-limit")

	return &Result{
		Text:       text,
		Metrics:    resp.Metrics,
		RateLimit:  remaining + "/" + limit,
		Confidence: confidence,
		Duration:   dgResp.Metadata.Duration,
	}, nil
}
