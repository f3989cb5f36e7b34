package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"limbo/encoder"
)

const openaiAPIURL = "https://api.openai.com/v1/audio/transcriptions"

type OpenAI struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: NewTracedClient(openaiAPIURL),
		apiURL: openaiAPIURL,
		apiKey: apiKey,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Warm() { o.client.Warm() }

func (o *OpenAI) Transcribe(ctx context.Context, chunks [][]byte) (string, error) {
	return transcribeBatch(ctx, o.Name(), "wav", chunks, o.request)
}

func (o *OpenAI) request(ctx context.Context, audio []byte, enc encoder.Encoder) (*Result, error) {
	req, err := newUploadRequest(ctx, o.apiURL, o.apiKey, audio, enc,
		formField{"model", "gpt-4o-transcribe"},
		formField{"response_format", "json"},
		formField{"language", language},
	)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(o.Name(), resp.StatusCode, resp.Body)
	}

	var oResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body, &oResp); err != nil {
		return nil, &ServiceError{Detail: "openai: malformed response", Err: fmt.Errorf("openai response parse error: %w", err)}
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return &Result{
		Text:      oResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
	}, nil
}
