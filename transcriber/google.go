package transcriber

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"limbo/encoder"
)

const (
	googleAPIURL  = "https://www.google.com/speech-api/v2/recognize"
	googleWarmURL = "https://www.google.com"
	googleLang    = "en-US"
)

// Google talks to the speech API used by Chromium. It only accepts FLAC.
type Google struct {
	client *TracedClient
	apiURL string
	apiKey string
}

func NewGoogle(apiKey string) *Google {
	return &Google{
		client: NewTracedClient(googleWarmURL),
		apiURL: googleAPIURL,
		apiKey: apiKey,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Warm() { g.client.Warm() }

func (g *Google) Transcribe(ctx context.Context, chunks [][]byte) (string, error) {
	return transcribeBatch(ctx, g.Name(), "flac", chunks, g.request)
}

type googleResponse struct {
	Result []struct {
		Alternative []struct {
			Transcript string   `json:"transcript"`
			Confidence *float64 `json:"confidence"`
		} `json:"alternative"`
		Final bool `json:"final"`
	} `json:"result"`
}

func (g *Google) request(ctx context.Context, audio []byte, enc encoder.Encoder) (*Result, error) {
	q := url.Values{}
	q.Set("client", "chromium")
	q.Set("lang", googleLang)
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"?"+q.Encode(), bytes.NewReader(audio))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", enc.ContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(g.Name(), resp.StatusCode, resp.Body)
	}

	text, confidence, err := parseGoogle(resp.Body)
	if err != nil {
		return nil, &ServiceError{Detail: "google: malformed response", Err: err}
	}
	return &Result{Text: text, Metrics: resp.Metrics, Confidence: confidence}, nil
}

// parseGoogle reads the newline-delimited JSON objects the API streams
// back. The first object usually carries an empty result; the first
// non-empty one holds the hypotheses. Within it the alternative carrying a
// confidence score is the best one, otherwise the first is used.
func parseGoogle(body []byte) (string, float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var r googleResponse
		if err := json.Unmarshal(line, &r); err != nil {
			return "", 0, fmt.Errorf("google response parse error: %w", err)
		}
		if len(r.Result) == 0 || len(r.Result[0].Alternative) == 0 {
			continue
		}
		alts := r.Result[0].Alternative
		for _, a := range alts {
			if a.Confidence != nil {
				return a.Transcript, *a.Confidence, nil
			}
		}
		return alts[0].Transcript, 0, nil
	}
	return "", 0, sc.Err()
}
