package transcriber

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"limbo/encoder"
)

type formField struct{ name, value string }

// newUploadRequest builds an OpenAI-style multipart transcription request.
func newUploadRequest(ctx context.Context, url, apiKey string, audio []byte, enc encoder.Encoder, fields ...formField) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio."+enc.Ext())
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}
