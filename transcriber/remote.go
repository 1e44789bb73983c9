package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"vox/encoder"
	"vox/fault"
)

// Remote talks to an OpenAI-compatible transcription endpoint. Audio
// is FLAC-compressed before upload since upstream bandwidth dominates
// the round trip for cloud backends.
type Remote struct {
	client *TracedClient
	apiURL string
	apiKey string
	model  string
}

func NewRemote(apiURL, apiKey, model string) *Remote {
	return &Remote{
		client: NewTracedClient(),
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
	}
}

func (r *Remote) Name() string { return "remote" }

// Warm pre-opens the TLS connection. Best effort.
func (r *Remote) Warm(ctx context.Context) {
	r.client.Warm(ctx, r.apiURL)
}

type remoteResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
}

func (r *Remote) Transcribe(ctx context.Context, pcm []byte, opts Options) (Result, error) {
	flac, err := encoder.FLAC(pcm)
	if err != nil {
		return Result{}, fmt.Errorf("flac encode: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(flac); err != nil {
		return Result{}, err
	}
	writer.WriteField("model", r.model)
	writer.WriteField("response_format", "json")
	if opts.Language != "" {
		writer.WriteField("language", opts.Language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", r.apiURL, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fault.FromTransport(err)
	}
	if resp.StatusCode != 200 {
		return Result{}, fault.FromStatus(resp.StatusCode, string(resp.Body))
	}

	var rResp remoteResponse
	if err := json.Unmarshal(resp.Body, &rResp); err != nil {
		return Result{}, fmt.Errorf("%w: response parse: %v", fault.ErrModel, err)
	}

	remaining := firstNonEmpty(resp.Header, "x-ratelimit-remaining-requests")
	limit := firstNonEmpty(resp.Header, "x-ratelimit-limit-requests")

	return Result{
		Text:      rResp.Text,
		Metrics:   resp.Metrics,
		RateLimit: remaining + "/" + limit,
		AudioLen:  rResp.Duration,
	}, nil
}
