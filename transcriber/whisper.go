package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"vox/encoder"
	"vox/fault"
)

const whisperHealthTimeout = 2 * time.Second

// Whisper talks to a local whisper.cpp server. Audio is submitted as
// uncompressed WAV since the round trip never leaves the machine.
type Whisper struct {
	client  *TracedClient
	baseURL string
}

func NewWhisper(baseURL string) *Whisper {
	return &Whisper{
		client:  NewTracedClient(),
		baseURL: baseURL,
	}
}

func (w *Whisper) Name() string { return "whisper" }

// Health probes the server before the first capture so a missing
// model surfaces immediately instead of after the user stops talking.
func (w *Whisper) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, whisperHealthTimeout)
	defer cancel()

	u, err := url.JoinPath(w.baseURL, "/health")
	if err != nil {
		return fmt.Errorf("%w: bad whisper URL %q", fault.ErrModelUnavailable, w.baseURL)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: whisper server unreachable at %s", fault.ErrModelUnavailable, w.baseURL)
	}
	if resp.StatusCode != 200 {
		return fault.FromStatus(resp.StatusCode, string(resp.Body))
	}
	return nil
}

type whisperResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (w *Whisper) Transcribe(ctx context.Context, pcm []byte, opts Options) (Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(encoder.WAV(pcm)); err != nil {
		return Result{}, err
	}
	writer.WriteField("response_format", "json")
	if opts.Language != "" {
		writer.WriteField("language", opts.Language)
	}
	writer.Close()

	u, err := url.JoinPath(w.baseURL, "/inference")
	if err != nil {
		return Result{}, fmt.Errorf("%w: bad whisper URL %q", fault.ErrModelUnavailable, w.baseURL)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u, &body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return Result{}, fault.FromTransport(err)
	}
	if resp.StatusCode != 200 {
		return Result{}, fault.FromStatus(resp.StatusCode, string(resp.Body))
	}

	var wResp whisperResponse
	if err := json.Unmarshal(resp.Body, &wResp); err != nil {
		return Result{}, fmt.Errorf("%w: response parse: %v", fault.ErrModel, err)
	}
	if wResp.Error != "" {
		return Result{}, fmt.Errorf("%w: %s", fault.ErrModel, wResp.Error)
	}

	return Result{
		Text:    wResp.Text,
		Metrics: resp.Metrics,
	}, nil
}
