// Package transcriber turns captured PCM audio into text. All
// implementations block until the model answers or the context is
// cancelled.
package transcriber

import (
	"context"
	"net/http"
	"time"
)

// Options tune a single transcription request.
type Options struct {
	// Language is an ISO 639-1 hint. Empty means autodetect.
	Language string
}

// Result carries the transcript plus request-level diagnostics.
type Result struct {
	Text      string
	Metrics   *NetworkMetrics
	RateLimit string
	// AudioLen is the duration of the submitted audio as reported by
	// the model, in seconds. Zero when the backend does not report it.
	AudioLen float64
}

type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, pcm []byte, opts Options) (Result, error)
}

type NetworkMetrics struct {
	DNS        time.Duration
	ConnWait   time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ReqHeaders time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool
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
