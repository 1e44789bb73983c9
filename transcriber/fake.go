package transcriber

import (
	"context"
	"sync"
	"time"
)

// Fake is a scriptable Transcriber for tests and headless runs.
type Fake struct {
	mu    sync.Mutex
	text  string
	err   error
	delay time.Duration
	calls int
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

// SetDelay makes Transcribe block for d before answering, honoring
// context cancellation while it waits.
func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *Fake) SetResult(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.err = text, err
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, _ []byte, _ Options) (Result, error) {
	f.mu.Lock()
	text, err, delay := f.text, f.err, f.delay
	f.calls++
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}
