package rewrite

import (
	"context"
	"sync"
	"time"
)

// Fake is a scriptable Rewriter for tests and headless runs.
type Fake struct {
	mu    sync.Mutex
	text  string
	err   error
	delay time.Duration

	calls []Call
}

// Call records one Rewrite invocation.
type Call struct {
	Text   string
	Preset Preset
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

// SetDelay makes Rewrite block for d before answering, honoring
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

// Calls returns a copy of all invocations so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Rewrite(ctx context.Context, text string, preset Preset) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Text: text, Preset: preset})
	out, err, delay := f.text, f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return out, nil
}
