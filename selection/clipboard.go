package selection

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cb "github.com/atotto/clipboard"
)

const (
	// copyMarker is planted on the clipboard before the synthetic copy
	// keystroke; if it survives, nothing was selected.
	copyMarker = "\x00vox:no-selection\x00"

	copyPoll    = 20 * time.Millisecond
	copyTimeout = 400 * time.Millisecond

	// restoreDelay gives the focused app time to consume the paste
	// before the previous clipboard contents come back.
	restoreDelay = 600 * time.Millisecond
)

// ClipboardBridge implements Bridge with the system clipboard and
// synthetic copy/paste keystrokes. The user's clipboard contents are
// saved before each operation and restored afterwards.
type ClipboardBridge struct {
	mu     sync.Mutex
	nextID atomic.Uint64
}

// NewClipboardBridge initializes keystroke injection and returns the
// bridge. Injection setup can fail (no uinput access, no event
// source); the caller surfaces that at startup rather than per use.
func NewClipboardBridge() (*ClipboardBridge, error) {
	if err := initKeys(); err != nil {
		return nil, fmt.Errorf("keystroke injection: %w", err)
	}
	return &ClipboardBridge{}, nil
}

func (b *ClipboardBridge) Read() (Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, _ := cb.ReadAll()
	if err := cb.WriteAll(copyMarker); err != nil {
		return Snapshot{}, fmt.Errorf("clipboard write: %w", err)
	}
	defer b.restoreLater(prev)

	if err := sendCopy(); err != nil {
		return Snapshot{}, fmt.Errorf("copy keystroke: %w", err)
	}

	// The focused app fills the clipboard asynchronously.
	deadline := time.Now().Add(copyTimeout)
	for {
		text, err := cb.ReadAll()
		if err == nil && text != copyMarker {
			return Snapshot{
				Text:   text,
				Target: Target{ID: b.nextID.Add(1), Selection: true},
			}, nil
		}
		if time.Now().After(deadline) {
			return Snapshot{}, ErrNoSelection
		}
		time.Sleep(copyPoll)
	}
}

func (b *ClipboardBridge) Cursor() Target {
	return Target{ID: b.nextID.Add(1), Selection: false}
}

func (b *ClipboardBridge) Write(target Target, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if target.ID == 0 {
		return ErrTargetStale
	}

	prev, _ := cb.ReadAll()
	if err := cb.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	defer b.restoreLater(prev)

	if err := sendPaste(); err != nil {
		// The focused app can no longer accept the keystroke.
		return fmt.Errorf("%w: %v", ErrTargetStale, err)
	}
	return nil
}

func (b *ClipboardBridge) restoreLater(prev string) {
	if prev == "" || prev == copyMarker {
		return
	}
	go func() {
		time.Sleep(restoreDelay)
		cb.WriteAll(prev)
	}()
}
