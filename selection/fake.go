package selection

import "sync"

// FakeBridge is a scriptable Bridge for tests. It never touches the
// system clipboard or synthesizes keystrokes.
type FakeBridge struct {
	mu sync.Mutex

	// Text is returned by Read when NoSelection is false.
	Text string
	// NoSelection makes Read fail with ErrNoSelection.
	NoSelection bool
	// ReadErr, when set, is returned by Read as-is.
	ReadErr error
	// StaleWrite makes every Write fail with ErrTargetStale.
	StaleWrite bool
	// WriteErr, when set, is returned by Write as-is.
	WriteErr error

	nextID uint64
	writes []WriteCall
}

// WriteCall records a single delivered replacement.
type WriteCall struct {
	Target Target
	Text   string
}

func NewFakeBridge(text string) *FakeBridge {
	return &FakeBridge{Text: text}
}

func (f *FakeBridge) Read() (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadErr != nil {
		return Snapshot{}, f.ReadErr
	}
	if f.NoSelection {
		return Snapshot{}, ErrNoSelection
	}
	f.nextID++
	return Snapshot{
		Text:   f.Text,
		Target: Target{ID: f.nextID, Selection: true},
	}, nil
}

func (f *FakeBridge) Cursor() Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return Target{ID: f.nextID, Selection: false}
}

func (f *FakeBridge) Write(target Target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	if f.StaleWrite {
		return ErrTargetStale
	}
	f.writes = append(f.writes, WriteCall{Target: target, Text: text})
	return nil
}

// Writes returns a copy of all replacements delivered so far.
func (f *FakeBridge) Writes() []WriteCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]WriteCall, len(f.writes))
	copy(out, f.writes)
	return out
}
