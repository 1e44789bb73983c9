// Package selection reads and replaces text in whatever application
// has focus. The default implementation works through the system
// clipboard and synthetic copy/paste keystrokes; the interface keeps
// the pipeline testable without a live desktop.
package selection

import "errors"

var (
	// ErrNoSelection means the focused app has no selected text.
	ErrNoSelection = errors.New("no selection")

	// ErrTargetStale means the replacement target vanished between
	// capture and write (focus moved, app closed). Reportable, never
	// fatal; the user re-triggers.
	ErrTargetStale = errors.New("replacement target is stale")
)

// Target identifies where output text goes: the selection range
// captured at read time, or the cursor position.
type Target struct {
	ID        uint64
	Selection bool // true: replaces the captured selection
}

// Snapshot is a selection read: its text and the target that writes
// back into the same place.
type Snapshot struct {
	Text   string
	Target Target
}

// Bridge is the contract with the focused application.
type Bridge interface {
	// Read captures the current selection. ErrNoSelection when the
	// focused app has no selected text.
	Read() (Snapshot, error)

	// Cursor returns an insert-at-cursor target for when no selection
	// is required.
	Cursor() Target

	// Write replaces the target with text. ErrTargetStale when the
	// target can no longer be written.
	Write(target Target, text string) error
}
