package selection

import (
	"errors"
	"testing"
)

func TestFakeBridgeRoundTrip(t *testing.T) {
	b := NewFakeBridge("hello there")

	snap, err := b.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snap.Text != "hello there" {
		t.Errorf("Text = %q", snap.Text)
	}
	if !snap.Target.Selection {
		t.Error("Read target should mark a selection")
	}

	if err := b.Write(snap.Target, "general kenobi"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	writes := b.Writes()
	if len(writes) != 1 || writes[0].Text != "general kenobi" {
		t.Fatalf("writes = %+v", writes)
	}
	if writes[0].Target != snap.Target {
		t.Error("write landed on a different target than the read returned")
	}
}

func TestFakeBridgeNoSelection(t *testing.T) {
	b := NewFakeBridge("")
	b.NoSelection = true

	if _, err := b.Read(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Read err = %v, want ErrNoSelection", err)
	}
}

func TestFakeBridgeStaleWrite(t *testing.T) {
	b := NewFakeBridge("x")
	snap, _ := b.Read()
	b.StaleWrite = true

	if err := b.Write(snap.Target, "y"); !errors.Is(err, ErrTargetStale) {
		t.Fatalf("Write err = %v, want ErrTargetStale", err)
	}
	if len(b.Writes()) != 0 {
		t.Error("stale write must not be recorded")
	}
}

func TestCursorTargetIsNotASelection(t *testing.T) {
	b := NewFakeBridge("x")
	if b.Cursor().Selection {
		t.Error("cursor target must not claim a selection")
	}
}

func TestTargetsAreDistinct(t *testing.T) {
	b := NewFakeBridge("x")
	first, _ := b.Read()
	second, _ := b.Read()
	if first.Target.ID == second.Target.ID {
		t.Error("each acquisition should mint a fresh target")
	}
	if first.Target.ID == b.Cursor().ID {
		t.Error("cursor target should not reuse a selection target id")
	}
}
