package hotkey

import (
	"errors"
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) Combo {
	t.Helper()
	c, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return c
}

func waitEdge(t *testing.T, h *Handle, want Edge) Event {
	t.Helper()
	select {
	case ev := <-h.Events():
		if ev.Edge != want {
			t.Fatalf("got edge %v, want %v", ev.Edge, want)
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %v edge", want)
		return Event{}
	}
}

func expectNoEdge(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case ev := <-h.Events():
		t.Fatalf("unexpected edge %v", ev.Edge)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseCombo(t *testing.T) {
	c := mustParse(t, "ctrl+shift+space")
	if c.Mods != ModCtrl|ModShift || c.Key != "space" {
		t.Errorf("unexpected combo %+v", c)
	}
	if got := c.String(); got != "ctrl+shift+space" {
		t.Errorf("String() = %q", got)
	}

	if _, err := Parse("v"); err == nil {
		t.Error("bare key without modifier should fail validation")
	}
	if _, err := Parse("ctrl+"); err == nil {
		t.Error("modifier without base key should fail validation")
	}
	if _, err := Parse("ctrl+a+b"); err == nil {
		t.Error("two base keys should fail")
	}
	if _, err := Parse("ctrl+hyper"); err == nil {
		t.Error("unknown key should fail")
	}

	alias := mustParse(t, "cmd+v")
	if alias.Mods != ModSuper || alias.Key != "v" {
		t.Errorf("cmd alias: %+v", alias)
	}
}

func TestRegisterConflict(t *testing.T) {
	reg, _ := NewFakeRegistry()
	defer reg.Close()

	combo := mustParse(t, "ctrl+shift+g")
	if _, err := reg.Register("rewrite.grammar", combo); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := reg.Register("speech", combo)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// Distinct combo is fine.
	if _, err := reg.Register("speech", mustParse(t, "ctrl+shift+space")); err != nil {
		t.Errorf("distinct combo rejected: %v", err)
	}
}

func TestRebindRequiresUnregister(t *testing.T) {
	reg, _ := NewFakeRegistry()
	defer reg.Close()

	h, err := reg.Register("speech", mustParse(t, "ctrl+shift+space"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := reg.Register("speech", mustParse(t, "alt+d")); err == nil {
		t.Fatal("re-register without unregister should fail")
	}

	reg.Unregister(h)
	if _, err := reg.Register("speech", mustParse(t, "alt+d")); err != nil {
		t.Fatalf("register after unregister: %v", err)
	}
	// The old combo is free again too.
	if _, err := reg.Register("other", mustParse(t, "ctrl+shift+space")); err != nil {
		t.Fatalf("old combo still reserved: %v", err)
	}
}

func TestEdgeDelivery(t *testing.T) {
	reg, sim := NewFakeRegistry()
	defer reg.Close()

	h, err := reg.Register("speech", mustParse(t, "ctrl+shift+space"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	before := time.Now()
	sim.SimPress("speech")
	ev := waitEdge(t, h, Pressed)
	if ev.Action != "speech" {
		t.Errorf("event action = %q", ev.Action)
	}
	if ev.Time.Before(before) {
		t.Error("event timestamp precedes press")
	}

	sim.SimRelease("speech")
	waitEdge(t, h, Released)
}

func TestKeyRepeatDeduplicated(t *testing.T) {
	reg, sim := NewFakeRegistry()
	defer reg.Close()

	h, _ := reg.Register("speech", mustParse(t, "ctrl+shift+space"))

	sim.SimPress("speech")
	waitEdge(t, h, Pressed)

	// OS key-repeat shows up as more presses while held.
	sim.SimPress("speech")
	sim.SimPress("speech")
	expectNoEdge(t, h)

	sim.SimRelease("speech")
	waitEdge(t, h, Released)
}

func TestReleaseWithoutPressDropped(t *testing.T) {
	reg, sim := NewFakeRegistry()
	defer reg.Close()

	h, _ := reg.Register("speech", mustParse(t, "ctrl+shift+space"))
	sim.SimRelease("speech")
	expectNoEdge(t, h)
}

func TestIndependentActionChannels(t *testing.T) {
	reg, sim := NewFakeRegistry()
	defer reg.Close()

	ha, _ := reg.Register("a", mustParse(t, "ctrl+shift+a"))
	hb, _ := reg.Register("b", mustParse(t, "ctrl+shift+b"))

	sim.SimPress("b")
	sim.SimPress("a")
	waitEdge(t, ha, Pressed)
	waitEdge(t, hb, Pressed)
	expectNoEdge(t, ha)
}
