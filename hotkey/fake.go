package hotkey

import "sync"

// FakeBackend drives bindings from tests and the headless test mode.
// SimPress/SimRelease emit edges through the same dedup path the real
// backends use.
type FakeBackend struct {
	mu      sync.Mutex
	handles map[string]*Handle // by action
}

// NewFakeRegistry returns a registry on a fake backend plus the
// backend itself for simulating key transitions.
func NewFakeRegistry() (*Registry, *FakeBackend) {
	b := &FakeBackend{handles: make(map[string]*Handle)}
	return newRegistry(b), b
}

func (b *FakeBackend) watch(_ Combo, h *Handle) (func(), error) {
	b.mu.Lock()
	b.handles[h.action] = h
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.handles, h.action)
		b.mu.Unlock()
	}, nil
}

func (b *FakeBackend) close() {}

func (b *FakeBackend) handle(action string) *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handles[action]
}

// SimPress simulates the combo for action going down. Repeated calls
// without a release are deduplicated like OS key-repeat.
func (b *FakeBackend) SimPress(action string) {
	if h := b.handle(action); h != nil {
		h.press()
	}
}

// SimRelease simulates the combo for action going up.
func (b *FakeBackend) SimRelease(action string) {
	if h := b.handle(action); h != nil {
		h.release()
	}
}
