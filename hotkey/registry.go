// Package hotkey binds OS-global key combinations to named actions and
// delivers press/release edges for each one. Every bound action gets its
// own ordered edge channel; edges for different actions are independent.
package hotkey

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrConflict is returned when a combo is already bound to another action.
var ErrConflict = errors.New("hotkey combo already bound")

// Edge is a single key transition for a bound action.
type Edge int

const (
	Pressed Edge = iota
	Released
)

func (e Edge) String() string {
	if e == Pressed {
		return "pressed"
	}
	return "released"
}

// Event is one deduplicated key transition. OS key-repeat never
// produces a second Pressed for a combo that is already down.
type Event struct {
	Action string
	Edge   Edge
	Time   time.Time
}

// Handle represents one registered binding. Events() carries that
// binding's edges in arrival order.
type Handle struct {
	action string
	combo  Combo
	events chan Event

	mu   sync.Mutex
	down bool
}

// Events returns the edge stream for this binding. The channel is
// buffered; if the consumer lags far behind, edges are dropped in
// press/release pairs rather than blocking the OS event path.
func (h *Handle) Events() <-chan Event { return h.events }

// Action returns the bound action name.
func (h *Handle) Action() string { return h.action }

// Combo returns the bound key combination.
func (h *Handle) Combo() Combo { return h.combo }

// press delivers a Pressed edge unless the combo is already down.
func (h *Handle) press() {
	h.mu.Lock()
	if h.down {
		h.mu.Unlock()
		return
	}
	h.down = true
	h.mu.Unlock()
	h.emit(Pressed)
}

// release delivers a Released edge if a press was delivered before it.
func (h *Handle) release() {
	h.mu.Lock()
	if !h.down {
		h.mu.Unlock()
		return
	}
	h.down = false
	h.mu.Unlock()
	h.emit(Released)
}

func (h *Handle) emit(edge Edge) {
	ev := Event{Action: h.action, Edge: edge, Time: time.Now()}
	select {
	case h.events <- ev:
	default:
		// Consumer stalled. Drop the oldest edge to keep press/release
		// pairing intact rather than blocking the dispatch path.
		select {
		case <-h.events:
		default:
		}
		select {
		case h.events <- ev:
		default:
		}
	}
}

// backend is the platform half: it watches one combo and reports raw
// down/up transitions into the handle.
type backend interface {
	watch(combo Combo, h *Handle) (unwatch func(), err error)
	close()
}

// Registry owns all bindings and the platform backend. One Registry
// per process; create it at startup and Close it at shutdown.
type Registry struct {
	mu       sync.Mutex
	backend  backend
	bindings map[string]*registration // by action
	combos   map[Combo]string         // combo -> action, for conflict checks
	closed   bool
}

type registration struct {
	handle  *Handle
	unwatch func()
}

// New creates a registry backed by the platform hotkey mechanism.
func New() (*Registry, error) {
	b, err := newBackend()
	if err != nil {
		return nil, err
	}
	return newRegistry(b), nil
}

func newRegistry(b backend) *Registry {
	return &Registry{
		backend:  b,
		bindings: make(map[string]*registration),
		combos:   make(map[Combo]string),
	}
}

// Register binds combo to action. It fails with ErrConflict if the
// combo collides with another bound action; rebinding an action
// requires unregistering it first.
func (r *Registry) Register(action string, combo Combo) (*Handle, error) {
	if err := combo.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("hotkey registry closed")
	}
	if _, ok := r.bindings[action]; ok {
		return nil, fmt.Errorf("action %q already registered", action)
	}
	if other, ok := r.combos[combo]; ok {
		return nil, fmt.Errorf("%w: %s is bound to %q", ErrConflict, combo, other)
	}

	h := &Handle{
		action: action,
		combo:  combo,
		events: make(chan Event, 8),
	}
	unwatch, err := r.backend.watch(combo, h)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", combo, err)
	}
	r.bindings[action] = &registration{handle: h, unwatch: unwatch}
	r.combos[combo] = action
	return h, nil
}

// Unregister removes a binding. Safe to call for an unknown handle.
func (r *Registry) Unregister(h *Handle) {
	if h == nil {
		return
	}
	r.mu.Lock()
	reg, ok := r.bindings[h.action]
	if ok && reg.handle == h {
		delete(r.bindings, h.action)
		delete(r.combos, h.combo)
	} else {
		reg = nil
	}
	r.mu.Unlock()
	if reg != nil {
		reg.unwatch()
	}
}

// Close tears down all bindings and the platform backend.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	regs := make([]*registration, 0, len(r.bindings))
	for _, reg := range r.bindings {
		regs = append(regs, reg)
	}
	r.bindings = map[string]*registration{}
	r.combos = map[Combo]string{}
	r.mu.Unlock()

	for _, reg := range regs {
		reg.unwatch()
	}
	r.backend.close()
}
