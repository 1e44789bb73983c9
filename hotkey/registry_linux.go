//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey     = 1
	keyPress  = 1
	keyRepeat = 2

	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keyLAlt   = 56
	keyRAlt   = 100
	keyLMeta  = 125
	keyRMeta  = 126
)

const inputEventSize = 24

// evdev key codes from linux/input-event-codes.h for the base keys
// Parse accepts.
var evdevKeys = map[string]uint16{
	"a": 30, "b": 48, "c": 46, "d": 32, "e": 18, "f": 33, "g": 34,
	"h": 35, "i": 23, "j": 36, "k": 37, "l": 38, "m": 50, "n": 49,
	"o": 24, "p": 25, "q": 16, "r": 19, "s": 31, "t": 20, "u": 22,
	"v": 47, "w": 17, "x": 45, "y": 21, "z": 44,
	"1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9,
	"9": 10, "0": 11,
	"space": 57, "enter": 28, "tab": 15, "esc": 1,
	"up": 103, "down": 108, "left": 105, "right": 106,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64,
	"f7": 65, "f8": 66, "f9": 67, "f10": 68, "f11": 87, "f12": 88,
}

// evdevBackend reads raw input events from every keyboard device and
// matches them against the watched combos. All combos share the same
// reader goroutines; modifier state is global across devices.
type evdevBackend struct {
	mu      sync.Mutex
	watches map[uint16][]*evdevWatch // by base key code
	mods    Modifier
	files   []*os.File
	stop    chan struct{}
	once    sync.Once
}

type evdevWatch struct {
	combo Combo
	code  uint16
	h     *Handle
	held  bool // base key currently down for this watch
}

func newBackend() (backend, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return nil, fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	b := &evdevBackend{
		watches: make(map[uint16][]*evdevWatch),
		stop:    make(chan struct{}),
	}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		b.files = append(b.files, f)
		go b.readEvents(f)
	}
	if len(b.files) == 0 {
		return nil, fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return b, nil
}

func (b *evdevBackend) watch(combo Combo, h *Handle) (func(), error) {
	code, ok := evdevKeys[combo.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on this platform", combo.Key)
	}
	w := &evdevWatch{combo: combo, code: code, h: h}
	b.mu.Lock()
	b.watches[code] = append(b.watches[code], w)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		list := b.watches[code]
		for i, ww := range list {
			if ww == w {
				b.watches[code] = append(list[:i], list[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}, nil
}

func (b *evdevBackend) close() {
	b.once.Do(func() {
		close(b.stop)
		for _, f := range b.files {
			f.Close()
		}
	})
}

func (b *evdevBackend) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey || evValue == keyRepeat {
				continue
			}
			b.handleKey(evCode, evValue == keyPress)
		}
	}
}

func (b *evdevBackend) handleKey(code uint16, pressed bool) {
	b.mu.Lock()

	if mod := modifierFor(code); mod != 0 {
		if pressed {
			b.mods |= mod
		} else {
			b.mods &^= mod
		}
		b.mu.Unlock()
		return
	}

	var presses, releases []*Handle
	for _, w := range b.watches[code] {
		if pressed && !w.held && b.mods == w.combo.Mods {
			w.held = true
			presses = append(presses, w.h)
		} else if !pressed && w.held {
			w.held = false
			releases = append(releases, w.h)
		}
	}
	b.mu.Unlock()

	for _, h := range presses {
		h.press()
	}
	for _, h := range releases {
		h.release()
	}
}

func modifierFor(code uint16) Modifier {
	switch code {
	case keyLCtrl, keyRCtrl:
		return ModCtrl
	case keyLShift, keyRShift:
		return ModShift
	case keyLAlt, keyRAlt:
		return ModAlt
	case keyLMeta, keyRMeta:
		return ModSuper
	}
	return 0
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

// Diagnose checks that keyboard devices can be opened, for doctor.
func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}
	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
