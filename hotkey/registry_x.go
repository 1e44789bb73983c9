//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	xhotkey "golang.design/x/hotkey"
)

// xKeys maps base key names to golang.design/x/hotkey key codes. The
// constants share names across darwin and windows builds.
var xKeys = map[string]xhotkey.Key{
	"a": xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC,
	"d": xhotkey.KeyD, "e": xhotkey.KeyE, "f": xhotkey.KeyF,
	"g": xhotkey.KeyG, "h": xhotkey.KeyH, "i": xhotkey.KeyI,
	"j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO,
	"p": xhotkey.KeyP, "q": xhotkey.KeyQ, "r": xhotkey.KeyR,
	"s": xhotkey.KeyS, "t": xhotkey.KeyT, "u": xhotkey.KeyU,
	"v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,
	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2,
	"3": xhotkey.Key3, "4": xhotkey.Key4, "5": xhotkey.Key5,
	"6": xhotkey.Key6, "7": xhotkey.Key7, "8": xhotkey.Key8,
	"9": xhotkey.Key9,
	"space": xhotkey.KeySpace, "enter": xhotkey.KeyReturn,
	"tab": xhotkey.KeyTab, "esc": xhotkey.KeyEscape,
	"up": xhotkey.KeyUp, "down": xhotkey.KeyDown,
	"left": xhotkey.KeyLeft, "right": xhotkey.KeyRight,
	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3,
	"f4": xhotkey.KeyF4, "f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6,
	"f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8, "f9": xhotkey.KeyF9,
	"f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,
}

// xBackend registers one golang.design/x/hotkey hook per binding and
// forwards its keydown/keyup streams into the handle.
type xBackend struct {
	mu   sync.Mutex
	stop []chan struct{}
}

func newBackend() (backend, error) {
	return &xBackend{}, nil
}

func (b *xBackend) watch(combo Combo, h *Handle) (func(), error) {
	key, ok := xKeys[combo.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on this platform", combo.Key)
	}
	hk := xhotkey.New(xMods(combo.Mods), key)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	b.mu.Lock()
	b.stop = append(b.stop, stop)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-hk.Keydown():
				h.press()
			case <-hk.Keyup():
				h.release()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			hk.Unregister()
		})
	}, nil
}

func (b *xBackend) close() {}

// Diagnose reports whether global hotkey registration is available.
func Diagnose() (string, error) {
	return "system hotkey hook available", nil
}
