package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a platform-independent modifier key.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper // cmd on macOS, win key elsewhere
)

var modNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModShift, "shift"},
	{ModAlt, "alt"},
	{ModSuper, "super"},
}

// Combo is a key combination: one or more modifiers plus a base key.
type Combo struct {
	Mods Modifier
	Key  string // lowercase key name: "a".."z", "0".."9", "space", "enter", ...
}

// namedKeys lists the non-character base keys accepted by Parse.
var namedKeys = map[string]bool{
	"space": true, "enter": true, "tab": true, "esc": true,
	"up": true, "down": true, "left": true, "right": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
}

func validKey(key string) bool {
	if len(key) == 1 {
		c := key[0]
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	return namedKeys[key]
}

// Parse parses a combo string like "ctrl+shift+space" or "alt+v".
// Aliases: "cmd", "win" and "meta" map to super; "opt"/"option" to alt.
func Parse(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, p := range parts {
		switch strings.TrimSpace(p) {
		case "ctrl", "control":
			c.Mods |= ModCtrl
		case "shift":
			c.Mods |= ModShift
		case "alt", "opt", "option":
			c.Mods |= ModAlt
		case "super", "cmd", "command", "win", "meta":
			c.Mods |= ModSuper
		case "":
			return Combo{}, fmt.Errorf("malformed combo %q", s)
		default:
			if c.Key != "" {
				return Combo{}, fmt.Errorf("combo %q has more than one base key", s)
			}
			c.Key = strings.TrimSpace(p)
		}
	}
	if err := c.Validate(); err != nil {
		return Combo{}, err
	}
	return c, nil
}

// Validate enforces the binding rule: at least one modifier plus a
// known base key. Bare keys would swallow normal typing.
func (c Combo) Validate() error {
	if c.Mods == 0 {
		return fmt.Errorf("combo %q needs at least one modifier", c.String())
	}
	if c.Key == "" {
		return fmt.Errorf("combo needs a base key")
	}
	if !validKey(c.Key) {
		return fmt.Errorf("unknown key %q", c.Key)
	}
	return nil
}

func (c Combo) String() string {
	var parts []string
	for _, m := range modNames {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
