//go:build windows

package hotkey

import xhotkey "golang.design/x/hotkey"

func xMods(mods Modifier) []xhotkey.Modifier {
	var out []xhotkey.Modifier
	if mods&ModCtrl != 0 {
		out = append(out, xhotkey.ModCtrl)
	}
	if mods&ModShift != 0 {
		out = append(out, xhotkey.ModShift)
	}
	if mods&ModAlt != 0 {
		out = append(out, xhotkey.ModAlt)
	}
	if mods&ModSuper != 0 {
		out = append(out, xhotkey.ModWin)
	}
	return out
}
