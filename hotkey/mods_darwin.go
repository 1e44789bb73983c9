//go:build darwin

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
		out = append(out, xhotkey.ModOption)
	}
	if mods&ModSuper != 0 {
		out = append(out, xhotkey.ModCmd)
	}
	return out
}
