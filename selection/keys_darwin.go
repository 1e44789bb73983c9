//go:build darwin

package selection

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func initKeys() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

func sendCopy() error {
	if err := initKeys(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_C)
	kb.HasSuper(true) // Cmd+C
	return kb.Launching()
}

func sendPaste() error {
	if err := initKeys(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true) // Cmd+V
	return kb.Launching()
}

// Verify checks that the keyboard event binding is initialized.
func Verify() (string, error) {
	if err := initKeys(); err != nil {
		return "", err
	}
	return "keyboard event binding OK (Cmd+C / Cmd+V)", nil
}
