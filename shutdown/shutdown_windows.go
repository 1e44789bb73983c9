//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

// Notify registers the interrupt that ends the hotkey event loop.
// Windows has no SIGTERM delivery for console apps.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
