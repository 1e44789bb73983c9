//go:build !linux

package main

import (
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The hotkey backend requires the event loop to own the main
	// OS thread on darwin and windows.
	mainthread.Init(run)
}
