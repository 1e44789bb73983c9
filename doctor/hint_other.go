//go:build !linux

package doctor

import "fmt"

func printKeystrokeHint() {
	fmt.Println("  Grant the terminal Accessibility permission in system settings")
}
