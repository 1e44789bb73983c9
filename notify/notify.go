// Package notify shows desktop notifications for session outcomes.
// Delivery is best effort; a missing notification daemon never fails
// the pipeline.
package notify

import "github.com/gen2brain/beeep"

const appName = "Vox"

type Notifier struct {
	enabled bool
}

func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

func (n *Notifier) Enabled() bool { return n.enabled }

func (n *Notifier) Info(title, message string) {
	if !n.enabled {
		return
	}
	_ = beeep.Notify(appName+": "+title, message, "")
}

func (n *Notifier) Error(title, message string) {
	if !n.enabled {
		return
	}
	_ = beeep.Alert(appName+": "+title, message, "")
}
