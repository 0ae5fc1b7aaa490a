// Package notify shows desktop notifications for assistant events.
package notify

import (
	"github.com/gen2brain/beeep"
)

const appName = "Aisha"

// maxMessageLength keeps notification bodies readable.
const maxMessageLength = 100

// Notifier sends desktop notifications when enabled.
type Notifier struct {
	enabled bool
	send    func(title, message, icon string) error
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		send: func(title, message, icon string) error {
			return beeep.Notify(title, message, icon)
		},
	}
}

// Enabled reports whether notifications are shown.
func (n *Notifier) Enabled() bool {
	return n.enabled
}

// AssistantReady announces the chosen trigger word.
func (n *Notifier) AssistantReady(name string) {
	n.notify("Ассистент дайын", "Ассистенттің аты: "+name)
}

// Command announces a recognized command and its reply.
func (n *Notifier) Command(text, reply string) {
	n.notify(reply, text)
}

// Relay announces a relay state change.
func (n *Notifier) Relay(on bool) {
	if on {
		n.notify("Реле ВКЛ", "")
		return
	}
	n.notify("Реле ВЫКЛ", "")
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled {
		return
	}
	if runes := []rune(message); len(runes) > maxMessageLength {
		message = string(runes[:maxMessageLength]) + "..."
	}
	// Notification failures are not worth interrupting the pilot for.
	_ = n.send(appName+": "+title, message, "")
}
