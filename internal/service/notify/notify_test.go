package notify

import (
	"strings"
	"testing"
)

type sent struct {
	title, message string
}

func newRecordingNotifier(enabled bool) (*Notifier, *[]sent) {
	var calls []sent
	n := New(enabled)
	n.send = func(title, message, icon string) error {
		calls = append(calls, sent{title, message})
		return nil
	}
	return n, &calls
}

func TestNotifier_Disabled(t *testing.T) {
	n, calls := newRecordingNotifier(false)
	n.Relay(true)
	n.AssistantReady("айша")

	if len(*calls) != 0 {
		t.Errorf("Disabled notifier should not send, got %d calls", len(*calls))
	}
}

func TestNotifier_Relay(t *testing.T) {
	n, calls := newRecordingNotifier(true)
	n.Relay(true)
	n.Relay(false)

	if len(*calls) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(*calls))
	}
	if (*calls)[0].title != "Aisha: Реле ВКЛ" {
		t.Errorf("Unexpected title %q", (*calls)[0].title)
	}
	if (*calls)[1].title != "Aisha: Реле ВЫКЛ" {
		t.Errorf("Unexpected title %q", (*calls)[1].title)
	}
}

func TestNotifier_TruncatesLongMessages(t *testing.T) {
	n, calls := newRecordingNotifier(true)
	n.Command(strings.Repeat("қ", 150), "ok")

	msg := (*calls)[0].message
	if got := len([]rune(msg)); got != maxMessageLength+3 {
		t.Errorf("Expected %d runes, got %d", maxMessageLength+3, got)
	}
	if !strings.HasSuffix(msg, "...") {
		t.Errorf("Truncated message should end with ellipsis: %q", msg)
	}
}
