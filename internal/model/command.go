package model

import "time"

// Command sources.
const (
	SourceAssistant = "assist"
	SourceHUD       = "hud"
	SourceWeb       = "web"
)

// VoiceCommand is one recognized utterance and what was done about it.
// Action is empty when nothing matched.
type VoiceCommand struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Action    string    `json:"action"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}
