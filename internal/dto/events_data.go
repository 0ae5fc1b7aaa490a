package dto

import (
	"time"

	"aisha/internal/model"
)

// SnapshotInfo is a stored snapshot with its detections.
type SnapshotInfo struct {
	ID         int64             `json:"id"`
	Filename   string            `json:"filename"`
	Camera     string            `json:"camera"`
	Timestamp  time.Time         `json:"timestamp"`
	Detections []model.Detection `json:"detections"`
}

// EventsData is the payload of the events endpoint and command.
type EventsData struct {
	Session   string               `json:"session"`
	Snapshots []SnapshotInfo       `json:"snapshots"`
	Commands  []model.VoiceCommand `json:"commands"`
	Labels    map[string]int       `json:"labels"`
	Actions   map[string]int       `json:"actions"`
}
