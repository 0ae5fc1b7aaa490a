package model

import "time"

// Snapshot is an annotated frame saved to disk.
type Snapshot struct {
	ID        int64     `json:"id"`
	Session   string    `json:"session"`
	Filename  string    `json:"filename"`
	Camera    string    `json:"camera"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}
