package repository

import (
	"aisha/internal/dto"
	"aisha/internal/model"
)

// SnapshotRepository defines the interface for snapshot data operations.
type SnapshotRepository interface {
	// Create operations
	Insert(s *model.Snapshot) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Snapshot, error)
	GetAll(filter *dto.EventFilter) ([]model.Snapshot, error)
	GetTotalCount(filter *dto.EventFilter) (int, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
}

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	Insert(det *model.Detection) (int64, error)
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetBySnapshotID(snapshotID int64) ([]model.Detection, error)
	CountByLabel(filter *dto.EventFilter) (map[string]int, error)

	// Delete operations
	DeleteBySnapshotID(snapshotID int64) error
}

// CommandRepository defines the interface for voice command operations.
type CommandRepository interface {
	Insert(cmd *model.VoiceCommand) (int64, error)
	GetAll(filter *dto.EventFilter) ([]model.VoiceCommand, error)
	CountByAction(filter *dto.EventFilter) (map[string]int, error)
	DeleteAll() error
}
