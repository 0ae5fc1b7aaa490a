package storage

import (
	"fmt"
	"os"
	"time"

	"aisha/internal/dto"
	"aisha/internal/model"
	"aisha/internal/repository"
)

// DefaultEventLimit caps listings when the filter has no limit.
const DefaultEventLimit = 20

// EventsService records voice commands and lists stored events.
type EventsService struct {
	session       string
	snapshotRepo  repository.SnapshotRepository
	detectionRepo repository.DetectionRepository
	commandRepo   repository.CommandRepository
	now           func() time.Time
}

// NewEventsService creates an EventsService stamping new events with session.
func NewEventsService(session string, snapshotRepo repository.SnapshotRepository, detectionRepo repository.DetectionRepository, commandRepo repository.CommandRepository) *EventsService {
	return &EventsService{
		session:       session,
		snapshotRepo:  snapshotRepo,
		detectionRepo: detectionRepo,
		commandRepo:   commandRepo,
		now:           time.Now,
	}
}

// Session returns the id of the current run.
func (s *EventsService) Session() string {
	return s.session
}

// RecordCommand stores a recognized utterance. action and reply are empty
// when nothing matched.
func (s *EventsService) RecordCommand(source, text, action, reply string) error {
	_, err := s.commandRepo.Insert(&model.VoiceCommand{
		Session:   s.session,
		Source:    source,
		Text:      text,
		Action:    action,
		Reply:     reply,
		CreatedAt: s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// Events lists snapshots with their detections and commands matching filter.
func (s *EventsService) Events(filter dto.EventFilter) (*dto.EventsData, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultEventLimit
	}

	snapshots, err := s.snapshotRepo.GetAll(&filter)
	if err != nil {
		return nil, err
	}

	data := &dto.EventsData{
		Session:   filter.Session,
		Snapshots: make([]dto.SnapshotInfo, 0, len(snapshots)),
		Commands:  []model.VoiceCommand{},
	}

	for _, snap := range snapshots {
		dets, err := s.detectionRepo.GetBySnapshotID(snap.ID)
		if err != nil {
			return nil, err
		}
		data.Snapshots = append(data.Snapshots, dto.SnapshotInfo{
			ID:         snap.ID,
			Filename:   snap.Filename,
			Camera:     snap.Camera,
			Timestamp:  snap.Timestamp,
			Detections: dets,
		})
	}

	if data.Labels, err = s.detectionRepo.CountByLabel(&filter); err != nil {
		return nil, err
	}

	commands, err := s.commandRepo.GetAll(&filter)
	if err != nil {
		return nil, err
	}
	if commands != nil {
		data.Commands = commands
	}

	if data.Actions, err = s.commandRepo.CountByAction(&filter); err != nil {
		return nil, err
	}

	return data, nil
}

// Clear deletes every stored snapshot, its image file and every recorded
// command. It returns the number of snapshots removed.
func (s *EventsService) Clear() (int, error) {
	snapshots, err := s.snapshotRepo.GetAll(nil)
	if err != nil {
		return 0, err
	}

	for _, snap := range snapshots {
		if err := os.Remove(snap.FilePath); err != nil && !os.IsNotExist(err) {
			return 0, fmt.Errorf("failed to remove %s: %w", snap.FilePath, err)
		}
	}

	if err := s.snapshotRepo.DeleteAll(); err != nil {
		return 0, err
	}
	if err := s.commandRepo.DeleteAll(); err != nil {
		return 0, err
	}
	return len(snapshots), nil
}
