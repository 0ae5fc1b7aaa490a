package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"aisha/internal/config"
	"aisha/internal/dto"
	"aisha/internal/logger"
	"aisha/internal/model"
	"aisha/internal/repository"
)

const (
	timestampLayout = "2006-01-02_15-04-05.000"
	labelSeparator  = "+"
)

// BufferService buffers annotated frames in memory and periodically flushes them to disk.
type BufferService struct {
	imagesDir     string
	session       string
	limit         int
	interval      time.Duration
	images        []dto.BufferedImage
	bufferCount   map[string]int
	mu            sync.Mutex
	logger        *logger.Logger
	snapshotRepo  repository.SnapshotRepository
	detectionRepo repository.DetectionRepository
}

// NewBufferService creates a new BufferService. Repositories may be nil, in
// which case frames are only written to disk.
func NewBufferService(config *config.Config, logger *logger.Logger, session string, snapshotRepo repository.SnapshotRepository, detectionRepo repository.DetectionRepository) *BufferService {
	limit := config.ImageBufferLimit
	if limit <= 0 {
		limit = 10
	}
	interval := config.ImageBufferFlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &BufferService{
		imagesDir:     config.ImageDirectory,
		session:       session,
		limit:         limit,
		interval:      interval,
		images:        make([]dto.BufferedImage, 0),
		bufferCount:   make(map[string]int),
		logger:        logger,
		snapshotRepo:  snapshotRepo,
		detectionRepo: detectionRepo,
	}
}

// Run flushes on every tick and once more when ctx is done.
func (s *BufferService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushImages()
			return nil
		case <-ticker.C:
			s.FlushImages()
		}
	}
}

// AddImage appends a frame to the buffer. Frames beyond the per-camera limit
// are dropped until the next flush. It reports whether the frame was kept.
func (s *BufferService) AddImage(imageData []byte, camera string, detections []dto.DetectionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferCount[camera] >= s.limit {
		return false
	}

	s.images = append(s.images, dto.BufferedImage{
		Timestamp:  time.Now(),
		Camera:     camera,
		Detections: detections,
		Data:       imageData,
	})
	s.bufferCount[camera]++
	s.logger.Info("Buffer size for camera %s: %d/%d", camera, s.bufferCount[camera], s.limit)
	return true
}

// Pending returns the number of buffered frames.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// snapshotFilename builds "<timestamp>_<camera>_<label>+<label>.jpg" with path-safe labels.
func snapshotFilename(image dto.BufferedImage) string {
	seen := make(map[string]bool)
	var labels []string
	for _, det := range image.Detections {
		label := sanitize(det.Label)
		if label != "" && !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}

	name := image.Timestamp.Format(timestampLayout) + "_" + sanitize(image.Camera)
	if len(labels) > 0 {
		name += "_" + strings.Join(labels, labelSeparator)
	}
	return name + ".jpg"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ' || r == ':' || r == '_' || r == '+':
			return '-'
		case r < 32:
			return -1
		}
		return r
	}, s)
}

// FlushImages writes buffered frames to disk, records them in the database
// and resets the buffer and per-camera counters.
func (s *BufferService) FlushImages() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) == 0 {
		return
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return
	}

	savedCount := 0
	for _, image := range s.images {
		filename := snapshotFilename(image)
		fullpath := filepath.Join(s.imagesDir, filename)

		if err := os.WriteFile(fullpath, image.Data, 0644); err != nil {
			s.logger.Error("Error saving image %s: %v", filename, err)
			continue
		}

		if err := s.record(image, filename, fullpath); err != nil {
			s.logger.Error("Error saving %s to database: %v", filename, err)
		}
		savedCount++
	}

	s.logger.Info("Flushed %d images to disk", savedCount)
	s.images = s.images[:0]
	s.bufferCount = make(map[string]int)
}

func (s *BufferService) record(image dto.BufferedImage, filename, fullpath string) error {
	if s.snapshotRepo == nil {
		return nil
	}

	snapshotID, err := s.snapshotRepo.Insert(&model.Snapshot{
		Session:   s.session,
		Filename:  filename,
		Camera:    image.Camera,
		Timestamp: image.Timestamp,
		FilePath:  fullpath,
		FileSize:  int64(len(image.Data)),
	})
	if err != nil {
		return err
	}

	if s.detectionRepo == nil || len(image.Detections) == 0 {
		return nil
	}

	dbDetections := make([]model.Detection, 0, len(image.Detections))
	for _, det := range image.Detections {
		dbDetections = append(dbDetections, model.Detection{
			SnapshotID: snapshotID,
			Label:      det.Label,
			X:          det.X,
			Y:          det.Y,
			Width:      det.Width,
			Height:     det.Height,
			Confidence: det.Confidence,
		})
	}
	if err := s.detectionRepo.InsertBatch(dbDetections); err != nil {
		return fmt.Errorf("detections: %w", err)
	}
	return nil
}
