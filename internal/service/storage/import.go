package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aisha/internal/model"
)

// ImportSession marks snapshots re-indexed from disk.
const ImportSession = "imported"

// ParseSnapshotFilename reverses snapshotFilename. Box geometry and
// confidence are not part of the name and cannot be recovered.
func ParseSnapshotFilename(name string) (time.Time, string, []string, error) {
	base := strings.TrimSuffix(name, ".jpg")
	if base == name || len(base) < len(timestampLayout)+2 {
		return time.Time{}, "", nil, fmt.Errorf("not a snapshot filename: %s", name)
	}

	ts, err := time.ParseInLocation(timestampLayout, base[:len(timestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, "", nil, fmt.Errorf("bad timestamp in %s: %w", name, err)
	}

	rest := base[len(timestampLayout):]
	if rest[0] != '_' {
		return time.Time{}, "", nil, fmt.Errorf("missing camera in %s", name)
	}

	camera, labelPart, _ := strings.Cut(rest[1:], "_")
	if camera == "" {
		return time.Time{}, "", nil, fmt.Errorf("missing camera in %s", name)
	}

	var labels []string
	if labelPart != "" {
		labels = strings.Split(labelPart, labelSeparator)
	}
	return ts, camera, labels, nil
}

// Import records snapshot files in dir that the store does not know yet,
// e.g. after the database was deleted. It returns how many files were
// imported and how many were skipped as unparseable.
func (s *EventsService) Import(dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	existing, err := s.snapshotRepo.GetAll(nil)
	if err != nil {
		return 0, 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, snap := range existing {
		known[snap.Filename] = true
	}

	imported, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" || known[entry.Name()] {
			continue
		}

		ts, camera, labels, err := ParseSnapshotFilename(entry.Name())
		if err != nil {
			skipped++
			continue
		}
		info, err := entry.Info()
		if err != nil {
			skipped++
			continue
		}

		id, err := s.snapshotRepo.Insert(&model.Snapshot{
			Session:   ImportSession,
			Filename:  entry.Name(),
			Camera:    camera,
			Timestamp: ts,
			FilePath:  filepath.Join(dir, entry.Name()),
			FileSize:  info.Size(),
		})
		if err != nil {
			return imported, skipped, err
		}

		detections := make([]model.Detection, 0, len(labels))
		for _, label := range labels {
			detections = append(detections, model.Detection{SnapshotID: id, Label: label})
		}
		if err := s.detectionRepo.InsertBatch(detections); err != nil {
			return imported, skipped, err
		}
		imported++
	}

	return imported, skipped, nil
}
