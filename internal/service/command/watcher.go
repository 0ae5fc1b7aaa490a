package command

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"aisha/internal/logger"
)

// Watch reloads the vocabulary file into the store whenever it is written.
// Editors often replace the file instead of writing it, so the parent
// directory is watched and events are filtered by name.
// Invalid files are logged and the previous vocabulary stays active.
func (s *Store) Watch(ctx context.Context, path string, logger *logger.Logger) error {
	if path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create vocabulary watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	logger.Info("Watching vocabulary file %s", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			vocab, err := LoadVocabulary(path, s.Get())
			if err != nil {
				logger.Warning("Vocabulary reload skipped: %v", err)
				continue
			}
			s.Set(vocab)
			logger.Info("Vocabulary reloaded: %d commands", len(vocab.Commands))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Vocabulary watcher error: %v", err)
		}
	}
}
