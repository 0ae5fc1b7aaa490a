package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"aisha/internal/route"
	"aisha/internal/service/assistant"
	"aisha/internal/service/audio"
	"aisha/internal/service/command"
	"aisha/internal/service/notify"
	"aisha/internal/service/speech"
)

// RunAssist runs the voice-trigger command loop until the pilot shuts it down.
func (a *App) RunAssist(ctx context.Context) error {
	microphone, err := audio.OpenMicrophone(a.config.AudioChunkFrames)
	if err != nil {
		return err
	}
	defer microphone.Close()

	recognizer, model, err := speech.NewPhraseRecognizer(a.config, microphone.SampleRate())
	if err != nil {
		return err
	}
	if model != nil {
		defer model.Close()
	}
	defer recognizer.Close()

	vocabulary := a.loadVocabulary(a.config.VocabularyPath, command.DefaultAssistantVocabulary())
	notifier := notify.New(a.config.Notifications)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.watchVocabulary(gctx, vocabulary, a.config.VocabularyPath)
		return nil
	})
	a.startViewer(gctx, g, route.Dependencies{Notifier: notifier})

	listener := speech.NewListener(microphone)
	runErr := assistant.New(a.config, listener, recognizer, vocabulary, notifier, a.events, a.logger).Run(gctx)

	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// loadVocabulary falls back to the built-in words when the file is unusable.
func (a *App) loadVocabulary(path string, fallback command.Vocabulary) *command.Store {
	vocabulary, err := command.LoadVocabulary(path, fallback)
	if err != nil {
		a.logger.Warning("Using built-in vocabulary: %v", err)
	}
	return command.NewStore(vocabulary)
}

// watchVocabulary hot-reloads path until ctx is done. A failing watcher only
// costs the reload, so it is logged instead of stopping the loop.
func (a *App) watchVocabulary(ctx context.Context, vocabulary *command.Store, path string) {
	if err := vocabulary.Watch(ctx, path, a.logger); err != nil {
		a.logger.Warning("Vocabulary reload disabled: %v", err)
	}
}
