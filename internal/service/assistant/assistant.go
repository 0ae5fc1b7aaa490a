// Package assistant runs the voice-trigger command loop: the pilot names the
// assistant, then every command is preceded by that name.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"aisha/internal/config"
	"aisha/internal/logger"
	"aisha/internal/model"
	"aisha/internal/service/command"
	"aisha/internal/service/notify"
	"aisha/internal/service/speech"
)

// Messages printed to the pilot.
const (
	msgChooseName     = "Ассистенттің атын таңдаңыз (мысалы, 'Айша', 'Болат', 'Қыран'): "
	msgNameChosen     = "Ассистенттің аты: %s"
	msgSayKazakhName  = "Қазақша атау айтыңыз."
	msgRepeatName     = "Атауды қайта айтыңыз."
	msgSayTrigger     = "«%s» деп айтыңыз..."
	msgGreeting       = "Салем, пилот! Команда күтемін."
	msgUnknownCommand = "Команда анықталмады. Нақтырақ айтыңыз."
	msgNotUnderstood  = "Сөзіңіз танылмады."
	msgServiceError   = "Қызмет қатесі: %v"
	msgSilence        = "Сөйлемеген сияқтысыз..."
)

// commandPause separates a handled command from the next trigger.
const commandPause = 500 * time.Millisecond

// PhraseListener records one phrase from the microphone.
type PhraseListener interface {
	AdjustForAmbientNoise(ctx context.Context, duration time.Duration) error
	Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]int16, error)
}

// Recorder stores recognized commands.
type Recorder interface {
	RecordCommand(source, text, action, reply string) error
}

// Assistant is the voice-trigger loop.
type Assistant struct {
	listener   PhraseListener
	recognizer speech.PhraseRecognizer
	vocabulary *command.Store
	notifier   *notify.Notifier
	recorder   Recorder
	config     *config.Config
	logger     *logger.Logger
	out        io.Writer
	pause      time.Duration
}

// New creates an Assistant. recorder may be nil.
func New(cfg *config.Config, listener PhraseListener, recognizer speech.PhraseRecognizer, vocabulary *command.Store, notifier *notify.Notifier, recorder Recorder, logger *logger.Logger) *Assistant {
	return &Assistant{
		listener:   listener,
		recognizer: recognizer,
		vocabulary: vocabulary,
		notifier:   notifier,
		recorder:   recorder,
		config:     cfg,
		logger:     logger,
		out:        os.Stdout,
		pause:      commandPause,
	}
}

// Run adjusts for ambient noise, picks the trigger word and serves commands
// until the pilot says a shutdown word or ctx is cancelled.
func (a *Assistant) Run(ctx context.Context) error {
	err := a.run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Assistant) run(ctx context.Context) error {
	if err := a.listener.AdjustForAmbientNoise(ctx, a.config.AmbientDuration); err != nil {
		return fmt.Errorf("failed to adjust for ambient noise: %w", err)
	}

	name := strings.TrimSpace(command.Normalize(a.config.TriggerWord))
	if name == "" {
		var err error
		if name, err = a.ChooseName(ctx); err != nil {
			return err
		}
	} else {
		a.printf(msgNameChosen, name)
	}
	a.notifier.AssistantReady(name)
	a.logger.Info("Assistant started with trigger word %q (engine: %s)", name, a.recognizer.Name())

	for {
		if err := a.WaitForTrigger(ctx, name); err != nil {
			return err
		}

		more, err := a.ProcessCommand(ctx)
		if err != nil {
			return err
		}
		if !more {
			a.logger.Info("Assistant stopped by voice command")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.pause):
		}
	}
}

// ChooseName asks the pilot for a name until a Kazakh word is heard.
func (a *Assistant) ChooseName(ctx context.Context) (string, error) {
	a.printf(msgChooseName)

	for {
		text, err := a.hear(ctx, a.config.NameTimeout, a.config.TriggerPhraseLimit)
		if err != nil {
			if recoverable(err) {
				a.printf(msgRepeatName)
				continue
			}
			return "", err
		}

		tokens := command.Tokenize(text)
		if len(tokens) == 0 || !command.IsKazakhWord(tokens[0]) {
			a.printf(msgSayKazakhName)
			continue
		}

		a.printf(msgNameChosen, tokens[0])
		return tokens[0], nil
	}
}

// WaitForTrigger returns once the pilot says something containing name.
func (a *Assistant) WaitForTrigger(ctx context.Context, name string) error {
	a.printf(msgSayTrigger, name)

	for {
		text, err := a.hear(ctx, a.config.TriggerTimeout, a.config.TriggerPhraseLimit)
		if err != nil {
			if recoverable(err) {
				continue
			}
			return err
		}

		if strings.Contains(command.Normalize(text), name) {
			a.printf(msgGreeting)
			return nil
		}
	}
}

// ProcessCommand listens for one command and reacts to it. It returns false
// when the pilot asked the assistant to shut down.
func (a *Assistant) ProcessCommand(ctx context.Context) (bool, error) {
	text, err := a.hear(ctx, a.config.CommandTimeout, a.config.CommandPhraseLimit)
	switch {
	case err == nil:
	case errors.Is(err, speech.ErrUnknownValue):
		a.printf(msgNotUnderstood)
		return true, nil
	case errors.Is(err, speech.ErrRequest):
		a.printf(msgServiceError, err)
		return true, nil
	case errors.Is(err, speech.ErrWaitTimeout):
		a.printf(msgSilence)
		return true, nil
	default:
		return false, err
	}

	cmd, ok := a.vocabulary.Match(text)
	if !ok {
		a.printf(msgUnknownCommand)
		a.record(text, "", "")
		return true, nil
	}

	a.printf("%s", cmd.Reply)
	a.record(text, cmd.Action, cmd.Reply)
	a.notifier.Command(text, cmd.Reply)

	return cmd.Action != command.ActionShutdown, nil
}

// hear records a phrase and transcribes it.
func (a *Assistant) hear(ctx context.Context, timeout, phraseLimit time.Duration) (string, error) {
	pcm, err := a.listener.Listen(ctx, timeout, phraseLimit)
	if err != nil {
		return "", err
	}
	return a.recognizer.Recognize(ctx, pcm, a.config.Language)
}

func (a *Assistant) record(text, action, reply string) {
	if a.recorder == nil {
		return
	}
	if err := a.recorder.RecordCommand(model.SourceAssistant, text, action, reply); err != nil {
		a.logger.Warning("%v", err)
	}
}

func (a *Assistant) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// recoverable reports whether the loop should simply listen again.
func recoverable(err error) bool {
	return errors.Is(err, speech.ErrWaitTimeout) ||
		errors.Is(err, speech.ErrUnknownValue) ||
		errors.Is(err, speech.ErrRequest)
}
