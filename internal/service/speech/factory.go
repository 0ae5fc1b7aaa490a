package speech

import (
	"fmt"

	"aisha/internal/config"
)

// NewPhraseRecognizer builds the recognizer selected by SPEECH_ENGINE.
// The returned model is nil for the cloud engine; callers close it when non-nil.
func NewPhraseRecognizer(cfg *config.Config, sampleRate int) (PhraseRecognizer, *VoskModel, error) {
	switch cfg.SpeechEngine {
	case EngineCloud:
		rec, err := NewCloudRecognizer(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.TranscriptionModel, sampleRate)
		if err != nil {
			return nil, nil, err
		}
		return rec, nil, nil

	case EngineVosk, "":
		model, err := LoadVoskModel(cfg.VoskModelPath)
		if err != nil {
			return nil, nil, err
		}
		rec, err := NewVoskRecognizer(model, sampleRate)
		if err != nil {
			model.Close()
			return nil, nil, err
		}
		return rec, model, nil

	default:
		return nil, nil, fmt.Errorf("unknown speech engine: %s", cfg.SpeechEngine)
	}
}
