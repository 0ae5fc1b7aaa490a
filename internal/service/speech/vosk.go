package speech

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/bytedance/sonic"
)

// voskResult is the JSON document vosk returns for final and partial results.
type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

// VoskModel is a loaded offline model shared by recognizers.
type VoskModel struct {
	model *vosk.VoskModel
}

// LoadVoskModel loads a vosk model directory.
func LoadVoskModel(modelPath string) (*VoskModel, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vosk model not found: %s", modelPath)
	}

	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vosk model: %w", err)
	}
	return &VoskModel{model: model}, nil
}

// Close frees the model.
func (m *VoskModel) Close() {
	if m.model != nil {
		m.model.Free()
		m.model = nil
	}
}

// VoskRecognizer transcribes whole phrases offline.
type VoskRecognizer struct {
	mu         sync.Mutex
	recognizer *vosk.VoskRecognizer
}

// NewVoskRecognizer creates a phrase recognizer for the given sample rate.
func NewVoskRecognizer(model *VoskModel, sampleRate int) (*VoskRecognizer, error) {
	rec, err := vosk.NewRecognizer(model.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create vosk recognizer: %w", err)
	}
	return &VoskRecognizer{recognizer: rec}, nil
}

// Name returns the engine name.
func (v *VoskRecognizer) Name() string {
	return EngineVosk
}

// Recognize transcribes one phrase. The language is fixed by the model.
func (v *VoskRecognizer) Recognize(ctx context.Context, pcm []int16, lang string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer == nil {
		return "", fmt.Errorf("%w: recognizer closed", ErrRequest)
	}

	v.recognizer.AcceptWaveform(PCMBytes(pcm))
	resultJSON := v.recognizer.FinalResult()
	v.recognizer.Reset()

	text, err := parseVoskText(resultJSON)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if text == "" {
		return "", ErrUnknownValue
	}
	return text, nil
}

// Close frees the recognizer.
func (v *VoskRecognizer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
}

// VoskStream recognizes a continuous stream and reports finished utterances.
type VoskStream struct {
	mu         sync.Mutex
	recognizer *vosk.VoskRecognizer
	partial    string
}

// NewVoskStream creates a streaming recognizer with word-level output enabled.
func NewVoskStream(model *VoskModel, sampleRate int) (*VoskStream, error) {
	rec, err := vosk.NewRecognizer(model.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create vosk recognizer: %w", err)
	}
	rec.SetWords(1)
	return &VoskStream{recognizer: rec}, nil
}

// Accept feeds a chunk and returns the utterance text once vosk finalizes it.
func (s *VoskStream) Accept(pcm []int16) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recognizer == nil || len(pcm) == 0 {
		return "", false, nil
	}

	if s.recognizer.AcceptWaveform(PCMBytes(pcm)) != 0 {
		text, err := parseVoskText(s.recognizer.Result())
		s.partial = ""
		if err != nil {
			return "", false, err
		}
		return text, text != "", nil
	}

	var partial voskResult
	if err := sonic.UnmarshalString(s.recognizer.PartialResult(), &partial); err == nil {
		s.partial = partial.Partial
	}
	return "", false, nil
}

// Partial returns the text of the utterance in progress.
func (s *VoskStream) Partial() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partial
}

// Close frees the recognizer.
func (s *VoskStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recognizer != nil {
		s.recognizer.Free()
		s.recognizer = nil
	}
}

func parseVoskText(resultJSON string) (string, error) {
	var result voskResult
	if err := sonic.UnmarshalString(resultJSON, &result); err != nil {
		return "", fmt.Errorf("failed to parse vosk result: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}
