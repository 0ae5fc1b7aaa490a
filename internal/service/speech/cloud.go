package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// transcriber is the part of the OpenAI client the cloud recognizer uses.
type transcriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// CloudRecognizer sends phrases to an OpenAI-compatible transcription endpoint.
type CloudRecognizer struct {
	client     transcriber
	model      string
	sampleRate int
}

// NewCloudRecognizer creates a recognizer for the given API key and optional base URL.
func NewCloudRecognizer(apiKey, baseURL, model string, sampleRate int) (*CloudRecognizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("cloud recognizer needs an API key")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}

	return &CloudRecognizer{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		sampleRate: sampleRate,
	}, nil
}

// Name returns the engine name.
func (c *CloudRecognizer) Name() string {
	return EngineCloud
}

// Recognize uploads the phrase as a WAV file and returns the transcription.
func (c *CloudRecognizer) Recognize(ctx context.Context, pcm []int16, lang string) (string, error) {
	wav := EncodeWAV(pcm, c.sampleRate)

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: "phrase.wav",
		Reader:   bytes.NewReader(wav),
		Language: lang,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnknownValue
	}
	return text, nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (c *CloudRecognizer) Close() {}
