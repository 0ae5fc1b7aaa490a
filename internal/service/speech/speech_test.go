package speech

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"aisha/internal/config"
)

const testRate = 16000

// scriptedSource plays back a list of chunk amplitudes, 100 ms per chunk.
type scriptedSource struct {
	levels []int16
	pos    int
}

func (s *scriptedSource) ReadChunk(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.levels) {
		return nil, io.EOF
	}
	chunk := make([]int16, testRate/10)
	for i := range chunk {
		if i%2 == 0 {
			chunk[i] = s.levels[s.pos]
		} else {
			chunk[i] = -s.levels[s.pos]
		}
	}
	s.pos++
	return chunk, nil
}

func (s *scriptedSource) SampleRate() int { return testRate }

func repeat(level int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = level
	}
	return out
}

func concat(parts ...[]int16) []int16 {
	var out []int16
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestRMS(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("RMS of empty slice should be 0")
	}
	if got := RMS([]int16{1000, -1000, 1000, -1000}); got != 1000 {
		t.Errorf("Expected RMS 1000, got %v", got)
	}
}

func TestListener_RecordsPhraseUntilPause(t *testing.T) {
	// 0.5 s silence, 1 s speech, 1 s silence.
	src := &scriptedSource{levels: concat(repeat(0, 5), repeat(3000, 10), repeat(0, 10))}
	l := NewListener(src)
	l.DynamicEnergy = false

	pcm, err := l.Listen(context.Background(), 5*time.Second, 10*time.Second)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	seconds := float64(len(pcm)) / testRate
	// Leading silence (<=0.5 s) + 1 s speech + ~0.9 s pause.
	if seconds < 1.8 || seconds > 2.5 {
		t.Errorf("Unexpected phrase length %.2fs", seconds)
	}
}

func TestListener_WaitTimeout(t *testing.T) {
	src := &scriptedSource{levels: repeat(0, 50)}
	l := NewListener(src)

	_, err := l.Listen(context.Background(), time.Second, 5*time.Second)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Errorf("Expected ErrWaitTimeout, got %v", err)
	}
	if src.pos > 12 {
		t.Errorf("Listener should give up after ~1 s of audio, read %d chunks", src.pos)
	}
}

func TestListener_PhraseLimit(t *testing.T) {
	src := &scriptedSource{levels: repeat(4000, 100)}
	l := NewListener(src)
	l.DynamicEnergy = false

	pcm, err := l.Listen(context.Background(), 0, 2*time.Second)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	if seconds := float64(len(pcm)) / testRate; seconds > 2.1 {
		t.Errorf("Phrase should be cut at the limit, got %.2fs", seconds)
	}
}

func TestListener_IgnoresShortClicks(t *testing.T) {
	// A 0.1 s click, a long pause, then real speech.
	src := &scriptedSource{levels: concat(repeat(5000, 1), repeat(0, 12), repeat(3000, 6), repeat(0, 10))}
	l := NewListener(src)
	l.DynamicEnergy = false

	pcm, err := l.Listen(context.Background(), 10*time.Second, 10*time.Second)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	if src.pos < 20 {
		t.Errorf("Click should be skipped and the real phrase recorded, stopped at chunk %d", src.pos)
	}
	if len(pcm) == 0 {
		t.Error("Expected a recorded phrase")
	}
}

func TestListener_AdjustForAmbientNoise(t *testing.T) {
	src := &scriptedSource{levels: repeat(800, 10)}
	l := NewListener(src)

	if err := l.AdjustForAmbientNoise(context.Background(), time.Second); err != nil {
		t.Fatalf("AdjustForAmbientNoise failed: %v", err)
	}
	if l.EnergyThreshold <= DefaultEnergyThreshold {
		t.Errorf("Threshold should rise above the noise, got %.1f", l.EnergyThreshold)
	}
	if l.EnergyThreshold > 800*dynamicEnergyRatio {
		t.Errorf("Threshold should not exceed the target, got %.1f", l.EnergyThreshold)
	}
}

func TestListener_ContextCancelled(t *testing.T) {
	src := &scriptedSource{levels: repeat(0, 100)}
	l := NewListener(src)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Listen(ctx, 0, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestEncodeWAV(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767}
	wav := EncodeWAV(pcm, testRate)

	if len(wav) != 44+len(pcm)*2 {
		t.Fatalf("Unexpected WAV size %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Errorf("Bad WAV header: %q", wav[:44])
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != testRate {
		t.Errorf("Expected sample rate %d, got %d", testRate, rate)
	}
	if size := binary.LittleEndian.Uint32(wav[40:44]); size != uint32(len(pcm)*2) {
		t.Errorf("Expected data size %d, got %d", len(pcm)*2, size)
	}
	if last := int16(binary.LittleEndian.Uint16(wav[50:52])); last != 32767 {
		t.Errorf("Expected last sample 32767, got %d", last)
	}
}

type fakeTranscriber struct {
	text    string
	err     error
	request openai.AudioRequest
	body    []byte
}

func (f *fakeTranscriber) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.request = req
	if req.Reader != nil {
		f.body, _ = io.ReadAll(req.Reader)
	}
	return openai.AudioResponse{Text: f.text}, f.err
}

func TestCloudRecognizer_Recognize(t *testing.T) {
	fake := &fakeTranscriber{text: "  Айша қос  "}
	rec := &CloudRecognizer{client: fake, model: openai.Whisper1, sampleRate: testRate}

	text, err := rec.Recognize(context.Background(), []int16{1, 2, 3}, "kk")
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "Айша қос" {
		t.Errorf("Expected trimmed text, got %q", text)
	}
	if fake.request.Language != "kk" {
		t.Errorf("Expected language kk, got %q", fake.request.Language)
	}
	if string(fake.body[:4]) != "RIFF" {
		t.Error("Expected a WAV upload")
	}
}

func TestCloudRecognizer_Errors(t *testing.T) {
	rec := &CloudRecognizer{client: &fakeTranscriber{}, sampleRate: testRate}
	if _, err := rec.Recognize(context.Background(), nil, "kk"); !errors.Is(err, ErrUnknownValue) {
		t.Errorf("Empty transcription should be ErrUnknownValue, got %v", err)
	}

	backendErr := errors.New("503 service unavailable")
	rec = &CloudRecognizer{client: &fakeTranscriber{err: backendErr}, sampleRate: testRate}
	_, err := rec.Recognize(context.Background(), nil, "kk")
	if !errors.Is(err, ErrRequest) || !errors.Is(err, backendErr) {
		t.Errorf("Backend failure should wrap ErrRequest and the cause, got %v", err)
	}
}

func TestNewPhraseRecognizer(t *testing.T) {
	if _, _, err := NewPhraseRecognizer(&config.Config{SpeechEngine: "google"}, testRate); err == nil {
		t.Error("Unknown engine should fail")
	}
	if _, _, err := NewPhraseRecognizer(&config.Config{SpeechEngine: EngineCloud}, testRate); err == nil {
		t.Error("Cloud engine without API key should fail")
	}

	rec, model, err := NewPhraseRecognizer(&config.Config{SpeechEngine: EngineCloud, OpenAIKey: "sk-test"}, testRate)
	if err != nil {
		t.Fatalf("Cloud engine should be created: %v", err)
	}
	if model != nil {
		t.Error("Cloud engine should not load a vosk model")
	}
	if rec.Name() != EngineCloud {
		t.Errorf("Expected cloud engine, got %s", rec.Name())
	}

	if _, _, err := NewPhraseRecognizer(&config.Config{SpeechEngine: EngineVosk, VoskModelPath: t.TempDir() + "/missing"}, testRate); err == nil {
		t.Error("Missing vosk model should fail")
	}
}
