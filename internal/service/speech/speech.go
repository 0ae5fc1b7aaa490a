// Package speech wraps the speech recognition backends and the microphone
// phrase listener that feeds them.
package speech

import (
	"context"
	"encoding/binary"
	"errors"
)

// Engines.
const (
	EngineVosk  = "vosk"
	EngineCloud = "cloud"
)

var (
	// ErrWaitTimeout means nobody started speaking before the listen timeout.
	ErrWaitTimeout = errors.New("listening timed out while waiting for phrase to start")
	// ErrUnknownValue means audio was captured but the recognizer understood nothing.
	ErrUnknownValue = errors.New("speech was not understood")
	// ErrRequest means the recognition backend failed.
	ErrRequest = errors.New("recognition request failed")
)

// Source delivers fixed-size chunks of 16-bit mono PCM.
type Source interface {
	ReadChunk(ctx context.Context) ([]int16, error)
	SampleRate() int
}

// PhraseRecognizer transcribes one complete phrase.
type PhraseRecognizer interface {
	// Recognize returns the recognized text, ErrUnknownValue for empty
	// results or an error wrapping ErrRequest when the backend fails.
	Recognize(ctx context.Context, pcm []int16, lang string) (string, error)
	Name() string
	Close()
}

// StreamRecognizer consumes a continuous PCM stream and reports complete utterances.
type StreamRecognizer interface {
	// Accept feeds a chunk. When an utterance ends it returns its text and true.
	Accept(pcm []int16) (string, bool, error)
	Close()
}

// PCMBytes converts samples to little-endian PCM16 bytes.
func PCMBytes(pcm []int16) []byte {
	buf := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
