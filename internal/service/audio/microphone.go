// Package audio captures microphone input.
package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is what the Kazakh vosk model and the cloud API expect.
	SampleRate = 16000
	// Channels - mono.
	Channels = 1
	// DefaultChunkFrames is 250 ms at 16 kHz.
	DefaultChunkFrames = 4000
)

// Microphone reads fixed-size int16 chunks from the default input device.
type Microphone struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []int16
}

// OpenMicrophone initializes portaudio and starts the default input stream.
func OpenMicrophone(chunkFrames int) (*Microphone, error) {
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	m := &Microphone{buffer: make([]int16, chunkFrames)}

	stream, err := portaudio.OpenDefaultStream(Channels, 0, SampleRate, len(m.buffer), m.buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	m.stream = stream
	return m, nil
}

// ReadChunk blocks until one chunk is captured and returns a copy of it.
// Input overflows are not fatal; the chunk is returned anyway.
func (m *Microphone) ReadChunk(ctx context.Context) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil, fmt.Errorf("microphone is closed")
	}

	if err := m.stream.Read(); err != nil && err != portaudio.InputOverflowed {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}

	chunk := make([]int16, len(m.buffer))
	copy(chunk, m.buffer)
	return chunk, nil
}

// SampleRate returns the capture rate.
func (m *Microphone) SampleRate() int {
	return SampleRate
}

// Close stops the stream and releases portaudio.
func (m *Microphone) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
		portaudio.Terminate()
	}
}
