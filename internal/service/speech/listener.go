package speech

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultEnergyThreshold is the starting RMS level treated as speech.
	DefaultEnergyThreshold = 300.0
	// MinEnergyThreshold keeps dynamic adjustment from drifting into the noise floor.
	MinEnergyThreshold = 50.0

	dynamicEnergyDamping = 0.15
	dynamicEnergyRatio   = 1.5
)

// Listener cuts phrases out of a microphone stream using an energy threshold.
type Listener struct {
	source Source

	EnergyThreshold     float64
	DynamicEnergy       bool
	PauseThreshold      time.Duration // silence that ends a phrase
	PhraseThreshold     time.Duration // minimum speech to count as a phrase
	NonSpeakingDuration time.Duration // silence kept before the phrase
}

// NewListener creates a Listener with the usual defaults.
func NewListener(source Source) *Listener {
	return &Listener{
		source:              source,
		EnergyThreshold:     DefaultEnergyThreshold,
		DynamicEnergy:       true,
		PauseThreshold:      800 * time.Millisecond,
		PhraseThreshold:     300 * time.Millisecond,
		NonSpeakingDuration: 500 * time.Millisecond,
	}
}

// SampleRate returns the rate of the underlying source.
func (l *Listener) SampleRate() int {
	return l.source.SampleRate()
}

// AdjustForAmbientNoise listens for the given duration and calibrates the
// energy threshold to the background level.
func (l *Listener) AdjustForAmbientNoise(ctx context.Context, duration time.Duration) error {
	var elapsed time.Duration
	for elapsed < duration {
		chunk, err := l.source.ReadChunk(ctx)
		if err != nil {
			return err
		}
		chunkDuration := l.chunkDuration(chunk)
		elapsed += chunkDuration
		l.adjust(RMS(chunk), chunkDuration)
	}
	return nil
}

// Listen waits up to timeout for speech to start and records until a pause
// or until phraseLimit is reached. Zero durations disable the limits.
func (l *Listener) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]int16, error) {
	var waited time.Duration

	for {
		// Wait for the phrase to start, keeping a little leading silence.
		var leading [][]int16
		var leadingDuration time.Duration

		for {
			chunk, err := l.source.ReadChunk(ctx)
			if err != nil {
				return nil, err
			}
			chunkDuration := l.chunkDuration(chunk)
			waited += chunkDuration
			if timeout > 0 && waited > timeout {
				return nil, ErrWaitTimeout
			}

			energy := RMS(chunk)
			if energy > l.EnergyThreshold {
				leading = append(leading, chunk)
				break
			}

			leading = append(leading, chunk)
			leadingDuration += chunkDuration
			for leadingDuration > l.NonSpeakingDuration && len(leading) > 1 {
				leadingDuration -= l.chunkDuration(leading[0])
				leading = leading[1:]
			}

			if l.DynamicEnergy {
				l.adjust(energy, chunkDuration)
			}
		}

		phrase := make([]int16, 0, len(leading)*len(leading[0])*4)
		for _, c := range leading {
			phrase = append(phrase, c...)
		}

		// Record until the speaker pauses.
		last := leading[len(leading)-1]
		var phraseDuration, pauseDuration, voicedDuration time.Duration
		phraseDuration = l.chunkDuration(last)
		voicedDuration = phraseDuration

		for {
			if phraseLimit > 0 && phraseDuration >= phraseLimit {
				break
			}
			if pauseDuration > l.PauseThreshold {
				break
			}

			chunk, err := l.source.ReadChunk(ctx)
			if err != nil {
				return nil, err
			}
			chunkDuration := l.chunkDuration(chunk)
			phraseDuration += chunkDuration
			phrase = append(phrase, chunk...)

			if RMS(chunk) > l.EnergyThreshold {
				pauseDuration = 0
				voicedDuration += chunkDuration
			} else {
				pauseDuration += chunkDuration
			}
		}

		if voicedDuration >= l.PhraseThreshold || (phraseLimit > 0 && phraseDuration >= phraseLimit) {
			return phrase, nil
		}
		// Too short to be speech; a click or a cough. Keep waiting.
	}
}

func (l *Listener) adjust(energy float64, chunkDuration time.Duration) {
	damping := math.Pow(dynamicEnergyDamping, chunkDuration.Seconds())
	target := energy * dynamicEnergyRatio
	l.EnergyThreshold = l.EnergyThreshold*damping + target*(1-damping)
	if l.EnergyThreshold < MinEnergyThreshold {
		l.EnergyThreshold = MinEnergyThreshold
	}
}

func (l *Listener) chunkDuration(chunk []int16) time.Duration {
	rate := l.source.SampleRate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(len(chunk)) * time.Second / time.Duration(rate)
}

// RMS returns the root mean square of the samples.
func RMS(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
