// Package ks renders plucked-string waveforms with the Karplus-Strong
// algorithm. Each pluck is rendered once, in full, before it is scheduled;
// nothing in this package runs on the audio path.
package ks

import (
	"math"
	"math/rand"
)

// DurationSec is the length of every rendered pluck. With the decay values
// used here the tail is well below audibility before the buffer ends.
const DurationSec = 3.0

// Preset bundles the gain and decay coefficient for one class of string.
// Decay closer to 1.0 sustains longer.
type Preset struct {
	Gain  float64
	Decay float64
}

// MelodyPreset is used for strings 0-3.
func MelodyPreset() Preset {
	return Preset{Gain: 0.8, Decay: 0.996}
}

// DronePreset is used for the fifth string: quieter, ringing longer, so the
// drone sits under the melody instead of on top of it.
func DronePreset() Preset {
	return Preset{Gain: 0.5, Decay: 0.998}
}

// Render produces one pluck at freq Hz. The delay line length is
// round(sampleRate/freq), which quantizes the achievable pitch to the
// sample-rate resolution; the error is inaudible at banjo frequencies and is
// accepted rather than corrected with fractional delay.
func Render(freq, decay float64, sampleRate int) []float32 {
	return RenderSeeded(freq, decay, sampleRate, rand.Int63())
}

// RenderSeeded is Render with an explicit noise seed, for reproducible output.
func RenderSeeded(freq, decay float64, sampleRate int, seed int64) []float32 {
	delay := int(math.Round(float64(sampleRate) / freq))
	if delay < 2 {
		delay = 2
	}
	rng := rand.New(rand.NewSource(seed))
	line := make([]float64, delay)
	for i := range line {
		line[i] = rng.Float64()*2 - 1
	}

	n := int(DurationSec * float64(sampleRate))
	out := make([]float32, n)
	idx := 0
	for i := 0; i < n; i++ {
		cur := line[idx]
		next := line[(idx+1)%delay]
		out[i] = float32(cur)
		// Two-tap averaging lowpass with decay feedback.
		line[idx] = decay * 0.5 * (cur + next)
		idx++
		if idx == delay {
			idx = 0
		}
	}
	return out
}
