// Package click renders metronome ticks: a short sine burst with a fast
// downward pitch glide and an exponential attack/decay envelope. Like a
// string pluck, a tick is rendered in full before being scheduled.
package click

import "math"

const (
	// Accent ticks sit lower and hit harder than ordinary ticks.
	accentHz   = 500.0
	normalHz   = 750.0
	accentGain = 1.0
	normalGain = 0.6

	durationSec = 0.1
	glideSec    = 0.02  // 1.5x target down to target
	attackSec   = 0.002 // near-silence up to peak
	decaySec    = 0.09  // peak back down to near-silence

	// Exponential ramps are undefined at zero, so the envelope floors at a
	// small positive epsilon instead.
	eps = 1e-3
)

// Render produces one tick. pitchMul scales the base frequency of both
// accented and ordinary ticks uniformly; values <= 0 fall back to 1.
func Render(sampleRate int, accent bool, pitchMul float64) []float32 {
	base, peak := normalHz, normalGain
	if accent {
		base, peak = accentHz, accentGain
	}
	if pitchMul <= 0 {
		pitchMul = 1
	}
	target := base * pitchMul

	sr := float64(sampleRate)
	n := int(durationSec * sr)
	out := make([]float32, n)
	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / sr

		freq := target
		if t < glideSec {
			freq = target * 1.5 * math.Pow(1/1.5, t/glideSec)
		}
		phase += 2 * math.Pi * freq / sr

		var amp float64
		if t < attackSec {
			amp = eps * math.Pow(peak/eps, t/attackSec)
		} else {
			amp = peak * math.Pow(eps/peak, (t-attackSec)/decaySec)
			if amp < eps {
				amp = eps
			}
		}
		out[i] = float32(amp * math.Sin(phase))
	}
	return out
}
