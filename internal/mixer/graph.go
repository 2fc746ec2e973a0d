// Package mixer is the output graph: two independently gained buses mixed
// into one stereo sink, with a sample clock scheduling can aim at. A graph
// lives for exactly one playback session; stop tears it down whole, which is
// what guarantees no scheduled sound survives a stop.
package mixer

import (
	"sync"
	"sync/atomic"
)

// Bus identifiers.
const (
	BusInstrument = iota
	BusMetronome
	busCount
)

// Gain changes ramp with a one-pole smoother on this time constant so the
// mix never steps audibly.
const gainSmoothingSec = 0.02

type bus struct {
	gain   float64 // smoothed, audio-path only
	target float64
	muted  bool // forces the effective target to zero
}

func (b *bus) effectiveTarget() float64 {
	if b.muted {
		return 0
	}
	return b.target
}

// Voice is a handle to one scheduled buffer. Stopping a voice that already
// ended is a no-op.
type Voice struct {
	graph *Graph
	buf   []float32
	gain  float64
	bus   int
	start int64 // absolute frame
	pos   int
	done  bool
}

// Stop silences this voice immediately.
func (v *Voice) Stop() {
	v.graph.mu.Lock()
	v.done = true
	v.graph.mu.Unlock()
}

type Graph struct {
	sampleRate int
	alpha      float64
	frames     atomic.Int64 // frames rendered so far

	mu     sync.Mutex
	buses  [busCount]bus
	voices []*Voice
	closed bool
}

func NewGraph(sampleRate int) *Graph {
	g := &Graph{
		sampleRate: sampleRate,
		alpha:      1.0 / (gainSmoothingSec * float64(sampleRate)),
	}
	for i := range g.buses {
		g.buses[i] = bus{gain: 1, target: 1}
	}
	return g
}

// Now returns the graph clock in seconds: how much audio has been rendered.
func (g *Graph) Now() float64 {
	return float64(g.frames.Load()) / float64(g.sampleRate)
}

// SetBusGain ramps a bus toward gain. Safe at any time.
func (g *Graph) SetBusGain(busIndex int, gain float64) {
	if gain < 0 {
		gain = 0
	}
	g.mu.Lock()
	g.buses[busIndex].target = gain
	g.mu.Unlock()
}

// SetBusMuted overrides a bus to silence regardless of its nominal gain.
func (g *Graph) SetBusMuted(busIndex int, muted bool) {
	g.mu.Lock()
	g.buses[busIndex].muted = muted
	g.mu.Unlock()
}

// PlayBuffer schedules a mono buffer on a bus at an absolute graph time in
// seconds. Times already in the past start immediately. Scheduling on a
// closed graph returns an inert handle.
func (g *Graph) PlayBuffer(busIndex int, buf []float32, gain float64, when float64) *Voice {
	v := &Voice{
		graph: g,
		buf:   buf,
		gain:  gain,
		bus:   busIndex,
		start: int64(when * float64(g.sampleRate)),
	}
	g.mu.Lock()
	if g.closed {
		v.done = true
	} else {
		g.voices = append(g.voices, v)
	}
	g.mu.Unlock()
	return v
}

// ActiveVoices reports how many scheduled or sounding voices remain.
func (g *Graph) ActiveVoices() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, v := range g.voices {
		if !v.done {
			n++
		}
	}
	return n
}

// Close tears the graph down: every pending and sounding voice is discarded
// and all further output is silence.
func (g *Graph) Close() {
	g.mu.Lock()
	g.closed = true
	g.voices = nil
	g.mu.Unlock()
}

// Process renders the next len(dst)/2 frames of stereo interleaved audio.
// Voices are mono and pan center.
func (g *Graph) Process(dst []float32) {
	frames := len(dst) / 2
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.frames.Load()
	if g.closed {
		for i := range dst {
			dst[i] = 0
		}
		g.frames.Add(int64(frames))
		return
	}

	for f := 0; f < frames; f++ {
		abs := base + int64(f)
		var busMix [busCount]float64
		for _, v := range g.voices {
			if v.done || abs < v.start {
				continue
			}
			busMix[v.bus] += float64(v.buf[v.pos]) * v.gain
			v.pos++
			if v.pos >= len(v.buf) {
				v.done = true
			}
		}
		var out float64
		for i := range g.buses {
			b := &g.buses[i]
			b.gain += (b.effectiveTarget() - b.gain) * g.alpha
			out += busMix[i] * b.gain
		}
		dst[2*f] = float32(out)
		dst[2*f+1] = float32(out)
	}
	g.frames.Add(int64(frames))
	g.reapLocked()
}

// reapLocked drops finished voices. Callers hold g.mu.
func (g *Graph) reapLocked() {
	kept := g.voices[:0]
	for _, v := range g.voices {
		if !v.done {
			kept = append(kept, v)
		}
	}
	g.voices = kept
}
