// Package sequencer is the playback control core: a look-ahead scheduler
// that walks a measure grid at a tempo and commits synth events slightly
// ahead of the output clock. It runs on a single goroutine whose only
// suspension point is a self-rearming wake timer; the real-time rendering
// happens elsewhere, against the clock this scheduler reads through Output.
package sequencer

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banjozen/clawtab-go/internal/ks"
	"github.com/banjozen/clawtab-go/internal/pitch"
	"github.com/banjozen/clawtab-go/internal/tab"
)

// Output is where scheduled sound lands. Now is the audio clock in seconds;
// PlayString and PlayClick commit one sound at an absolute clock time.
type Output interface {
	Now() float64
	PlayString(freq, gain, decay, when float64)
	PlayClick(when float64, accent bool, pitchMul float64)
}

// Mix is the slice of the mix settings the scheduler reads, snapshotted once
// per scheduled event.
type Mix struct {
	MetronomeEnabled bool
	AccentDownbeat   bool
	MetronomePitch   float64
}

type Options struct {
	WakeInterval time.Duration // scheduling pass period (default 25ms)
	LookAheadSec float64       // commit window beyond the clock (default 0.1)
	StartLeadSec float64       // first-event offset past the clock (default 0.1)
	TailSec      float64       // drain allowance for synth release (default 3.5)

	Mix       func() Mix // settings snapshot provider; nil = metronome off
	OnMeasure func(int)  // measure-boundary notification, runs on the scheduler goroutine
	OnEnd     func()     // fires exactly once, on natural end only

	// ManualPump suppresses the wake timer; the caller drives scheduling by
	// calling Pump. Used by the offline renderer and tests.
	ManualPump bool
}

// metronome ticks land on quarter-note boundaries: every fourth position.
const ticksEvery = 4

// Scheduler walks one timeline for one playback session. Idle -> Running on
// Start, back to Idle on Stop or on natural end after the drain delay.
type Scheduler struct {
	out  Output
	opts Options

	tempoBits atomic.Uint64 // float64 bits, read at each advance

	mu       sync.Mutex
	timeline []tab.Measure
	measure  int
	position int
	nextTime float64
	running  bool
	draining bool
	endAt    float64
	endFired bool
	timer    *time.Timer
}

func New(timeline []tab.Measure, out Output, tempoBPM float64, opts Options) *Scheduler {
	if opts.WakeInterval <= 0 {
		opts.WakeInterval = 25 * time.Millisecond
	}
	if opts.LookAheadSec <= 0 {
		opts.LookAheadSec = 0.1
	}
	if opts.StartLeadSec <= 0 {
		opts.StartLeadSec = 0.1
	}
	if opts.TailSec <= 0 {
		opts.TailSec = 3.5
	}
	s := &Scheduler{out: out, opts: opts, timeline: timeline}
	s.SetTempo(tempoBPM)
	return s
}

// SetTempo changes the tempo. It applies when the next event time is
// computed; sounds already committed keep their times.
func (s *Scheduler) SetTempo(bpm float64) {
	if bpm <= 0 {
		bpm = 120
	}
	s.tempoBits.Store(math.Float64bits(bpm))
}

func (s *Scheduler) Tempo() float64 {
	return math.Float64frombits(s.tempoBits.Load())
}

// Start begins a session at measure 0, position 0, with the first event a
// small lead past the current clock so the opening sound is not clipped.
// No-op if already running.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.draining = false
	s.endFired = false
	s.measure, s.position = 0, 0
	s.nextTime = s.out.Now() + s.opts.StartLeadSec
	if !s.opts.ManualPump {
		s.timer = time.AfterFunc(s.opts.WakeInterval, s.wake)
	}
}

// Stop ends the session without firing OnEnd. Idempotent. The caller owns
// tearing down the output graph; stopping here only guarantees no further
// events are committed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.draining = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Running reports whether a session is live (including the end-drain phase).
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Pump runs one scheduling pass. Only meaningful with ManualPump; the wake
// timer calls the same pass otherwise.
func (s *Scheduler) Pump() {
	s.mu.Lock()
	fire := s.pumpLocked()
	s.mu.Unlock()
	if fire && s.opts.OnEnd != nil {
		s.opts.OnEnd()
	}
}

func (s *Scheduler) wake() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	fire := s.pumpLocked()
	if s.running {
		s.timer = time.AfterFunc(s.opts.WakeInterval, s.wake)
	} else {
		s.timer = nil
	}
	s.mu.Unlock()
	if fire && s.opts.OnEnd != nil {
		s.opts.OnEnd()
	}
}

// pumpLocked commits every event whose time falls inside the look-ahead
// window, then handles end-of-timeline draining. Returns true when the
// natural-end notification should fire.
func (s *Scheduler) pumpLocked() bool {
	now := s.out.Now()
	for s.running && !s.draining {
		// Past the last measure (or handed an index we cannot serve) the
		// timeline is exhausted: stop committing, wait out the tail.
		if s.measure >= len(s.timeline) {
			s.draining = true
			s.endAt = s.nextTime + s.opts.TailSec
			break
		}
		if s.nextTime > now+s.opts.LookAheadSec {
			break
		}
		s.emitLocked()
		s.advanceLocked()
	}
	if s.draining && now >= s.endAt && !s.endFired {
		s.running = false
		s.draining = false
		s.endFired = true
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		return true
	}
	return false
}

// emitLocked commits every sound for the current grid column at nextTime.
func (s *Scheduler) emitLocked() {
	if s.position == 0 && s.opts.OnMeasure != nil {
		s.opts.OnMeasure(s.measure)
	}
	mix := s.mixSnapshot()
	if s.position%ticksEvery == 0 && mix.MetronomeEnabled {
		accent := s.position == 0 && mix.AccentDownbeat
		s.out.PlayClick(s.nextTime, accent, mix.MetronomePitch)
	}
	m := &s.timeline[s.measure]
	for str := 0; str < tab.Strings; str++ {
		fret, ok := m.Cells[str][s.position].Fret()
		if !ok {
			continue
		}
		preset := ks.MelodyPreset()
		if str == tab.Strings-1 {
			preset = ks.DronePreset()
		}
		s.out.PlayString(pitch.Frequency(str, fret), preset.Gain, preset.Decay, s.nextTime)
	}
}

// advanceLocked steps one sixteenth, wrapping positions into measures. The
// tempo is re-read here, so tempo changes land on the next computed time.
func (s *Scheduler) advanceLocked() {
	s.position++
	if s.position == tab.Positions {
		s.position = 0
		s.measure++
	}
	s.nextTime += 60.0 / s.Tempo() / 4.0
}

func (s *Scheduler) mixSnapshot() Mix {
	if s.opts.Mix == nil {
		return Mix{}
	}
	return s.opts.Mix()
}
