// Package clawtab generates clawhammer banjo tablature for chord
// progressions and plays it back with Karplus-Strong string synthesis and a
// metronome sharing one timeline.
package clawtab

import (
	"errors"
	"sync"
	"sync/atomic"

	intaudio "github.com/banjozen/clawtab-go/internal/audio"
	intclick "github.com/banjozen/clawtab-go/internal/click"
	intks "github.com/banjozen/clawtab-go/internal/ks"
	intmix "github.com/banjozen/clawtab-go/internal/mixer"
	intseq "github.com/banjozen/clawtab-go/internal/sequencer"
	inttab "github.com/banjozen/clawtab-go/internal/tab"
)

// PlaybackEvent carries playback notifications from Watch().
type PlaybackEvent struct {
	Kind         int
	MeasureIndex int // set for EventMeasureStarted
}

const (
	// EventPlaybackEnded fires exactly once per session, on natural end
	// only; an explicit Stop never emits it.
	EventPlaybackEnded int = iota
	// EventMeasureStarted fires as each measure is committed to the
	// schedule, slightly ahead of when it is heard.
	EventMeasureStarted
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	mix MixSettings
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{mix: DefaultMixSettings()}
}

func WithMixSettings(mix MixSettings) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.mix = mix
	}
}

// Player plays tablature timelines. At most one session is live at a time; a
// new Play fully tears down the previous session, output graph included, so
// no sound from an old session can outlive its replacement.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	sched      *intseq.Scheduler
	graph      *intmix.Graph
	out        *intaudio.Output
	done       chan struct{}

	mixMu sync.Mutex
	mix   MixSettings

	eventChMu sync.Mutex
	eventCh   chan PlaybackEvent
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Player{
		sampleRate: sampleRate,
		mix:        cfg.mix,
	}, nil
}

// graphOutput routes scheduler events into a session's graph: each call
// renders a complete waveform and commits it at the requested clock time.
type graphOutput struct {
	graph      *intmix.Graph
	sampleRate int
}

func (o *graphOutput) Now() float64 { return o.graph.Now() }

func (o *graphOutput) PlayString(freq, gain, decay, when float64) {
	o.graph.PlayBuffer(intmix.BusInstrument, intks.Render(freq, decay, o.sampleRate), gain, when)
}

func (o *graphOutput) PlayClick(when float64, accent bool, pitchMul float64) {
	o.graph.PlayBuffer(intmix.BusMetronome, intclick.Render(o.sampleRate, accent, pitchMul), 1, when)
}

// sessionSource feeds one session's graph to the device and reports EOF once
// the session has drained.
type sessionSource struct {
	graph    *intmix.Graph
	finished *atomic.Bool
}

func (s *sessionSource) Process(dst []float32) { s.graph.Process(dst) }
func (s *sessionSource) Finished() bool        { return s.finished.Load() }

// Play starts playback of a timeline at tempoBPM, replacing any running
// session. An empty timeline is a no-op. The error is the audio device
// failing to open; playback itself never returns errors.
func (p *Player) Play(measures []inttab.Measure, tempoBPM float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(measures) == 0 {
		return nil
	}
	p.teardownLocked()
	p.signalDoneLocked() // release anyone waiting on the superseded session
	p.done = make(chan struct{})

	mix := p.Mix()
	graph := intmix.NewGraph(p.sampleRate)
	applyMixToGraph(graph, mix)

	var finished atomic.Bool
	sched := intseq.New(measures, &graphOutput{graph: graph, sampleRate: p.sampleRate}, tempoBPM, intseq.Options{
		Mix: p.mixSnapshot,
		OnMeasure: func(i int) {
			p.sendEvent(PlaybackEvent{Kind: EventMeasureStarted, MeasureIndex: i})
		},
		OnEnd: func() {
			finished.Store(true)
			p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
			p.signalDone()
		},
	})

	out, err := intaudio.NewOutput(p.sampleRate, &sessionSource{graph: graph, finished: &finished})
	if err != nil {
		p.signalDoneLocked()
		return err
	}
	p.graph = graph
	p.sched = sched
	p.out = out
	out.Play()
	sched.Start()
	return nil
}

// Stop ends the current session. Idempotent; a no-op when idle. The
// completion event is not emitted, but Wait is released.
func (p *Player) Stop() {
	p.mu.Lock()
	p.teardownLocked()
	p.signalDoneLocked()
	p.mu.Unlock()
}

// teardownLocked dismantles the live session: scheduler first so nothing new
// is committed, then the graph so everything pending is discarded, then the
// device connection.
func (p *Player) teardownLocked() {
	if p.sched != nil {
		p.sched.Stop()
		p.sched = nil
	}
	if p.graph != nil {
		p.graph.Close()
		p.graph = nil
	}
	if p.out != nil {
		_ = p.out.Stop()
		p.out = nil
	}
}

// Playing reports whether a session is live, including its end drain.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched != nil && p.sched.Running()
}

// SetTempo changes the playback tempo. Live sessions pick it up on the next
// scheduling pass; already-committed sounds keep their times.
func (p *Player) SetTempo(bpm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		p.sched.SetTempo(bpm)
	}
}

// UpdateMix applies mix settings. Always safe: settings live independently
// of sessions, and a live graph picks them up as smoothed ramps.
func (p *Player) UpdateMix(mix MixSettings) {
	p.mixMu.Lock()
	p.mix = mix
	p.mixMu.Unlock()

	p.mu.Lock()
	if p.graph != nil {
		applyMixToGraph(p.graph, mix)
	}
	p.mu.Unlock()
}

// Mix returns the current mix settings.
func (p *Player) Mix() MixSettings {
	p.mixMu.Lock()
	defer p.mixMu.Unlock()
	return p.mix
}

func (p *Player) mixSnapshot() intseq.Mix {
	mix := p.Mix()
	return intseq.Mix{
		MetronomeEnabled: mix.MetronomeEnabled,
		AccentDownbeat:   mix.AccentDownbeat,
		MetronomePitch:   mix.MetronomePitch,
	}
}

func applyMixToGraph(g *intmix.Graph, mix MixSettings) {
	g.SetBusGain(intmix.BusInstrument, mix.InstrumentGain)
	g.SetBusGain(intmix.BusMetronome, mix.MetronomeGain)
	g.SetBusMuted(intmix.BusMetronome, !mix.MetronomeEnabled)
}

// Wait blocks until the current session ends, naturally or by Stop. Returns
// immediately when idle.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel receiving playback events. The channel is buffered
// (cap 8) and events are dropped rather than blocking the scheduler; only
// the most recent Watch channel receives events. Call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	p.signalDoneLocked()
	p.mu.Unlock()
}

func (p *Player) signalDoneLocked() {
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
}
