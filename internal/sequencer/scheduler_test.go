package sequencer

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/banjozen/clawtab-go/internal/pitch"
	"github.com/banjozen/clawtab-go/internal/tab"
)

type pluckCall struct {
	freq, gain, decay, when float64
}

type clickCall struct {
	when     float64
	accent   bool
	pitchMul float64
}

// recordingOut is a fake Output with a manually advanced clock.
type recordingOut struct {
	mu     sync.Mutex
	now    float64
	plucks []pluckCall
	clicks []clickCall
}

func (o *recordingOut) Now() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

func (o *recordingOut) advance(to float64) {
	o.mu.Lock()
	o.now = to
	o.mu.Unlock()
}

func (o *recordingOut) PlayString(freq, gain, decay, when float64) {
	o.mu.Lock()
	o.plucks = append(o.plucks, pluckCall{freq, gain, decay, when})
	o.mu.Unlock()
}

func (o *recordingOut) PlayClick(when float64, accent bool, pitchMul float64) {
	o.mu.Lock()
	o.clicks = append(o.clicks, clickCall{when, accent, pitchMul})
	o.mu.Unlock()
}

func (o *recordingOut) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.plucks), len(o.clicks)
}

func singleCellTimeline(str, pos int, cell tab.Cell) []tab.Measure {
	m := tab.NewMeasure()
	m.Cells[str][pos] = cell
	return []tab.Measure{m}
}

func manualOpts() Options {
	return Options{ManualPump: true, LookAheadSec: 100, StartLeadSec: 0.1}
}

func TestSingleCellSchedulesOnePluck(t *testing.T) {
	out := &recordingOut{}
	s := New(singleCellTimeline(0, 0, "0"), out, 120, manualOpts())
	s.Start()
	s.Pump()

	if len(out.clicks) != 0 {
		t.Fatalf("metronome disabled but %d clicks scheduled", len(out.clicks))
	}
	if len(out.plucks) != 1 {
		t.Fatalf("got %d plucks, want exactly 1", len(out.plucks))
	}
	p := out.plucks[0]
	if math.Abs(p.when-0.1) > 1e-9 {
		t.Errorf("pluck at %v, want start lead 0.1", p.when)
	}
	if want := pitch.Frequency(0, 0); p.freq != want {
		t.Errorf("pluck freq %v, want %v", p.freq, want)
	}
}

func TestHammerOnResolvesToFixedFret(t *testing.T) {
	out := &recordingOut{}
	s := New(singleCellTimeline(2, 0, tab.CellHammerOn), out, 120, manualOpts())
	s.Start()
	s.Pump()
	if len(out.plucks) != 1 {
		t.Fatalf("got %d plucks, want 1", len(out.plucks))
	}
	if want := pitch.Frequency(2, 2); out.plucks[0].freq != want {
		t.Errorf("hammer-on freq %v, want %v", out.plucks[0].freq, want)
	}
}

func TestInvalidCellsSkippedSilently(t *testing.T) {
	m := tab.NewMeasure()
	m.Cells[0][0] = "x"
	m.Cells[1][0] = "-3"
	m.Cells[2][0] = "2.5"
	out := &recordingOut{}
	s := New([]tab.Measure{m}, out, 120, manualOpts())
	s.Start()
	s.Pump()
	if len(out.plucks) != 0 {
		t.Fatalf("malformed cells produced %d plucks", len(out.plucks))
	}
}

func TestDronePresetOnFifthString(t *testing.T) {
	m := tab.NewMeasure()
	m.Cells[0][0] = "0"
	m.Cells[4][0] = "0"
	out := &recordingOut{}
	s := New([]tab.Measure{m}, out, 120, manualOpts())
	s.Start()
	s.Pump()
	if len(out.plucks) != 2 {
		t.Fatalf("got %d plucks, want 2", len(out.plucks))
	}
	melody, drone := out.plucks[0], out.plucks[1]
	if drone.gain >= melody.gain {
		t.Errorf("drone gain %v should be below melody gain %v", drone.gain, melody.gain)
	}
	if drone.decay <= melody.decay {
		t.Errorf("drone decay %v should exceed melody decay %v", drone.decay, melody.decay)
	}
}

func TestSixteenthSpacingAndMonotonicTimes(t *testing.T) {
	m := tab.NewMeasure()
	for p := 0; p < tab.Positions; p++ {
		m.Cells[0][p] = "0"
	}
	m2 := tab.NewMeasure()
	m2.Cells[0][0] = "0"
	out := &recordingOut{}
	s := New([]tab.Measure{m, m2}, out, 120, manualOpts())
	s.Start()
	s.Pump()

	if len(out.plucks) != 17 {
		t.Fatalf("got %d plucks, want 17", len(out.plucks))
	}
	const step = 60.0 / 120 / 4
	for i := 1; i < len(out.plucks); i++ {
		gap := out.plucks[i].when - out.plucks[i-1].when
		if gap < 0 {
			t.Fatalf("event %d scheduled before event %d", i, i-1)
		}
	}
	// Position 0 of measure 1 follows position 15 of measure 0 by exactly
	// one sixteenth.
	gap := out.plucks[16].when - out.plucks[15].when
	if math.Abs(gap-step) > 1e-9 {
		t.Fatalf("measure boundary gap %v, want %v", gap, step)
	}
}

func TestMetronomePlacementAndAccent(t *testing.T) {
	mix := Mix{MetronomeEnabled: true, AccentDownbeat: true, MetronomePitch: 1.5}
	opts := manualOpts()
	opts.Mix = func() Mix { return mix }
	out := &recordingOut{}
	s := New([]tab.Measure{tab.NewMeasure(), tab.NewMeasure()}, out, 120, opts)
	s.Start()
	s.Pump()

	if len(out.clicks) != 8 {
		t.Fatalf("got %d clicks, want 4 per measure over 2 measures", len(out.clicks))
	}
	const beat = 60.0 / 120
	for i, c := range out.clicks {
		want := 0.1 + float64(i)*beat
		if math.Abs(c.when-want) > 1e-9 {
			t.Errorf("click %d at %v, want %v", i, c.when, want)
		}
		wantAccent := i%4 == 0 // only position 0 of each measure
		if c.accent != wantAccent {
			t.Errorf("click %d accent = %v, want %v", i, c.accent, wantAccent)
		}
		if c.pitchMul != 1.5 {
			t.Errorf("click %d pitchMul = %v, want 1.5", i, c.pitchMul)
		}
	}
}

func TestAccentOffWithoutDownbeatFlag(t *testing.T) {
	opts := manualOpts()
	opts.Mix = func() Mix { return Mix{MetronomeEnabled: true, MetronomePitch: 1} }
	out := &recordingOut{}
	s := New([]tab.Measure{tab.NewMeasure()}, out, 120, opts)
	s.Start()
	s.Pump()
	for i, c := range out.clicks {
		if c.accent {
			t.Fatalf("click %d accented with accent-downbeat disabled", i)
		}
	}
}

func TestMetronomeDisableMidSession(t *testing.T) {
	m := tab.NewMeasure()
	for p := 0; p < tab.Positions; p++ {
		m.Cells[1][p] = "0"
	}
	var mu sync.Mutex
	enabled := true
	opts := Options{ManualPump: true, LookAheadSec: 0.1, StartLeadSec: 0.1}
	opts.Mix = func() Mix {
		mu.Lock()
		defer mu.Unlock()
		return Mix{MetronomeEnabled: enabled, MetronomePitch: 1}
	}
	out := &recordingOut{}
	s := New([]tab.Measure{m}, out, 120, opts)
	s.Start()
	s.Pump() // commits position 0 only at now=0

	mu.Lock()
	enabled = false
	mu.Unlock()
	out.advance(2)
	s.Pump() // rest of the measure

	plucks, clicks := out.counts()
	if clicks != 1 {
		t.Fatalf("got %d clicks, want only the one before disabling", clicks)
	}
	if plucks != tab.Positions {
		t.Fatalf("string sounds affected by metronome disable: %d plucks", plucks)
	}
}

func TestTempoChangeAppliesToNextEventOnly(t *testing.T) {
	m := tab.NewMeasure()
	for p := 0; p < tab.Positions; p++ {
		m.Cells[0][p] = "0"
	}
	opts := Options{ManualPump: true, LookAheadSec: 0.1, StartLeadSec: 0.1}
	out := &recordingOut{}
	s := New([]tab.Measure{m}, out, 120, opts)
	s.Start()
	s.Pump() // commits event at 0.1, next computed at old tempo: 0.225

	s.SetTempo(60)
	out.advance(0.2)
	s.Pump() // 0.225 keeps its already-computed time
	out.advance(0.5)
	s.Pump() // next step now at the new tempo

	if len(out.plucks) < 3 {
		t.Fatalf("got %d plucks, want at least 3", len(out.plucks))
	}
	if gap := out.plucks[1].when - out.plucks[0].when; math.Abs(gap-0.125) > 1e-9 {
		t.Errorf("already-computed event rescheduled: gap %v", gap)
	}
	if gap := out.plucks[2].when - out.plucks[1].when; math.Abs(gap-0.25) > 1e-9 {
		t.Errorf("new tempo not applied to next event: gap %v", gap)
	}
}

func TestNaturalEndFiresOnceAfterDrain(t *testing.T) {
	ends := 0
	opts := manualOpts()
	opts.TailSec = 3.5
	opts.OnEnd = func() { ends++ }
	out := &recordingOut{}
	s := New([]tab.Measure{tab.NewMeasure()}, out, 240, opts)
	s.Start()
	s.Pump() // whole measure committed, drain begins

	// One measure at 240 BPM is one second; end no earlier than lead +
	// 16*(60/240/4) + tail.
	endAt := 0.1 + 1.0 + 3.5
	out.advance(endAt - 0.01)
	s.Pump()
	if ends != 0 || !s.Running() {
		t.Fatal("completion fired before the drain delay elapsed")
	}
	out.advance(endAt + 0.01)
	s.Pump()
	if ends != 1 {
		t.Fatalf("completion fired %d times, want 1", ends)
	}
	if s.Running() {
		t.Fatal("scheduler still running after natural end")
	}
	s.Pump()
	if ends != 1 {
		t.Fatalf("completion re-fired: %d", ends)
	}
}

func TestExplicitStopSuppressesCompletion(t *testing.T) {
	ends := 0
	opts := manualOpts()
	opts.OnEnd = func() { ends++ }
	out := &recordingOut{}
	s := New([]tab.Measure{tab.NewMeasure()}, out, 120, opts)
	s.Start()
	s.Pump()
	s.Stop()
	if s.Running() {
		t.Fatal("still running after Stop")
	}
	out.advance(100)
	s.Pump()
	if ends != 0 {
		t.Fatalf("completion fired %d times after explicit stop", ends)
	}
	s.Stop() // idempotent
}

func TestStartWhileRunningDoesNotRestart(t *testing.T) {
	out := &recordingOut{}
	s := New(singleCellTimeline(0, 0, "0"), out, 120, manualOpts())
	s.Start()
	s.Pump()
	s.Start() // must not rewind to position 0
	s.Pump()
	if len(out.plucks) != 1 {
		t.Fatalf("re-entrant Start duplicated scheduling: %d plucks", len(out.plucks))
	}
}

func TestStopImmediatelyAfterStartSchedulesNothing(t *testing.T) {
	out := &recordingOut{}
	opts := Options{WakeInterval: 20 * time.Millisecond, LookAheadSec: 0.1, StartLeadSec: 0.1}
	s := New(singleCellTimeline(0, 0, "0"), out, 120, opts)
	s.Start()
	s.Stop()
	time.Sleep(60 * time.Millisecond)
	plucks, clicks := out.counts()
	if plucks != 0 || clicks != 0 {
		t.Fatalf("events scheduled after immediate stop: %d plucks, %d clicks", plucks, clicks)
	}
}

func TestWakeTimerDrivesScheduling(t *testing.T) {
	out := &recordingOut{}
	opts := Options{WakeInterval: time.Millisecond, LookAheadSec: 0.2, StartLeadSec: 0.1}
	s := New(singleCellTimeline(0, 0, "0"), out, 120, opts)
	s.Start()
	defer s.Stop()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p, _ := out.counts(); p > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("wake timer never committed the scheduled pluck")
}
