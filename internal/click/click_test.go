package click

import (
	"math"
	"testing"
)

func TestRenderShape(t *testing.T) {
	buf := Render(44100, false, 1)
	if want := int(durationSec * 44100); len(buf) != want {
		t.Fatalf("length = %d, want %d", len(buf), want)
	}
	// Peak lands early (attack is 2ms) and the tail is near-silent.
	peakAt, peak := 0, 0.0
	for i, s := range buf {
		if a := math.Abs(float64(s)); a > peak {
			peak, peakAt = a, i
		}
	}
	if peak == 0 {
		t.Fatal("tick rendered silence")
	}
	if peakAt > 44100/100 {
		t.Fatalf("peak at sample %d, expected within the first 10ms", peakAt)
	}
	tail := buf[len(buf)-441:]
	for _, s := range tail {
		if math.Abs(float64(s)) > 0.01 {
			t.Fatalf("tail sample %v not near-silent", s)
		}
	}
}

func TestAccentLouderAndLower(t *testing.T) {
	plain := Render(44100, false, 1)
	accent := Render(44100, true, 1)
	if peakOf(accent) <= peakOf(plain) {
		t.Fatal("accent tick should peak louder than plain tick")
	}
	if crossings(accent) >= crossings(plain) {
		t.Fatal("accent tick should sit at a lower frequency than plain tick")
	}
}

func TestPitchMultiplierRaisesFrequency(t *testing.T) {
	low := Render(44100, false, 1)
	high := Render(44100, false, 2)
	if crossings(high) <= crossings(low) {
		t.Fatal("pitch multiplier 2 should raise the tick frequency")
	}
}

func TestNonPositiveMultiplierFallsBack(t *testing.T) {
	a := Render(44100, false, 0)
	b := Render(44100, false, 1)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d: multiplier 0 should behave as 1", i)
		}
	}
}

func peakOf(buf []float32) float64 {
	peak := 0.0
	for _, s := range buf {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

func crossings(buf []float32) int {
	n := 0
	for i := 1; i < len(buf); i++ {
		if (buf[i-1] < 0) != (buf[i] < 0) {
			n++
		}
	}
	return n
}
