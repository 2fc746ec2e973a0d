package clawtab

import (
	"github.com/banjozen/clawtab-go/internal/pitch"
	inttab "github.com/banjozen/clawtab-go/internal/tab"
)

// PitchToFrequency maps a string index (0-4) and fret to its frequency in
// Hz, fret 0 being the open string.
func PitchToFrequency(stringIndex, fret int) float64 {
	return pitch.Frequency(stringIndex, fret)
}

// Generate builds a timeline from a chord progression using the basic
// clawhammer bum-ditty template. measuresPerChord <= 0 defaults to 2.
func Generate(chords []string, measuresPerChord int) ([]inttab.Measure, error) {
	return inttab.Generate(chords, measuresPerChord)
}

// Chords returns the chord names Generate understands.
func Chords() []string {
	return inttab.ChordNames()
}

// RenderTab formats a timeline as five-line ASCII tablature.
func RenderTab(measures []inttab.Measure) string {
	return inttab.Render(measures)
}
