package pitch

import "math"

// StringCount is the number of banjo strings. Index 4 is the short fifth
// (drone) string, tuned above its neighbors.
const StringCount = 5

// Open-G tuning, semitone offsets from A4 per string index:
// 0 = D4 (first string), 1 = B3, 2 = G3, 3 = D3, 4 = G4 (fifth string).
var openOffsets = [StringCount]int{-7, -10, -14, -19, -2}

// names holds the conventional tab line labels, first string on top.
var names = [StringCount]string{"d", "B", "G", "D", "g"}

const refA4 = 440.0

// Frequency returns the equal-temperament frequency in Hz for a fret on a
// string. Fret 0 is the open string. Frets are not range-checked upward;
// any non-negative fret yields a correspondingly higher pitch.
func Frequency(stringIndex, fret int) float64 {
	semis := openOffsets[stringIndex] + fret
	return refA4 * math.Pow(2, float64(semis)/12)
}

// Name returns the tab line label for a string index ("d", "B", "G", "D", "g").
func Name(stringIndex int) string {
	return names[stringIndex]
}
