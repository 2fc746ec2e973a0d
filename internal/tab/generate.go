package tab

import (
	"fmt"
	"strconv"
	"strings"
)

// chordShapes maps a chord name to frets per string (index 0-4) in open-G
// tuning. The fifth string stays open; clawhammer leaves the drone alone.
var chordShapes = map[string][Strings]int{
	"G":  {0, 0, 0, 0, 0},
	"G7": {3, 0, 0, 0, 0},
	"C":  {2, 1, 0, 2, 0},
	"D":  {4, 3, 2, 0, 0},
	"D7": {2, 1, 2, 0, 0},
	"Em": {2, 0, 0, 2, 0},
	"Am": {2, 1, 2, 2, 0},
	"A":  {2, 2, 2, 2, 0},
	"F":  {3, 1, 2, 3, 0},
}

// ChordNames returns the supported chord names, unordered.
func ChordNames() []string {
	names := make([]string, 0, len(chordShapes))
	for name := range chordShapes {
		names = append(names, name)
	}
	return names
}

// Generate fills a timeline from a chord progression using the basic
// clawhammer bum-ditty template: a single melody note on beats 1 and 3, a
// brush across the top strings on beats 2 and 4, each followed by the open
// fifth string on the and. Every other measure of a chord swaps in a
// hammer-on where the shape allows one. measuresPerChord <= 0 defaults to 2.
func Generate(chords []string, measuresPerChord int) ([]Measure, error) {
	if measuresPerChord <= 0 {
		measuresPerChord = 2
	}
	var out []Measure
	for _, name := range chords {
		shape, ok := chordShapes[normalizeChord(name)]
		if !ok {
			return nil, fmt.Errorf("unknown chord %q", name)
		}
		for i := 0; i < measuresPerChord; i++ {
			out = append(out, fillMeasure(shape, i%2 == 1))
		}
	}
	return out, nil
}

func fillMeasure(shape [Strings]int, ornament bool) Measure {
	m := NewMeasure()
	fret := func(s int) Cell { return Cell(strconv.Itoa(shape[s])) }

	// Beat 1: melody on the third string, beat 3 alternates to the bass.
	m.Cells[2][0] = fret(2)
	m.Cells[3][8] = fret(3)
	if ornament && shape[3] == hammerOnFret {
		m.Cells[3][8] = CellHammerOn
	}
	// Beats 2 and 4: brush the top three strings, then the drone.
	for _, p := range []int{4, 12} {
		for s := 0; s < 3; s++ {
			m.Cells[s][p] = fret(s)
		}
		m.Cells[4][p+2] = "0"
	}
	return m
}

func normalizeChord(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	// Root letter uppercase, quality suffix as written (m, 7, ...).
	return strings.ToUpper(name[:1]) + name[1:]
}
