// Package tab defines the measure grid the scheduler plays from and the
// generator that fills it from a chord progression.
package tab

import "strconv"

const (
	// Strings is the number of grid rows; row 4 is the fifth (drone) string.
	Strings = 5
	// Positions is the number of sixteenth-note slots per measure.
	Positions = 16
)

// Cell is one grid slot: the silent marker, a decimal fret number, or the
// hammer-on marker.
type Cell string

const (
	CellSilent   Cell = "-"
	CellHammerOn Cell = "h"
)

// hammerOnFret is the fret a hammer-on marker resolves to for pitch purposes.
const hammerOnFret = 2

// Measure is a fixed 5x16 grid of cells. The shape never changes; an empty
// cell reads as silent.
type Measure struct {
	Cells [Strings][Positions]Cell
}

// NewMeasure returns a measure with every cell silent.
func NewMeasure() Measure {
	var m Measure
	for s := range m.Cells {
		for p := range m.Cells[s] {
			m.Cells[s][p] = CellSilent
		}
	}
	return m
}

// Fret resolves a cell to a fret number. The second return is false for the
// silent marker, empty cells, and anything unparseable; malformed upstream
// data is skipped rather than reported.
func (c Cell) Fret() (int, bool) {
	switch c {
	case CellSilent, "":
		return 0, false
	case CellHammerOn:
		return hammerOnFret, true
	}
	n, err := strconv.Atoi(string(c))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
