package tab

import (
	"strings"

	"github.com/banjozen/clawtab-go/internal/pitch"
)

// Render formats a timeline as five-line ASCII tablature, first string on
// top, one column per sixteenth position, measures separated by bars.
func Render(measures []Measure) string {
	// Column widths per measure position, so double-digit frets stay aligned.
	widths := make([][Positions]int, len(measures))
	for i, m := range measures {
		for p := 0; p < Positions; p++ {
			w := 1
			for s := 0; s < Strings; s++ {
				if n := len(cellToken(m.Cells[s][p])); n > w {
					w = n
				}
			}
			widths[i][p] = w
		}
	}

	var b strings.Builder
	for s := 0; s < Strings; s++ {
		b.WriteString(pitch.Name(s))
		b.WriteByte('|')
		for i, m := range measures {
			for p := 0; p < Positions; p++ {
				tok := cellToken(m.Cells[s][p])
				b.WriteString(tok)
				for pad := len(tok); pad < widths[i][p]; pad++ {
					b.WriteByte('-')
				}
			}
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func cellToken(c Cell) string {
	if c == "" {
		return string(CellSilent)
	}
	return string(c)
}
