// Command tab_tui is a terminal front-end for the tab player: it shows the
// generated tablature, highlights the measure being played, and maps keys to
// the live playback controls (tempo, metronome, accent).
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	clawtab "github.com/banjozen/clawtab-go"
	"github.com/banjozen/clawtab-go/internal/pitch"
	"github.com/banjozen/clawtab-go/internal/tab"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type model struct {
	player   *clawtab.Player
	measures []tab.Measure
	title    string
	tempo    float64
	mix      clawtab.MixSettings
	events   <-chan clawtab.PlaybackEvent

	playing bool
	current int // measure being played, -1 when stopped
}

func waitForEvent(ch <-chan clawtab.PlaybackEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return ev
	}
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.player.Stop()
			return m, tea.Quit
		case " ":
			if m.playing {
				m.player.Stop()
				m.playing = false
				m.current = -1
				return m, nil
			}
			if err := m.player.Play(m.measures, m.tempo); err == nil {
				m.playing = true
			}
			return m, nil
		case "+", "=":
			m.tempo += 5
			m.player.SetTempo(m.tempo)
		case "-":
			if m.tempo > 40 {
				m.tempo -= 5
				m.player.SetTempo(m.tempo)
			}
		case "m":
			m.mix.MetronomeEnabled = !m.mix.MetronomeEnabled
			m.player.UpdateMix(m.mix)
		case "a":
			m.mix.AccentDownbeat = !m.mix.AccentDownbeat
			m.player.UpdateMix(m.mix)
		}
		return m, nil

	case clawtab.PlaybackEvent:
		switch msg.Kind {
		case clawtab.EventMeasureStarted:
			m.current = msg.MeasureIndex
		case clawtab.EventPlaybackEnded:
			m.playing = false
			m.current = -1
		}
		return m, waitForEvent(m.events)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	for s := 0; s < tab.Strings; s++ {
		b.WriteString(pitch.Name(s))
		b.WriteString("|")
		for i := range m.measures {
			seg := measureSegment(&m.measures[i], s)
			if i == m.current {
				b.WriteString(activeStyle.Render(seg))
			} else {
				b.WriteString(seg)
			}
			b.WriteString("|")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.playing {
		b.WriteString(statusStyle.Render("playing"))
	} else {
		b.WriteString(stoppedStyle.Render("stopped"))
	}
	metronome := "on"
	if !m.mix.MetronomeEnabled {
		metronome = "off"
	}
	accent := "on"
	if !m.mix.AccentDownbeat {
		accent = "off"
	}
	fmt.Fprintf(&b, "  %.0f bpm  metronome %s  accent %s\n", m.tempo, metronome, accent)
	b.WriteString(dimStyle.Render("space play/stop  +/- tempo  m metronome  a accent  q quit"))
	b.WriteString("\n")
	return b.String()
}

// measureSegment renders one string row of one measure, one rune per
// sixteenth. Generated tab never frets past 9, so cells are single-width.
func measureSegment(m *tab.Measure, s int) string {
	var b strings.Builder
	for p := 0; p < tab.Positions; p++ {
		cell := m.Cells[s][p]
		if cell == "" {
			cell = tab.CellSilent
		}
		tok := string(cell)
		b.WriteString(tok[:1])
	}
	return b.String()
}

func main() {
	var (
		chordList  = flag.String("chords", "G C G D7", "space-separated chord progression")
		songPath   = flag.String("song", "", "path to a YAML song file")
		tempo      = flag.Float64("tempo", 120, "tempo in BPM")
		perChord   = flag.Int("measures-per-chord", 2, "measures played per chord")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
	)
	flag.Parse()

	title := "clawtab"
	bpm := *tempo
	mix := clawtab.DefaultMixSettings()
	var measures []tab.Measure
	var err error
	if *songPath != "" {
		var song *clawtab.Song
		if song, err = clawtab.LoadSong(*songPath); err == nil {
			if song.Title != "" {
				title = song.Title
			}
			bpm = song.Tempo
			mix = song.MixSettings()
			measures, err = song.Timeline()
		}
	} else {
		measures, err = clawtab.Generate(strings.Fields(*chordList), *perChord)
	}
	if err != nil {
		log.Fatal(err)
	}

	player, err := clawtab.NewPlayer(*sampleRate, clawtab.WithMixSettings(mix))
	if err != nil {
		log.Fatal(err)
	}
	m := model{
		player:   player,
		measures: measures,
		title:    title,
		tempo:    bpm,
		mix:      mix,
		events:   player.Watch(),
		current:  -1,
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
