package clawtab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	inttab "github.com/banjozen/clawtab-go/internal/tab"
)

// Song is the YAML file format for a chord progression plus playback
// settings. A missing mix block means the defaults; a present mix block is
// taken literally.
type Song struct {
	Title            string       `yaml:"title,omitempty"`
	Tempo            float64      `yaml:"tempo"`
	Chords           []string     `yaml:"chords"`
	MeasuresPerChord int          `yaml:"measures_per_chord,omitempty"`
	Mix              *MixSettings `yaml:"mix,omitempty"`
}

// ParseSong decodes a YAML song and validates what playback needs up front.
func ParseSong(data []byte) (*Song, error) {
	var s Song
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse song: %w", err)
	}
	if len(s.Chords) == 0 {
		return nil, fmt.Errorf("song has no chords")
	}
	if s.Tempo <= 0 {
		s.Tempo = 120
	}
	return &s, nil
}

// LoadSong reads and parses a YAML song file.
func LoadSong(path string) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load song: %w", err)
	}
	return ParseSong(data)
}

// SaveSong writes the song as YAML.
func SaveSong(path string, s *Song) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("save song: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Timeline generates the song's tablature.
func (s *Song) Timeline() ([]inttab.Measure, error) {
	return inttab.Generate(s.Chords, s.MeasuresPerChord)
}

// MixSettings resolves the song's mix, falling back to the defaults.
func (s *Song) MixSettings() MixSettings {
	if s.Mix == nil {
		return DefaultMixSettings()
	}
	return *s.Mix
}
