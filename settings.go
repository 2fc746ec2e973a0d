package clawtab

// MixSettings is the process-wide mix: independent of any playback session,
// mutable at any time, applied to a live session as smoothed ramps.
type MixSettings struct {
	InstrumentGain   float64 `yaml:"instrument_gain"`
	MetronomeGain    float64 `yaml:"metronome_gain"`
	MetronomePitch   float64 `yaml:"metronome_pitch"`
	MetronomeEnabled bool    `yaml:"metronome_enabled"`
	AccentDownbeat   bool    `yaml:"accent_downbeat"`
}

func DefaultMixSettings() MixSettings {
	return MixSettings{
		InstrumentGain:   0.9,
		MetronomeGain:    0.7,
		MetronomePitch:   1.0,
		MetronomeEnabled: true,
		AccentDownbeat:   true,
	}
}
