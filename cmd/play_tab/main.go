package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	clawtab "github.com/banjozen/clawtab-go"
	"github.com/banjozen/clawtab-go/internal/tab"
)

const defaultChords = "G C G D7"

func main() {
	var (
		chordList  = flag.String("chords", defaultChords, "space-separated chord progression")
		songPath   = flag.String("song", "", "path to a YAML song file (overrides -chords/-tempo)")
		tempo      = flag.Float64("tempo", 120, "tempo in BPM")
		perChord   = flag.Int("measures-per-chord", 2, "measures played per chord")
		sampleRate = flag.Int("sample-rate", 44100, "output sample rate")
		wavPath    = flag.String("wav", "", "render to a WAV file instead of playing")
		instGain   = flag.Float64("volume", 0.9, "instrument gain")
		clickGain  = flag.Float64("click-volume", 0.7, "metronome gain")
		clickPitch = flag.Float64("click-pitch", 1.0, "metronome pitch multiplier")
		noClick    = flag.Bool("no-metronome", false, "disable the metronome")
		noAccent   = flag.Bool("no-accent", false, "do not accent the downbeat tick")
	)
	flag.Parse()

	measures, bpm, mix, err := resolveInput(*songPath, *chordList, *tempo, *perChord)
	if err != nil {
		log.Fatal(err)
	}
	mix.InstrumentGain = *instGain
	mix.MetronomeGain = *clickGain
	mix.MetronomePitch = *clickPitch
	if *noClick {
		mix.MetronomeEnabled = false
	}
	if *noAccent {
		mix.AccentDownbeat = false
	}

	fmt.Print(clawtab.RenderTab(measures))

	if *wavPath != "" {
		samples := clawtab.RenderSamples(measures, *sampleRate, bpm, mix)
		wav := clawtab.EncodeWAVFloat32LE(samples, *sampleRate, 2)
		if err := os.WriteFile(*wavPath, wav, 0o644); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s (%.1fs)\n", *wavPath, float64(len(samples)/2)/float64(*sampleRate))
		return
	}

	pl, err := clawtab.NewPlayer(*sampleRate, clawtab.WithMixSettings(mix))
	if err != nil {
		log.Fatal(err)
	}
	ch := pl.Watch()
	if err := pl.Play(measures, bpm); err != nil {
		log.Fatal(err)
	}
	for event := range ch {
		switch event.Kind {
		case clawtab.EventMeasureStarted:
			fmt.Printf("measure %d/%d\n", event.MeasureIndex+1, len(measures))
		case clawtab.EventPlaybackEnded:
			fmt.Println("playback completed")
			pl.Wait()
			return
		}
	}
}

func resolveInput(songPath, chordList string, tempo float64, perChord int) ([]tab.Measure, float64, clawtab.MixSettings, error) {
	if songPath != "" {
		song, err := clawtab.LoadSong(songPath)
		if err != nil {
			return nil, 0, clawtab.MixSettings{}, err
		}
		measures, err := song.Timeline()
		if err != nil {
			return nil, 0, clawtab.MixSettings{}, err
		}
		return measures, song.Tempo, song.MixSettings(), nil
	}
	chords := strings.Fields(chordList)
	measures, err := clawtab.Generate(chords, perChord)
	if err != nil {
		return nil, 0, clawtab.MixSettings{}, fmt.Errorf("%w (known chords: %s)", err, strings.Join(clawtab.Chords(), " "))
	}
	return measures, tempo, clawtab.DefaultMixSettings(), nil
}
