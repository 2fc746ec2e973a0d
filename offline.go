package clawtab

import (
	"encoding/binary"
	"math"

	intmix "github.com/banjozen/clawtab-go/internal/mixer"
	intseq "github.com/banjozen/clawtab-go/internal/sequencer"
	inttab "github.com/banjozen/clawtab-go/internal/tab"
)

const renderChunkFrames = 1024

// RenderSamples plays a timeline through the full scheduling and synthesis
// path into a stereo interleaved buffer, without touching an audio device.
// The output covers the start lead, the timeline, and the release tail.
func RenderSamples(measures []inttab.Measure, sampleRate int, tempoBPM float64, mix MixSettings) []float32 {
	graph := intmix.NewGraph(sampleRate)
	applyMixToGraph(graph, mix)

	sched := intseq.New(measures, &graphOutput{graph: graph, sampleRate: sampleRate}, tempoBPM, intseq.Options{
		ManualPump: true,
		Mix: func() intseq.Mix {
			return intseq.Mix{
				MetronomeEnabled: mix.MetronomeEnabled,
				AccentDownbeat:   mix.AccentDownbeat,
				MetronomePitch:   mix.MetronomePitch,
			}
		},
	})
	sched.Start()

	var out []float32
	chunk := make([]float32, renderChunkFrames*2)
	for sched.Running() {
		sched.Pump()
		graph.Process(chunk)
		out = append(out, chunk...)
	}
	return out
}

// EncodeWAVFloat32LE wraps samples in a WAV container (IEEE float format).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
