package agent

import "math"

// ToneGenerator produces a continuous sine wave as interleaved 16-bit
// frames, the same sample on every channel.
type ToneGenerator struct {
	step      float64
	phase     float64
	amplitude float64
	channels  int
}

// NewToneGenerator returns a generator for freqHz at sampleRate. amplitude
// is a fraction of full scale.
func NewToneGenerator(freqHz, amplitude float64, sampleRate, channels int) *ToneGenerator {
	return &ToneGenerator{
		step:      2 * math.Pi * freqHz / float64(sampleRate),
		amplitude: amplitude * math.MaxInt16,
		channels:  channels,
	}
}

// Next returns the next frames frames of the tone.
func (g *ToneGenerator) Next(frames int) []int16 {
	out := make([]int16, frames*g.channels)
	for f := 0; f < frames; f++ {
		v := int16(math.Round(g.amplitude * math.Sin(g.phase)))
		for c := 0; c < g.channels; c++ {
			out[f*g.channels+c] = v
		}
		g.phase += g.step
		if g.phase >= 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
	}
	return out
}
