package agent

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// silenceDB is reported for an all-zero signal.
const silenceDB = -100.0

// Levels summarises the audio seen since the last reset.
type Levels struct {
	Frames     int
	RMSDB      float64
	PeakDB     float64
	DominantHz float64
	Clipped    int
}

// LevelMeter measures loudness and the strongest frequency of captured
// interleaved 16-bit audio. Channels are mixed down to mono.
type LevelMeter struct {
	sampleRate int
	channels   int
	fftSize    int
	window     []float64

	frames     int
	sumSquares float64
	peak       float64
	clipped    int
	recent     []float64 // last fftSize mono samples
}

// NewLevelMeter returns a meter for the given stream shape. fftSize should
// be a power of two.
func NewLevelMeter(sampleRate, channels, fftSize int) *LevelMeter {
	if channels < 1 {
		channels = 1
	}
	return &LevelMeter{
		sampleRate: sampleRate,
		channels:   channels,
		fftSize:    fftSize,
		window:     makeHannWindow(fftSize),
		recent:     make([]float64, 0, fftSize),
	}
}

func makeHannWindow(size int) []float64 {
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1
		return window
	}
	for i := 0; i < size; i++ {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

// downmix averages interleaved frames into a mono signal normalized to
// [-1, 1].
func downmix(samples []int16, channels int) []float64 {
	frames := len(samples) / channels
	mono := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(samples[f*channels+c])
		}
		mono[f] = sum / float64(channels) / 32768.0
	}
	return mono
}

// Process adds a block of interleaved samples.
func (m *LevelMeter) Process(samples []int16) {
	for _, s := range samples {
		if s >= 32000 || s <= -32000 {
			m.clipped++
		}
	}

	mono := downmix(samples, m.channels)
	for _, v := range mono {
		m.sumSquares += v * v
		if a := math.Abs(v); a > m.peak {
			m.peak = a
		}
	}
	m.frames += len(mono)

	m.recent = append(m.recent, mono...)
	if over := len(m.recent) - m.fftSize; over > 0 {
		copy(m.recent, m.recent[over:])
		m.recent = m.recent[:m.fftSize]
	}
}

// Levels returns the measurements accumulated since the last Reset.
func (m *LevelMeter) Levels() Levels {
	l := Levels{
		Frames:  m.frames,
		RMSDB:   silenceDB,
		PeakDB:  silenceDB,
		Clipped: m.clipped,
	}
	if m.frames == 0 {
		return l
	}

	if rms := math.Sqrt(m.sumSquares / float64(m.frames)); rms > 0 {
		l.RMSDB = 20 * math.Log10(rms)
	}
	if m.peak > 0 {
		l.PeakDB = 20 * math.Log10(m.peak)
	}
	l.DominantHz = m.dominantFrequency()
	return l
}

func (m *LevelMeter) dominantFrequency() float64 {
	if len(m.recent) < m.fftSize || m.fftSize < 2 {
		return 0
	}

	windowed := make([]float64, m.fftSize)
	for i, v := range m.recent {
		windowed[i] = v * m.window[i]
	}
	spectrum := fft.FFTReal(windowed)

	best, bestMag := 0, 0.0
	// Skip DC.
	for i := 1; i < m.fftSize/2; i++ {
		re, im := real(spectrum[i]), imag(spectrum[i])
		if mag := re*re + im*im; mag > bestMag {
			best, bestMag = i, mag
		}
	}
	if bestMag == 0 {
		return 0
	}
	return float64(best) * float64(m.sampleRate) / float64(m.fftSize)
}

// Reset clears the loudness counters. The spectrum window is kept so the
// next report has a frequency estimate straight away.
func (m *LevelMeter) Reset() {
	m.frames = 0
	m.sumSquares = 0
	m.peak = 0
	m.clipped = 0
}
