package audio

import "time"

// NoDevice is returned by a Subsystem when the host has no default device
// for a direction.
const NoDevice = -1

// DefaultBufferSize is the number of frames moved per host transfer when
// the caller does not pick one.
const DefaultBufferSize = 1024

// SampleSize is the size in bytes of one 16-bit signed PCM sample.
const SampleSize = 2

// Direction names one side of a duplex session.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// DeviceCapability is one audio endpoint exposed by the host.
type DeviceCapability struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	HostAPIID         int     `json:"host_api_id"` // host API index, not its type id; -1 if unknown
	MaxInputChannels  int     `json:"max_input_channels"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate int     `json:"default_sample_rate"`
	LowLatencyInput   float64 `json:"low_latency_input_s"`
	LowLatencyOutput  float64 `json:"low_latency_output_s"`
	HighLatencyInput  float64 `json:"high_latency_input_s"`
	HighLatencyOutput float64 `json:"high_latency_output_s"`
}

// Channels returns the maximum channel count for the given direction.
func (d DeviceCapability) Channels(dir Direction) int {
	if dir == Input {
		return d.MaxInputChannels
	}
	return d.MaxOutputChannels
}

// LowLatency returns the low latency figure for the given direction.
func (d DeviceCapability) LowLatency(dir Direction) time.Duration {
	s := d.LowLatencyOutput
	if dir == Input {
		s = d.LowLatencyInput
	}
	return time.Duration(s * float64(time.Second))
}

// DefaultDevicePair holds the host's current default input and output
// devices. It is resolved fresh for every session.
type DefaultDevicePair struct {
	Input  DeviceCapability `json:"input"`
	Output DeviceCapability `json:"output"`
}

// RawDevice is a device record as reported by a backend, before
// normalization.
type RawDevice struct {
	Name              string
	HostAPI           int // index into the backend's host API table
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64

	DefaultLowInputLatency   time.Duration
	DefaultLowOutputLatency  time.Duration
	DefaultHighInputLatency  time.Duration
	DefaultHighOutputLatency time.Duration
}

// StreamParams describes one direction of a stream to open.
type StreamParams struct {
	Direction       Direction
	Device          int
	Channels        int
	SampleRate      int
	FramesPerBuffer int
	Latency         time.Duration
}

// Host is the process-wide audio backend.
type Host interface {
	// Acquire claims the audio subsystem. Every successful Acquire must be
	// paired with exactly one Subsystem.Release.
	Acquire() (Subsystem, error)
}

// Subsystem is an acquired claim on the host audio backend.
type Subsystem interface {
	DeviceCount() (int, error)
	Device(index int) (RawDevice, error)
	DefaultInputIndex() (int, error)
	DefaultOutputIndex() (int, error)
	OpenStream(p StreamParams) (Stream, error)
	Release() error
}

// Stream is a single-direction blocking host stream carrying interleaved
// 16-bit samples.
type Stream interface {
	Start() error
	Read(samples []int16) error
	Write(samples []int16) error
	Stop() error
	Close() error
}
