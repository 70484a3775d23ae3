package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudioHost is the Host backed by the system PortAudio library.
type PortAudioHost struct{}

// NewPortAudioHost returns the PortAudio backed host.
func NewPortAudioHost() Host {
	return PortAudioHost{}
}

// Acquire initializes PortAudio and snapshots the device and host API
// tables. Device indexes stay valid until Release.
func (PortAudioHost) Acquire() (Subsystem, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", paError(err))
	}

	devices, err := portaudio.Devices()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to enumerate devices: %w", paError(err))
	}
	apis, err := portaudio.HostApis()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to enumerate host APIs: %w", paError(err))
	}
	return &portAudioSubsystem{devices: devices, apis: apis}, nil
}

type portAudioSubsystem struct {
	devices []*portaudio.DeviceInfo
	apis    []*portaudio.HostApiInfo
}

func (p *portAudioSubsystem) DeviceCount() (int, error) {
	return len(p.devices), nil
}

func (p *portAudioSubsystem) Device(index int) (RawDevice, error) {
	if index < 0 || index >= len(p.devices) {
		return RawDevice{}, fmt.Errorf("device index %d out of range", index)
	}
	d := p.devices[index]

	return RawDevice{
		Name:                     d.Name,
		HostAPI:                  hostAPIIndex(p.apis, d.HostApi),
		MaxInputChannels:         d.MaxInputChannels,
		MaxOutputChannels:        d.MaxOutputChannels,
		DefaultSampleRate:        d.DefaultSampleRate,
		DefaultLowInputLatency:   d.DefaultLowInputLatency,
		DefaultLowOutputLatency:  d.DefaultLowOutputLatency,
		DefaultHighInputLatency:  d.DefaultHighInputLatency,
		DefaultHighOutputLatency: d.DefaultHighOutputLatency,
	}, nil
}

// hostAPIIndex returns the PaHostApiIndex of api, its position in the host
// API table, or -1 when the device reports none.
func hostAPIIndex(apis []*portaudio.HostApiInfo, api *portaudio.HostApiInfo) int {
	for i, a := range apis {
		if a == api {
			return i
		}
	}
	return -1
}

func (p *portAudioSubsystem) DefaultInputIndex() (int, error) {
	return defaultIndex(p.devices, portaudio.DefaultInputDevice())
}

func (p *portAudioSubsystem) DefaultOutputIndex() (int, error) {
	return defaultIndex(p.devices, portaudio.DefaultOutputDevice())
}

// defaultIndex maps a PortAudio default device lookup onto the snapshot.
// Only the no-default sentinels become NoDevice; every other failure is
// returned.
func defaultIndex(devices []*portaudio.DeviceInfo, d *portaudio.DeviceInfo, err error) (int, error) {
	switch {
	case errors.Is(err, portaudio.NoDefaultInputDevice), errors.Is(err, portaudio.NoDefaultOutputDevice):
		return NoDevice, nil
	case err != nil:
		return NoDevice, paError(err)
	case d == nil:
		return NoDevice, fmt.Errorf("PortAudio returned no default device and no error")
	}

	if i := indexOf(devices, d); i != NoDevice {
		return i, nil
	}
	return NoDevice, fmt.Errorf("default device %q is not in the device snapshot", d.Name)
}

// indexOf maps a device back to its position in the snapshot. PortAudio
// hands out cached DeviceInfo pointers, the name match covers hosts that
// do not.
func indexOf(devices []*portaudio.DeviceInfo, d *portaudio.DeviceInfo) int {
	for i, dev := range devices {
		if dev == d {
			return i
		}
	}
	for i, dev := range devices {
		if dev.Name == d.Name && dev.HostApi == d.HostApi {
			return i
		}
	}
	return NoDevice
}

func (p *portAudioSubsystem) OpenStream(sp StreamParams) (Stream, error) {
	if sp.Device < 0 || sp.Device >= len(p.devices) {
		return nil, fmt.Errorf("device index %d out of range", sp.Device)
	}
	if sp.Channels <= 0 || sp.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("invalid stream shape: %d channels, %d frames per buffer",
			sp.Channels, sp.FramesPerBuffer)
	}

	dev := portaudio.StreamDeviceParameters{
		Device:   p.devices[sp.Device],
		Channels: sp.Channels,
		Latency:  sp.Latency,
	}
	params := portaudio.StreamParameters{
		SampleRate:      float64(sp.SampleRate),
		FramesPerBuffer: sp.FramesPerBuffer,
	}
	if sp.Direction == Input {
		params.Input = dev
	} else {
		params.Output = dev
	}

	s := newPortAudioStream(sp.FramesPerBuffer * sp.Channels)
	// PortAudio re-reads the buffer through this pointer on every transfer,
	// so each Read or Write moves exactly len(s.buf) samples.
	stream, err := portaudio.OpenStream(params, &s.buf)
	if err != nil {
		return nil, paError(err)
	}
	s.stream = stream
	return s, nil
}

func (p *portAudioSubsystem) Release() error {
	p.devices = nil
	p.apis = nil
	return paError(portaudio.Terminate())
}

// blockingStream is the part of *portaudio.Stream used for blocking I/O.
type blockingStream interface {
	Start() error
	Read() error
	Write() error
	Stop() error
	Close() error
}

// portAudioStream moves reads and writes of any length through a blocking
// PortAudio stream, one transfer of at most FramesPerBuffer frames at a
// time. Nothing is held back between calls.
type portAudioStream struct {
	stream blockingStream
	full   []int16 // backing array, FramesPerBuffer frames
	buf    []int16 // the slice PortAudio transfers, re-sliced from full
}

func newPortAudioStream(samples int) *portAudioStream {
	full := make([]int16, samples)
	return &portAudioStream{full: full, buf: full}
}

func (s *portAudioStream) Start() error {
	return paError(s.stream.Start())
}

func (s *portAudioStream) Read(dst []int16) error {
	for len(dst) > 0 {
		s.buf = s.full[:min(len(dst), len(s.full))]
		if err := s.stream.Read(); err != nil {
			return paError(err)
		}
		n := copy(dst, s.buf)
		dst = dst[n:]
	}
	return nil
}

func (s *portAudioStream) Write(src []int16) error {
	for len(src) > 0 {
		s.buf = s.full[:min(len(src), len(s.full))]
		n := copy(s.buf, src)
		if err := s.stream.Write(); err != nil {
			return paError(err)
		}
		src = src[n:]
	}
	return nil
}

func (s *portAudioStream) Stop() error {
	return paError(s.stream.Stop())
}

func (s *portAudioStream) Close() error {
	return paError(s.stream.Close())
}

// paError converts PortAudio error codes into HostError.
func paError(err error) error {
	if err == nil {
		return nil
	}
	var pe portaudio.Error
	if errors.As(err, &pe) {
		return &HostError{Code: int(pe), Text: pe.Error()}
	}
	return err
}
