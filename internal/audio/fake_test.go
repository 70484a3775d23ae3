package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// fakeHost is a Host that records every call made against it, in order.
type fakeHost struct {
	mtx sync.Mutex

	devices       []RawDevice
	defaultInput  int
	defaultOutput int

	acquireErr error
	countErr   error
	openErr    map[Direction]error
	startErr   map[Direction]error
	readErr    error
	writeErr   error

	// readGate, when set before Open, blocks every Read until it is closed.
	// readStarted receives once per gated Read.
	readGate    chan struct{}
	readStarted chan struct{}

	events   []string
	acquired int
	released int
	opened   []StreamParams
	written  [][]int16
}

func newFakeHost(devices []RawDevice, defaultInput, defaultOutput int) *fakeHost {
	return &fakeHost{
		devices:       devices,
		defaultInput:  defaultInput,
		defaultOutput: defaultOutput,
		openErr:       make(map[Direction]error),
		startErr:      make(map[Direction]error),
	}
}

// threeDevices is an input-only, an output-only and a full-duplex device.
func threeDevices() []RawDevice {
	return []RawDevice{
		{
			Name:                     "Built-in Output",
			HostAPI:                  2,
			MaxOutputChannels:        2,
			DefaultSampleRate:        48000,
			DefaultLowOutputLatency:  10 * time.Millisecond,
			DefaultHighOutputLatency: 40 * time.Millisecond,
		},
		{
			Name:                    "USB Microphone",
			HostAPI:                 2,
			MaxInputChannels:        1,
			DefaultSampleRate:       16000,
			DefaultLowInputLatency:  8 * time.Millisecond,
			DefaultHighInputLatency: 32 * time.Millisecond,
		},
		{
			Name:                     "Headset",
			HostAPI:                  3,
			MaxInputChannels:         2,
			MaxOutputChannels:        2,
			DefaultSampleRate:        44100,
			DefaultLowInputLatency:   5 * time.Millisecond,
			DefaultLowOutputLatency:  5 * time.Millisecond,
			DefaultHighInputLatency:  20 * time.Millisecond,
			DefaultHighOutputLatency: 20 * time.Millisecond,
		},
	}
}

func (h *fakeHost) record(format string, args ...interface{}) {
	h.events = append(h.events, fmt.Sprintf(format, args...))
}

func (h *fakeHost) Events() []string {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return append([]string(nil), h.events...)
}

func (h *fakeHost) Acquire() (Subsystem, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.acquireErr != nil {
		return nil, h.acquireErr
	}
	h.acquired++
	h.record("acquire")
	return &fakeSubsystem{host: h}, nil
}

type fakeSubsystem struct {
	host *fakeHost
}

func (s *fakeSubsystem) DeviceCount() (int, error) {
	h := s.host
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.countErr != nil {
		return 0, h.countErr
	}
	return len(h.devices), nil
}

func (s *fakeSubsystem) Device(index int) (RawDevice, error) {
	h := s.host
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if index < 0 || index >= len(h.devices) {
		return RawDevice{}, errors.New("no such device")
	}
	return h.devices[index], nil
}

func (s *fakeSubsystem) DefaultInputIndex() (int, error) {
	s.host.mtx.Lock()
	defer s.host.mtx.Unlock()
	return s.host.defaultInput, nil
}

func (s *fakeSubsystem) DefaultOutputIndex() (int, error) {
	s.host.mtx.Lock()
	defer s.host.mtx.Unlock()
	return s.host.defaultOutput, nil
}

func (s *fakeSubsystem) OpenStream(p StreamParams) (Stream, error) {
	h := s.host
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if err := h.openErr[p.Direction]; err != nil {
		h.record("open %s failed", p.Direction)
		return nil, err
	}
	h.opened = append(h.opened, p)
	h.record("open %s", p.Direction)
	return &fakeStream{host: h, params: p}, nil
}

func (s *fakeSubsystem) Release() error {
	h := s.host
	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.released++
	h.record("release")
	return nil
}

type fakeStream struct {
	host   *fakeHost
	params StreamParams
	next   int16
}

func (st *fakeStream) Start() error {
	h := st.host
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if err := h.startErr[st.params.Direction]; err != nil {
		h.record("start %s failed", st.params.Direction)
		return err
	}
	h.record("start %s", st.params.Direction)
	return nil
}

func (st *fakeStream) Read(samples []int16) error {
	h := st.host
	if h.readGate != nil {
		h.readStarted <- struct{}{}
		<-h.readGate
	}
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.readErr != nil {
		return h.readErr
	}
	for i := range samples {
		samples[i] = st.next
		st.next++
	}
	return nil
}

func (st *fakeStream) Write(samples []int16) error {
	h := st.host
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.writeErr != nil {
		return h.writeErr
	}
	h.written = append(h.written, append([]int16(nil), samples...))
	return nil
}

func (st *fakeStream) Stop() error {
	st.host.mtx.Lock()
	defer st.host.mtx.Unlock()
	st.host.record("stop %s", st.params.Direction)
	return nil
}

func (st *fakeStream) Close() error {
	st.host.mtx.Lock()
	defer st.host.mtx.Unlock()
	st.host.record("close %s", st.params.Direction)
	return nil
}
