package audio

import (
	"errors"
	"slices"
	"testing"

	"github.com/gordonklaus/portaudio"
)

func TestPaErrorCarriesHostCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"input overflow", portaudio.InputOverflowed, CodeInputOverflowed},
		{"output underflow", portaudio.OutputUnderflowed, CodeOutputUnderflowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paError(tt.err)
			var he *HostError
			if !errors.As(got, &he) {
				t.Fatalf("expected *HostError, got %T", got)
			}
			if he.Code != tt.code {
				t.Fatalf("expected code %d, got %d", tt.code, he.Code)
			}
			if hostCode(got) != tt.code {
				t.Fatalf("hostCode mismatch: %d", hostCode(got))
			}
		})
	}
}

func TestPaErrorPassthrough(t *testing.T) {
	if paError(nil) != nil {
		t.Fatal("expected nil error to stay nil")
	}

	plain := errors.New("boom")
	if got := paError(plain); got != plain {
		t.Fatalf("expected non-PortAudio error to pass through, got %v", got)
	}
	if hostCode(plain) != 0 {
		t.Fatal("expected zero code for non-host error")
	}
}

func TestPCMLittleEndian(t *testing.T) {
	samples := []int16{0, 1, -1, 0x1234, -32768, 32767}
	b := SamplesToBytes(samples, nil)

	want := []byte{0, 0, 1, 0, 0xff, 0xff, 0x34, 0x12, 0x00, 0x80, 0xff, 0x7f}
	if string(b) != string(want) {
		t.Fatalf("unexpected encoding % x", b)
	}

	back := BytesToSamples(b, nil)
	for i := range samples {
		if back[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], back[i])
		}
	}
}

// recordingStream stands in for a blocking *portaudio.Stream. It sees the
// transfer buffer through the same pointer PortAudio is given.
type recordingStream struct {
	buf      *[]int16
	next     int16
	writeErr error

	transfers []int // samples per Read or Write
	written   []int16
	stopped   bool
}

func (r *recordingStream) Start() error { return nil }

func (r *recordingStream) Read() error {
	r.transfers = append(r.transfers, len(*r.buf))
	for i := range *r.buf {
		(*r.buf)[i] = r.next
		r.next++
	}
	return nil
}

func (r *recordingStream) Write() error {
	if r.writeErr != nil {
		return r.writeErr
	}
	r.transfers = append(r.transfers, len(*r.buf))
	r.written = append(r.written, (*r.buf)...)
	return nil
}

func (r *recordingStream) Stop() error  { r.stopped = true; return nil }
func (r *recordingStream) Close() error { return nil }

func newRecordedStream(samples int) (*portAudioStream, *recordingStream) {
	s := newPortAudioStream(samples)
	rec := &recordingStream{buf: &s.buf}
	s.stream = rec
	return s, rec
}

func TestStreamWriteHandsEveryFrameToHost(t *testing.T) {
	s, rec := newRecordedStream(8)

	src := make([]int16, 20)
	for i := range src {
		src[i] = int16(i + 1)
	}
	if err := s.Write(src); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if len(rec.written) != len(src) {
		t.Fatalf("expected %d samples accepted before Write returned, got %d", len(src), len(rec.written))
	}
	for i := range src {
		if rec.written[i] != src[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, src[i], rec.written[i])
		}
	}
	if want := []int{8, 8, 4}; !slices.Equal(rec.transfers, want) {
		t.Fatalf("expected transfers %v, got %v", want, rec.transfers)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(rec.written) != len(src) {
		t.Fatal("Stop must not write padding")
	}
	if !rec.stopped {
		t.Fatal("expected the stream to be stopped")
	}
}

func TestStreamReadTransfersExactly(t *testing.T) {
	s, rec := newRecordedStream(8)

	dst := make([]int16, 11)
	if err := s.Read(dst); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i := range dst {
		if dst[i] != int16(i) {
			t.Fatalf("sample %d: expected %d, got %d", i, i, dst[i])
		}
	}
	if want := []int{8, 3}; !slices.Equal(rec.transfers, want) {
		t.Fatalf("expected transfers %v, got %v", want, rec.transfers)
	}

	// Nothing is buffered between calls, the next read is a fresh transfer.
	if err := s.Read(dst[:2]); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if dst[0] != 11 || len(rec.transfers) != 3 {
		t.Fatalf("expected a fresh transfer starting at 11, got %d after %v", dst[0], rec.transfers)
	}
}

func TestStreamWriteReportsUnderflow(t *testing.T) {
	s, rec := newRecordedStream(8)
	rec.writeErr = portaudio.OutputUnderflowed

	err := s.Write(make([]int16, 4))
	if hostCode(err) != CodeOutputUnderflowed {
		t.Fatalf("expected underflow code, got %v", err)
	}
}

func TestDefaultIndex(t *testing.T) {
	api := &portaudio.HostApiInfo{Name: "ALSA"}
	mic := &portaudio.DeviceInfo{Name: "Mic", HostApi: api}
	spk := &portaudio.DeviceInfo{Name: "Speakers", HostApi: api}
	devices := []*portaudio.DeviceInfo{spk, mic}

	if i, err := defaultIndex(devices, mic, nil); err != nil || i != 1 {
		t.Fatalf("expected index 1, got %d, %v", i, err)
	}

	// A copy with the same identity fields still resolves.
	clone := *mic
	if i, err := defaultIndex(devices, &clone, nil); err != nil || i != 1 {
		t.Fatalf("expected index 1 by name, got %d, %v", i, err)
	}

	for _, sentinel := range []error{portaudio.NoDefaultInputDevice, portaudio.NoDefaultOutputDevice} {
		i, err := defaultIndex(devices, nil, sentinel)
		if err != nil || i != NoDevice {
			t.Fatalf("%v: expected NoDevice without error, got %d, %v", sentinel, i, err)
		}
	}

	i, err := defaultIndex(devices, nil, portaudio.NotInitialized)
	if err == nil || i != NoDevice {
		t.Fatalf("expected a backend failure to be returned, got %d, %v", i, err)
	}
	if hostCode(err) != int(portaudio.NotInitialized) {
		t.Fatalf("expected host code %d, got %v", int(portaudio.NotInitialized), err)
	}

	stranger := &portaudio.DeviceInfo{Name: "Unplugged", HostApi: api}
	if _, err := defaultIndex(devices, stranger, nil); err == nil {
		t.Fatal("expected an error for a default outside the snapshot")
	}
}

func TestDefaultLookupFailureIsQueryError(t *testing.T) {
	sub := &failingDefaults{err: paError(portaudio.NotInitialized)}
	_, err := ResolveDefaults(sub)

	var qe *DeviceQueryError
	if !errors.As(err, &qe) {
		t.Fatalf("expected *DeviceQueryError, got %T: %v", err, err)
	}
	var nd *NoDefaultDeviceError
	if errors.As(err, &nd) {
		t.Fatal("a backend failure must not read as a missing default")
	}
}

func TestHostAPIIndex(t *testing.T) {
	alsa := &portaudio.HostApiInfo{Name: "ALSA"}
	jack := &portaudio.HostApiInfo{Name: "JACK"}
	apis := []*portaudio.HostApiInfo{alsa, jack}

	if got := hostAPIIndex(apis, jack); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := hostAPIIndex(apis, nil); got != -1 {
		t.Fatalf("expected -1 for no host API, got %d", got)
	}
}

// failingDefaults is a Subsystem whose default lookups fail.
type failingDefaults struct {
	fakeSubsystem
	err error
}

func (f *failingDefaults) DefaultInputIndex() (int, error)  { return NoDevice, f.err }
func (f *failingDefaults) DefaultOutputIndex() (int, error) { return NoDevice, f.err }

