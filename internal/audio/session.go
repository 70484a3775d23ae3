package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of a DuplexSession.
type State int32

const (
	StateOpening State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options configures Open.
type Options struct {
	// BufferSize is the number of frames per host transfer. Zero selects
	// DefaultBufferSize.
	BufferSize int
	Logger     zerolog.Logger
}

// DuplexSession is an input stream and an output stream bound to the host's
// default devices, together with the subsystem handle that created them.
//
// Read and Write may be driven from two different goroutines as long as each
// goroutine owns one direction. Close marks the session closed at once, then
// waits for a transfer in flight on each direction before stopping that
// stream, so a stream is never closed under a running Read or Write.
type DuplexSession struct {
	log        zerolog.Logger
	sub        Subsystem
	input      Stream
	output     Stream
	devices    DefaultDevicePair
	bufferSize int

	state atomic.Int32
	inMu  sync.Mutex // held across input transfers and input teardown
	outMu sync.Mutex // held across output transfers and output teardown
}

// Open resolves the default devices and opens a started input and output
// stream on them. On failure everything acquired so far is released before
// the error is returned.
func Open(host Host, opts Options) (*DuplexSession, error) {
	bufferSize := opts.BufferSize
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize < 0 {
		return nil, fmt.Errorf("buffer size must be positive, got %d", bufferSize)
	}

	s := &DuplexSession{
		log:        opts.Logger,
		bufferSize: bufferSize,
	}
	s.state.Store(int32(StateOpening))

	sub, err := host.Acquire()
	if err != nil {
		return nil, &DeviceQueryError{Op: "initialize audio subsystem", Index: NoDevice, Err: err}
	}

	pair, err := ResolveDefaults(sub)
	if err != nil {
		s.releaseSubsystem(sub)
		return nil, err
	}

	in, err := s.openStream(sub, Input, pair.Input)
	if err != nil {
		s.releaseSubsystem(sub)
		return nil, err
	}

	out, err := s.openStream(sub, Output, pair.Output)
	if err != nil {
		if cerr := stopAndClose(in); cerr != nil {
			s.log.Warn().Err(cerr).Msg("Failed to close input stream after open failure")
		}
		s.releaseSubsystem(sub)
		return nil, err
	}

	s.sub = sub
	s.input = in
	s.output = out
	s.devices = pair
	s.state.Store(int32(StateActive))

	s.log.Info().
		Str("input", pair.Input.Name).
		Int("input_rate", pair.Input.DefaultSampleRate).
		Int("input_channels", pair.Input.MaxInputChannels).
		Str("output", pair.Output.Name).
		Int("output_rate", pair.Output.DefaultSampleRate).
		Int("output_channels", pair.Output.MaxOutputChannels).
		Int("buffer_size", bufferSize).
		Msg("Audio session opened")

	return s, nil
}

func (s *DuplexSession) openStream(sub Subsystem, dir Direction, dev DeviceCapability) (Stream, error) {
	params := StreamParams{
		Direction:       dir,
		Device:          dev.Index,
		Channels:        dev.Channels(dir),
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: s.bufferSize,
		Latency:         dev.LowLatency(dir),
	}

	st, err := sub.OpenStream(params)
	if err != nil {
		return nil, &StreamOpenError{Direction: dir, Device: dev.Index, Code: hostCode(err), Err: err}
	}
	if err := st.Start(); err != nil {
		if cerr := st.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Str("direction", string(dir)).Msg("Failed to close unstarted stream")
		}
		return nil, &StreamOpenError{Direction: dir, Device: dev.Index, Code: hostCode(err), Err: err}
	}
	return st, nil
}

func (s *DuplexSession) releaseSubsystem(sub Subsystem) {
	if err := sub.Release(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to release audio subsystem")
	}
}

func stopAndClose(st Stream) error {
	return errors.Join(st.Stop(), st.Close())
}

// State returns the current lifecycle state.
func (s *DuplexSession) State() State {
	return State(s.state.Load())
}

func (s *DuplexSession) closed() bool {
	return s.State() == StateClosed
}

// Devices returns the device pair the session was opened on.
func (s *DuplexSession) Devices() DefaultDevicePair { return s.devices }

// BufferSize returns the frames per host transfer.
func (s *DuplexSession) BufferSize() int { return s.bufferSize }

// InputChannels returns the number of interleaved capture channels.
func (s *DuplexSession) InputChannels() int { return s.devices.Input.MaxInputChannels }

// OutputChannels returns the number of interleaved playback channels.
func (s *DuplexSession) OutputChannels() int { return s.devices.Output.MaxOutputChannels }

// InputFrameBytes returns the size in bytes of one captured frame.
func (s *DuplexSession) InputFrameBytes() int { return s.InputChannels() * SampleSize }

// OutputFrameBytes returns the size in bytes of one playback frame.
func (s *DuplexSession) OutputFrameBytes() int { return s.OutputChannels() * SampleSize }

// Read blocks until frames frames have been captured and returns them as
// little-endian 16-bit interleaved samples.
func (s *DuplexSession) Read(frames int) ([]byte, error) {
	samples, err := s.ReadSamples(frames)
	if err != nil {
		return nil, err
	}
	return SamplesToBytes(samples, make([]byte, 0, len(samples)*SampleSize)), nil
}

// ReadSamples is Read without the byte encoding.
func (s *DuplexSession) ReadSamples(frames int) ([]int16, error) {
	if s.closed() {
		return nil, ErrSessionClosed
	}
	if frames <= 0 {
		return nil, ErrInvalidFrameCount
	}

	samples := make([]int16, frames*s.InputChannels())

	s.inMu.Lock()
	if s.closed() {
		s.inMu.Unlock()
		return nil, ErrSessionClosed
	}
	err := s.input.Read(samples)
	s.inMu.Unlock()

	if s.closed() {
		return nil, ErrSessionClosed
	}
	if err != nil {
		return nil, &StreamIOError{Direction: Input, Code: hostCode(err), Err: err}
	}
	return samples, nil
}

// Write blocks until the host has accepted every frame in data. The length
// of data must be a whole number of output frames.
func (s *DuplexSession) Write(data []byte) error {
	if s.closed() {
		return ErrSessionClosed
	}
	if frameSize := s.OutputFrameBytes(); len(data)%frameSize != 0 {
		return &InvalidFrameAlignmentError{Length: len(data), FrameSize: frameSize}
	}
	return s.writeSamples(BytesToSamples(data, make([]int16, 0, len(data)/SampleSize)))
}

// WriteSamples is Write for already decoded interleaved samples.
func (s *DuplexSession) WriteSamples(samples []int16) error {
	if s.closed() {
		return ErrSessionClosed
	}
	if ch := s.OutputChannels(); len(samples)%ch != 0 {
		return &InvalidFrameAlignmentError{
			Length:    len(samples) * SampleSize,
			FrameSize: ch * SampleSize,
		}
	}
	return s.writeSamples(samples)
}

func (s *DuplexSession) writeSamples(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	s.outMu.Lock()
	if s.closed() {
		s.outMu.Unlock()
		return ErrSessionClosed
	}
	err := s.output.Write(samples)
	s.outMu.Unlock()

	if s.closed() {
		return ErrSessionClosed
	}
	if err != nil {
		return &StreamIOError{Direction: Output, Code: hostCode(err), Err: err}
	}
	return nil
}

// Close stops and releases the input stream, then the output stream, then
// the subsystem handle. Closing a closed session is a no-op.
func (s *DuplexSession) Close() error {
	if !s.state.CompareAndSwap(int32(StateActive), int32(StateClosed)) {
		return nil
	}

	var errs []error
	s.inMu.Lock()
	if err := stopAndClose(s.input); err != nil {
		errs = append(errs, fmt.Errorf("close input stream: %w", err))
	}
	s.inMu.Unlock()

	s.outMu.Lock()
	if err := stopAndClose(s.output); err != nil {
		errs = append(errs, fmt.Errorf("close output stream: %w", err))
	}
	s.outMu.Unlock()

	if err := s.sub.Release(); err != nil {
		errs = append(errs, fmt.Errorf("release audio subsystem: %w", err))
	}

	err := errors.Join(errs...)
	if err != nil {
		s.log.Error().Err(err).Msg("Audio session closed with errors")
	} else {
		s.log.Info().Msg("Audio session closed")
	}
	return err
}
