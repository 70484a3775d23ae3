package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionClosed is returned by Read and Write once Close was called.
	ErrSessionClosed = errors.New("audio session closed")

	// ErrInvalidFrameCount is returned by Read for a non-positive count.
	ErrInvalidFrameCount = errors.New("frame count must be positive")
)

// PortAudio codes for transfers that lost data but left the stream usable.
const (
	CodeInputOverflowed   = -9981
	CodeOutputUnderflowed = -9980
)

// HostError is an error reported by the host audio backend, carrying the
// backend's numeric code.
type HostError struct {
	Code int
	Text string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host audio error %d: %s", e.Code, e.Text)
}

// hostCode extracts the backend error code from err, or 0 if err does not
// carry one.
func hostCode(err error) int {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

// DeviceQueryError is returned when the audio backend cannot be initialized
// or a device cannot be enumerated.
type DeviceQueryError struct {
	Op    string
	Index int // NoDevice when the failure is not tied to a device
	Err   error
}

func (e *DeviceQueryError) Error() string {
	if e.Index == NoDevice {
		return fmt.Sprintf("device query: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("device query: %s (device %d): %v", e.Op, e.Index, e.Err)
}

func (e *DeviceQueryError) Unwrap() error { return e.Err }

// NoDefaultDeviceError is returned when the host has no default device for
// a required direction.
type NoDefaultDeviceError struct {
	Direction Direction
}

func (e *NoDefaultDeviceError) Error() string {
	return fmt.Sprintf("no default %s device", e.Direction)
}

// InvalidDeviceError is returned when a resolved device cannot serve the
// direction it was picked for.
type InvalidDeviceError struct {
	Direction Direction
	Device    DeviceCapability
}

func (e *InvalidDeviceError) Error() string {
	return fmt.Sprintf("device %d (%q) has no %s channels", e.Device.Index,
		e.Device.Name, e.Direction)
}

// StreamOpenError is returned when opening or starting a stream fails.
type StreamOpenError struct {
	Direction Direction
	Device    int
	Code      int
	Err       error
}

func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("open %s stream on device %d (code %d): %v",
		e.Direction, e.Device, e.Code, e.Err)
}

func (e *StreamOpenError) Unwrap() error { return e.Err }

// StreamIOError is returned when the host reports an overflow, underrun or
// device failure during a transfer.
type StreamIOError struct {
	Direction Direction
	Code      int
	Err       error
}

func (e *StreamIOError) Error() string {
	return fmt.Sprintf("%s stream (code %d): %v", e.Direction, e.Code, e.Err)
}

func (e *StreamIOError) Unwrap() error { return e.Err }

// Xrun reports whether the failure was an overflow or underrun, after which
// the stream keeps running.
func (e *StreamIOError) Xrun() bool {
	return e.Code == CodeInputOverflowed || e.Code == CodeOutputUnderflowed
}

// InvalidFrameAlignmentError is returned by Write when the payload is not a
// whole number of frames.
type InvalidFrameAlignmentError struct {
	Length    int
	FrameSize int
}

func (e *InvalidFrameAlignmentError) Error() string {
	return fmt.Sprintf("payload of %d bytes is not a multiple of the %d byte frame size",
		e.Length, e.FrameSize)
}
