package permissions

import "errors"

// Status is the capture permission state of the process.
type Status int

const (
	NotDetermined Status = iota
	Denied
	Granted
)

func (s Status) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "not determined"
	}
}

// ErrMicrophoneDenied is returned when the OS has not granted microphone
// access to the process.
var ErrMicrophoneDenied = errors.New("microphone permission not granted")

// Microphone returns the current microphone permission.
func Microphone() Status {
	return microphoneStatus()
}

// EnsureMicrophone checks microphone access and, if the user has not been
// asked yet, triggers the system prompt. Access must be granted before
// capture streams can deliver audio.
func EnsureMicrophone() error {
	switch microphoneStatus() {
	case Granted:
		return nil
	case NotDetermined:
		requestMicrophone()
	}
	return ErrMicrophoneDenied
}
