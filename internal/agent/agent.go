// Package agent holds the behaviours that run on top of an audio session.
package agent

import (
	"context"

	"github.com/petems/secretary/internal/audio"
)

// Agent is a named behaviour bound to a model.
type Agent interface {
	Name() string
	Model() string
	// Run blocks until the behaviour finishes or ctx is cancelled.
	Run(ctx context.Context) error
}

// Session is the part of audio.DuplexSession an agent drives.
type Session interface {
	ReadSamples(frames int) ([]int16, error)
	WriteSamples(samples []int16) error
	Devices() audio.DefaultDevicePair
	InputChannels() int
	OutputChannels() int
	BufferSize() int
	Close() error
}

// Opener opens a new session. Each Run opens its own.
type Opener func() (Session, error)

// DeviceLister lists host devices.
type DeviceLister func() ([]audio.DeviceCapability, error)

// SessionOpener adapts audio.Open to an Opener.
func SessionOpener(host audio.Host, opts audio.Options) Opener {
	return func() (Session, error) {
		s, err := audio.Open(host, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
