package audio

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acquire(t *testing.T, h *fakeHost) Subsystem {
	t.Helper()
	sub, err := h.Acquire()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Release() })
	return sub
}

func TestListDevicesReportsEveryDevice(t *testing.T) {
	h := newFakeHost(threeDevices(), 1, 0)
	devices, err := ListDevices(acquire(t, h))
	require.NoError(t, err)
	require.Len(t, devices, 3)

	assert.Equal(t, DeviceCapability{
		Index:             0,
		Name:              "Built-in Output",
		HostAPIID:         2,
		MaxOutputChannels: 2,
		DefaultSampleRate: 48000,
		LowLatencyOutput:  0.01,
		HighLatencyOutput: 0.04,
	}, devices[0])

	assert.Equal(t, 1, devices[1].MaxInputChannels)
	assert.Equal(t, 0, devices[1].MaxOutputChannels)
	assert.Equal(t, 16000, devices[1].DefaultSampleRate)
	assert.InDelta(t, 0.008, devices[1].LowLatencyInput, 1e-9)
	assert.InDelta(t, 0.032, devices[1].HighLatencyInput, 1e-9)

	assert.Equal(t, 2, devices[2].Index)
	assert.Equal(t, "Headset", devices[2].Name)
	assert.Equal(t, 3, devices[2].HostAPIID)
	assert.Equal(t, 2, devices[2].MaxInputChannels)
	assert.Equal(t, 2, devices[2].MaxOutputChannels)
	assert.Equal(t, 44100, devices[2].DefaultSampleRate)
}

func TestListDevicesNormalizesRawFigures(t *testing.T) {
	raw := threeDevices()
	raw[0].DefaultSampleRate = 44099.6
	raw[0].DefaultLowOutputLatency = -1

	h := newFakeHost(raw, 1, 0)
	devices, err := ListDevices(acquire(t, h))
	require.NoError(t, err)
	assert.Equal(t, 44100, devices[0].DefaultSampleRate)
	assert.Zero(t, devices[0].LowLatencyOutput)
}

func TestListDevicesRejectsBadRate(t *testing.T) {
	raw := threeDevices()
	raw[2].DefaultSampleRate = 0

	h := newFakeHost(raw, 1, 0)
	_, err := ListDevices(acquire(t, h))

	var qe *DeviceQueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 2, qe.Index)
}

func TestListDevicesCountFailure(t *testing.T) {
	h := newFakeHost(threeDevices(), 1, 0)
	h.countErr = errors.New("backend gone")

	_, err := ListDevices(acquire(t, h))
	var qe *DeviceQueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, NoDevice, qe.Index)
}

func TestResolveDefaults(t *testing.T) {
	h := newFakeHost(threeDevices(), 1, 2)
	pair, err := ResolveDefaults(acquire(t, h))
	require.NoError(t, err)

	assert.Equal(t, 1, pair.Input.Index)
	assert.Equal(t, 1, pair.Input.MaxInputChannels)
	assert.Equal(t, 16000, pair.Input.DefaultSampleRate)

	assert.Equal(t, 2, pair.Output.Index)
	assert.Equal(t, 2, pair.Output.MaxOutputChannels)
	assert.Equal(t, 44100, pair.Output.DefaultSampleRate)
}

func TestResolveDefaultsMissingDirection(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		dir     Direction
	}{
		{"no input", NoDevice, 2, Input},
		{"no output", 1, NoDevice, Output},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHost(threeDevices(), tt.in, tt.out)
			_, err := ResolveDefaults(acquire(t, h))

			var nd *NoDefaultDeviceError
			require.ErrorAs(t, err, &nd)
			assert.Equal(t, tt.dir, nd.Direction)
			assert.Contains(t, err.Error(), string(tt.dir))
		})
	}
}

func TestResolveDefaultsRejectsWrongDirection(t *testing.T) {
	// Device 0 is output only.
	h := newFakeHost(threeDevices(), 0, 2)
	_, err := ResolveDefaults(acquire(t, h))

	var ide *InvalidDeviceError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, Input, ide.Direction)
	assert.Equal(t, 0, ide.Device.Index)
}

func TestResolveDefaultsOutOfRange(t *testing.T) {
	h := newFakeHost(threeDevices(), 7, 2)
	_, err := ResolveDefaults(acquire(t, h))

	var qe *DeviceQueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 7, qe.Index)
}

func TestCatalogReleasesHandle(t *testing.T) {
	h := newFakeHost(threeDevices(), 1, 2)
	c := NewCatalog(h, zerolog.Nop())

	devices, err := c.Devices()
	require.NoError(t, err)
	assert.Len(t, devices, 3)

	pair, err := c.Defaults()
	require.NoError(t, err)
	assert.Equal(t, "USB Microphone", pair.Input.Name)

	assert.Equal(t, 2, h.acquired)
	assert.Equal(t, 2, h.released)
}

func TestCatalogBackendUnavailable(t *testing.T) {
	h := newFakeHost(nil, NoDevice, NoDevice)
	h.acquireErr = errors.New("no audio backend")

	_, err := NewCatalog(h, zerolog.Nop()).Devices()
	var qe *DeviceQueryError
	require.ErrorAs(t, err, &qe)
	assert.ErrorIs(t, err, h.acquireErr)
	assert.Zero(t, h.released)
}
