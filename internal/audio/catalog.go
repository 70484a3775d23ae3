package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// ListDevices enumerates every device the subsystem reports, in host order.
// No filtering is applied.
func ListDevices(sub Subsystem) ([]DeviceCapability, error) {
	count, err := sub.DeviceCount()
	if err != nil {
		return nil, &DeviceQueryError{Op: "count devices", Index: NoDevice, Err: err}
	}

	devices := make([]DeviceCapability, 0, count)
	for i := 0; i < count; i++ {
		dev, err := queryDevice(sub, i)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func queryDevice(sub Subsystem, index int) (DeviceCapability, error) {
	raw, err := sub.Device(index)
	if err != nil {
		return DeviceCapability{}, &DeviceQueryError{Op: "device info", Index: index, Err: err}
	}
	return normalize(index, raw)
}

func normalize(index int, raw RawDevice) (DeviceCapability, error) {
	if raw.MaxInputChannels < 0 || raw.MaxOutputChannels < 0 {
		return DeviceCapability{}, &DeviceQueryError{
			Op:    "device info",
			Index: index,
			Err: fmt.Errorf("negative channel count (in=%d out=%d)",
				raw.MaxInputChannels, raw.MaxOutputChannels),
		}
	}
	rate := int(math.Round(raw.DefaultSampleRate))
	if rate <= 0 {
		return DeviceCapability{}, &DeviceQueryError{
			Op:    "device info",
			Index: index,
			Err:   fmt.Errorf("invalid default sample rate %v", raw.DefaultSampleRate),
		}
	}

	return DeviceCapability{
		Index:             index,
		Name:              raw.Name,
		HostAPIID:         raw.HostAPI,
		MaxInputChannels:  raw.MaxInputChannels,
		MaxOutputChannels: raw.MaxOutputChannels,
		DefaultSampleRate: rate,
		LowLatencyInput:   seconds(raw.DefaultLowInputLatency),
		LowLatencyOutput:  seconds(raw.DefaultLowOutputLatency),
		HighLatencyInput:  seconds(raw.DefaultHighInputLatency),
		HighLatencyOutput: seconds(raw.DefaultHighOutputLatency),
	}, nil
}

func seconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}

// ResolveDefaults looks up the host's current default input and output
// devices. Each direction is resolved independently and a missing default
// is reported rather than substituted.
func ResolveDefaults(sub Subsystem) (DefaultDevicePair, error) {
	var pair DefaultDevicePair

	in, err := resolveDefault(sub, Input)
	if err != nil {
		return pair, err
	}
	out, err := resolveDefault(sub, Output)
	if err != nil {
		return pair, err
	}

	pair.Input, pair.Output = in, out
	return pair, nil
}

func resolveDefault(sub Subsystem, dir Direction) (DeviceCapability, error) {
	var (
		index int
		err   error
	)
	if dir == Input {
		index, err = sub.DefaultInputIndex()
	} else {
		index, err = sub.DefaultOutputIndex()
	}
	if err != nil {
		return DeviceCapability{}, &DeviceQueryError{
			Op:    "default " + string(dir) + " device",
			Index: NoDevice,
			Err:   err,
		}
	}
	if index < 0 {
		return DeviceCapability{}, &NoDefaultDeviceError{Direction: dir}
	}

	count, err := sub.DeviceCount()
	if err != nil {
		return DeviceCapability{}, &DeviceQueryError{Op: "count devices", Index: NoDevice, Err: err}
	}
	if index >= count {
		return DeviceCapability{}, &DeviceQueryError{
			Op:    "default " + string(dir) + " device",
			Index: index,
			Err:   fmt.Errorf("index out of range (%d devices)", count),
		}
	}

	dev, err := queryDevice(sub, index)
	if err != nil {
		return DeviceCapability{}, err
	}
	if dev.Channels(dir) <= 0 {
		return DeviceCapability{}, &InvalidDeviceError{Direction: dir, Device: dev}
	}
	return dev, nil
}

// Catalog answers one-shot device questions, acquiring and releasing its own
// subsystem handle per call. It must not be used while a DuplexSession on the
// same host is open.
type Catalog struct {
	host Host
	log  zerolog.Logger
}

// NewCatalog returns a catalog backed by host.
func NewCatalog(host Host, log zerolog.Logger) *Catalog {
	return &Catalog{host: host, log: log}
}

// Devices lists every host device.
func (c *Catalog) Devices() ([]DeviceCapability, error) {
	var devices []DeviceCapability
	err := c.with(func(sub Subsystem) error {
		var err error
		devices, err = ListDevices(sub)
		return err
	})
	return devices, err
}

// Defaults resolves the current default device pair.
func (c *Catalog) Defaults() (DefaultDevicePair, error) {
	var pair DefaultDevicePair
	err := c.with(func(sub Subsystem) error {
		var err error
		pair, err = ResolveDefaults(sub)
		return err
	})
	return pair, err
}

func (c *Catalog) with(fn func(Subsystem) error) error {
	sub, err := c.host.Acquire()
	if err != nil {
		return &DeviceQueryError{Op: "initialize audio subsystem", Index: NoDevice, Err: err}
	}

	err = fn(sub)
	if rerr := sub.Release(); rerr != nil {
		c.log.Warn().Err(rerr).Msg("Failed to release audio subsystem")
		if err == nil {
			err = &DeviceQueryError{Op: "release audio subsystem", Index: NoDevice, Err: rerr}
		}
	}
	return err
}
