package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petems/secretary/internal/agent"
	"github.com/petems/secretary/internal/audio"
	"github.com/petems/secretary/internal/config"
)

type Mode int

const (
	PushToTalk Mode = iota
	Toggle
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetIdle()
	SetActive()
	SetError()
}

// DeviceSource answers device questions while no session is open.
type DeviceSource interface {
	Devices() ([]audio.DeviceCapability, error)
	Defaults() (audio.DefaultDevicePair, error)
}

type Config struct {
	Agent         agent.Agent
	Devices       DeviceSource
	Config        *config.Config
	Logger        zerolog.Logger
	StatusUpdater StatusUpdater // Optional - can be nil
}

type App struct {
	agent   agent.Agent
	devices DeviceSource
	cfg     *config.Config
	log     zerolog.Logger
	status  StatusUpdater

	mu      sync.Mutex
	running bool               // a run is wanted and not yet stopped
	stop    context.CancelFunc // cancels the latest run
	done    chan struct{}      // closed when the latest run has released its session
}

func New(cfg Config) *App {
	return &App{
		agent:   cfg.Agent,
		devices: cfg.Devices,
		cfg:     cfg.Config,
		log:     cfg.Logger,
		status:  cfg.StatusUpdater,
	}
}

func (a *App) OnHotkey(pressed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	mode := PushToTalk
	if a.cfg.Mode == config.ModeToggle {
		mode = Toggle
	}

	switch mode {
	case PushToTalk:
		if pressed {
			a.startLocked()
		} else {
			a.stopLocked()
		}
	case Toggle:
		if !pressed {
			return
		}
		if !a.running {
			a.startLocked()
		} else {
			a.stopLocked()
		}
	}
}

// Start runs the agent in the background. It is a no-op while the agent
// is already running.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.startLocked()
}

// Stop cancels the running agent and waits for it to release the audio
// devices.
func (a *App) Stop() {
	a.mu.Lock()
	a.stopLocked()
	done := a.done
	a.mu.Unlock()

	if done != nil {
		<-done
	}
}

// startLocked launches a run. A run started while the previous one is still
// closing its session waits for it, so at most one session holds the audio
// subsystem.
func (a *App) startLocked() {
	if a.running {
		return
	}

	a.log.Info().Str("agent", a.agent.Name()).Msg("Starting agent")
	a.running = true

	if a.status != nil {
		a.status.SetActive()
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev := a.done
	done := make(chan struct{})
	a.stop = cancel
	a.done = done

	go func() {
		defer close(done)
		if prev != nil {
			a.log.Debug().Msg("Waiting for the previous session to close")
			<-prev
		}

		var err error
		if ctx.Err() == nil {
			err = a.agent.Run(ctx)
		}
		cancel()

		a.mu.Lock()
		defer a.mu.Unlock()
		latest := a.done == done
		if latest {
			a.running = false
			a.stop = nil
			a.done = nil
		}

		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Msg("Agent failed")
			if latest && a.status != nil {
				a.status.SetError()
			}
			return
		}
		a.log.Info().Msg("Agent finished")
		if latest && a.status != nil {
			a.status.SetIdle()
		}
	}()
}

func (a *App) stopLocked() {
	if !a.running {
		return
	}

	a.log.Info().Msg("Stopping agent")
	a.running = false
	a.stop()
}

// Shutdown stops the agent, waiting at most until ctx is done.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	a.stopLocked()
	done := a.done
	a.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tray actions

func (a *App) SetMode(mode string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg.Mode = mode
	return a.cfg.Save()
}

// IsRunning reports whether a run is wanted. A stopped run may still be
// closing its session, see Busy.
func (a *App) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Busy reports whether an agent run still holds, or is about to claim, the
// audio subsystem.
func (a *App) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done != nil
}

var errDevicesBusy = errors.New("cannot query devices while the agent holds them")

// withDevices runs fn with the app lock held so no run can start while the
// catalog holds the subsystem.
func (a *App) withDevices(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		return errDevicesBusy
	}
	return fn()
}

// Defaults resolves the current default devices. It fails while an agent
// run holds the audio subsystem.
func (a *App) Defaults() (audio.DefaultDevicePair, error) {
	var pair audio.DefaultDevicePair
	err := a.withDevices(func() (err error) {
		pair, err = a.devices.Defaults()
		return err
	})
	return pair, err
}

// DeviceReport renders the device catalog and the current defaults as
// plain text.
func (a *App) DeviceReport() (string, error) {
	var (
		devices []audio.DeviceCapability
		pair    audio.DefaultDevicePair
		defErr  error
	)
	err := a.withDevices(func() (err error) {
		if devices, err = a.devices.Devices(); err != nil {
			return err
		}
		pair, defErr = a.devices.Defaults()
		return nil
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, d := range devices {
		marker := "  "
		if defErr == nil && (d.Index == pair.Input.Index || d.Index == pair.Output.Index) {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%d %s (in %d, out %d, %d Hz, api %d)\n", marker,
			d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels,
			d.DefaultSampleRate, d.HostAPIID)
	}
	if defErr != nil {
		fmt.Fprintf(&b, "defaults: %v\n", defErr)
	} else {
		fmt.Fprintf(&b, "default input: %s\ndefault output: %s\n", pair.Input.Name, pair.Output.Name)
	}
	return b.String(), nil
}
