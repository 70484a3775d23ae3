package tray

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/petems/secretary/internal/app"
	"github.com/petems/secretary/internal/audio"
	"github.com/petems/secretary/internal/config"
)

const shutdownTimeout = 5 * time.Second

type UI struct {
	app     *app.App
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger

	// Menu items
	mStartStop *systray.MenuItem
	mMode      *systray.MenuItem
	mDevices   *systray.MenuItem
	mInput     *systray.MenuItem
	mOutput    *systray.MenuItem
}

// Status update methods for the app to call
func (u *UI) SetIdle() {
	u.updateStatus("idle")
	if u.mStartStop != nil {
		u.mStartStop.SetTitle(startStopTitle(false, u.cfg.Agent.Name))
	}
}

func (u *UI) SetActive() {
	u.updateStatus("active")
	if u.mStartStop != nil {
		u.mStartStop.SetTitle(startStopTitle(true, u.cfg.Agent.Name))
	}
}

func (u *UI) SetError() {
	u.updateStatus("error")
	if u.mStartStop != nil {
		u.mStartStop.SetTitle(startStopTitle(false, u.cfg.Agent.Name))
	}
}

// New builds the tray UI. log should be the process logger, so the tray
// shares its level and log file.
func New(application *app.App, cfg *config.Config, log zerolog.Logger, version, commit string) *UI {
	return &UI{
		app:     application,
		cfg:     cfg,
		version: version,
		commit:  commit,
		log:     log.With().Str("component", "tray").Logger(),
	}
}

// SetApp sets the app reference (for circular dependency resolution)
func (u *UI) SetApp(application *app.App) {
	u.app = application
}

// Run blocks on the tray event loop. Quitting from the menu, or cancelling
// ctx, returns after the agent has released the audio devices.
func (u *UI) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.updateStatus("idle")
	systray.SetTooltip(fmt.Sprintf("%s, local audio agent", u.cfg.Agent.Name))

	u.mStartStop = systray.AddMenuItem(startStopTitle(false, u.cfg.Agent.Name), "Press the hotkey to start or stop")
	systray.AddSeparator()

	u.mMode = systray.AddMenuItem(modeTitle(u.cfg.Mode), "Toggle between modes")
	systray.AddSeparator()

	u.mDevices = systray.AddMenuItem("Default Devices", "Devices the agent will open")
	u.mInput = u.mDevices.AddSubMenuItem("Input: unknown", "")
	u.mOutput = u.mDevices.AddSubMenuItem("Output: unknown", "")
	u.mInput.Disable()
	u.mOutput.Disable()
	mRefresh := u.mDevices.AddSubMenuItem("Refresh", "Resolve the default devices again")
	u.refreshDevices()

	mReport := systray.AddMenuItem("Copy Device Report", "Copy the device list to the clipboard")

	systray.AddSeparator()
	mAbout := systray.AddMenuItem("About", "About Secretary")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	go u.handleEvents(mRefresh, mReport, mAbout, mQuit)
}

func (u *UI) handleEvents(mRefresh, mReport, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStartStop.ClickedCh:
			if u.app.IsRunning() {
				go u.app.Stop()
			} else {
				u.app.Start()
			}
		case <-u.mMode.ClickedCh:
			u.toggleMode()
		case <-mRefresh.ClickedCh:
			u.refreshDevices()
		case <-mReport.ClickedCh:
			u.copyDeviceReport()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) refreshDevices() {
	pair, err := u.app.Defaults()
	if err != nil {
		u.log.Warn().Err(err).Msg("Failed to resolve default devices")
	}
	in, out := deviceLabels(pair, err)
	u.mInput.SetTitle(in)
	u.mOutput.SetTitle(out)
}

func (u *UI) copyDeviceReport() {
	report, err := u.app.DeviceReport()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to build device report")
		u.updateStatus("error")
		return
	}
	if err := clipboard.WriteAll(report); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy device report")
		return
	}
	u.log.Info().Msg("Copied device report to clipboard")
}

func (u *UI) toggleMode() {
	oldMode := u.cfg.Mode
	mode := nextMode(oldMode)
	if err := u.app.SetMode(mode); err != nil {
		u.log.Error().Err(err).Msg("Failed to save config")
	}
	u.mMode.SetTitle(modeTitle(mode))
	u.log.Info().Str("from", oldMode).Str("to", mode).Msg("Changed mode")
}

func (u *UI) showAbout() {
	u.log.Info().Str("version", u.version).Str("commit", u.commit).
		Str("agent", u.cfg.Agent.Name).Str("model", u.cfg.Agent.Model).
		Msg("Secretary")
}

func (u *UI) onExit() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := u.app.Shutdown(ctx); err != nil {
		u.log.Error().Err(err).Msg("Agent did not stop in time")
	}
}

// updateStatus sets the tray title with the agent emoji and status indicator
func (u *UI) updateStatus(status string) {
	systray.SetTitle(fmt.Sprintf("🎧 %s", emojiForStatus(status)))
}

// emojiForStatus returns the appropriate status emoji
func emojiForStatus(status string) string {
	switch status {
	case "active":
		return "🔴" // Red - devices open
	case "idle":
		return "🟢" // Green - ready/idle
	case "error":
		return "⚪️" // White - error
	default:
		return "🟢"
	}
}

func nextMode(mode string) string {
	if mode == config.ModePushToTalk {
		return config.ModeToggle
	}
	return config.ModePushToTalk
}

func modeTitle(mode string) string {
	if mode == config.ModePushToTalk {
		return "Mode: Push-to-Talk"
	}
	return "Mode: Toggle"
}

func startStopTitle(running bool, name string) string {
	if running {
		return "Stop " + name
	}
	return "Start " + name
}

// deviceLabels renders the default device pair for the devices submenu.
func deviceLabels(pair audio.DefaultDevicePair, err error) (string, string) {
	if err != nil {
		return "Input: unavailable", "Output: unavailable"
	}
	return fmt.Sprintf("Input: %s (%d ch, %d Hz)", pair.Input.Name, pair.Input.MaxInputChannels, pair.Input.DefaultSampleRate),
		fmt.Sprintf("Output: %s (%d ch, %d Hz)", pair.Output.Name, pair.Output.MaxOutputChannels, pair.Output.DefaultSampleRate)
}
