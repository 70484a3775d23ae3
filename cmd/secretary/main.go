package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petems/secretary/internal/agent"
	"github.com/petems/secretary/internal/app"
	"github.com/petems/secretary/internal/audio"
	"github.com/petems/secretary/internal/config"
	"github.com/petems/secretary/internal/hotkey"
	"github.com/petems/secretary/internal/logging"
	"github.com/petems/secretary/internal/ollama"
	"github.com/petems/secretary/internal/permissions"
	"github.com/petems/secretary/internal/preflight"
	"github.com/petems/secretary/internal/tray"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

type options struct {
	logLevel string
	behavior string
	noTray   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "secretary",
		Short: "Local audio agent backed by a local model server",
		Long: `Secretary checks that the local model server is running with the
required models, then starts an agent that listens to the default input
device or plays a test tone on the default output device.`,
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarness(cmd.Context(), opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	flags.StringVar(&opts.behavior, "behavior", "", "agent behavior: listen or play-tone")
	flags.BoolVar(&opts.noTray, "no-tray", false, "run in the foreground without the tray icon")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Check requirements and start the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarness(cmd.Context(), opts)
		},
	}

	rootCmd.AddCommand(runCmd, newDevicesCmd(opts), newCheckCmd(opts))
	return rootCmd
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(opts *options) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.behavior != "" {
		cfg.Agent.Behavior = opts.behavior
		if err := cfg.Validate(); err != nil {
			return nil, zerolog.Nop(), err
		}
	}
	if opts.noTray {
		cfg.Tray = false
	}
	return cfg, logging.NewWithLevel(cfg.LogLevel), nil
}

func newChecker(cfg *config.Config, log zerolog.Logger) *preflight.Checker {
	return &preflight.Checker{
		Server:         ollama.New(cfg.OllamaURL(), cfg.Ollama.Timeout.Std()),
		ServerURL:      cfg.OllamaURL(),
		RequiredModels: cfg.Ollama.RequiredModels,
		Logger:         log,
		// macOS requires explicit microphone approval before capture works
		Microphone: permissions.EnsureMicrophone,
	}
}

func runHarness(ctx context.Context, opts *options) error {
	cfg, log, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newChecker(cfg, log).Run(ctx); err != nil {
		return err
	}

	host := audio.NewPortAudioHost()
	catalog := audio.NewCatalog(host, log)
	secretary := agent.NewSecretary(agent.Config{
		Name:        cfg.Agent.Name,
		Model:       cfg.Agent.Model,
		Behavior:    cfg.Agent.Behavior,
		ListenFor:   cfg.Agent.ListenFor.Std(),
		ReportEvery: cfg.Agent.ReportEvery.Std(),
		Tone:        cfg.Agent.Tone,
		Open: agent.SessionOpener(host, audio.Options{
			BufferSize: cfg.Audio.FrameBufferSize,
			Logger:     log,
		}),
		Devices: catalog.Devices,
		Logger:  log,
	})

	log.Info().Str("agent", secretary.Name()).Str("model", secretary.Model()).
		Str("behavior", cfg.Agent.Behavior).Msg("Secretary starting...")

	if !cfg.Tray {
		err := secretary.Run(ctx)
		if err != nil && ctx.Err() == nil {
			return err
		}
		log.Info().Msg("Shutting down...")
		return nil
	}
	return runTray(ctx, cfg, log, secretary, catalog)
}

// runTray runs the agent behind the tray icon and global hotkey. The tray
// loop must own the main thread.
func runTray(ctx context.Context, cfg *config.Config, log zerolog.Logger, ag agent.Agent, catalog *audio.Catalog) error {
	// Create tray UI first (we'll pass it to app)
	trayUI := tray.New(nil, cfg, log, Version, Commit)

	application := app.New(app.Config{
		Agent:         ag,
		Devices:       catalog,
		Config:        cfg,
		Logger:        log,
		StatusUpdater: trayUI,
	})
	trayUI.SetApp(application)

	hkManager, err := hotkey.New()
	if err != nil {
		log.Warn().Err(err).Msg("Global hotkey unavailable, use the tray menu")
	} else {
		defer hkManager.Close()
		if err := hkManager.Register(cfg.PlatformHotkey(), application.OnHotkey); err != nil {
			log.Warn().Err(err).Str("hotkey", cfg.PlatformHotkey()).Msg("Failed to register hotkey")
		}
	}

	return trayUI.Run(ctx)
}
