package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

const (
	ModePushToTalk = "PushToTalk"
	ModeToggle     = "Toggle"
)

const (
	BehaviorListen   = "listen"
	BehaviorPlayTone = "play-tone"
)

type Config struct {
	LogLevel     string       `json:"log_level"`
	Hotkey       string       `json:"hotkey"`
	HotkeyDarwin string       `json:"hotkey_darwin"`
	Mode         string       `json:"mode"` // "PushToTalk" or "Toggle"
	Tray         bool         `json:"tray"`
	Ollama       OllamaConfig `json:"ollama"`
	Agent        AgentConfig  `json:"agent"`
	Audio        AudioConfig  `json:"audio"`

	path string
}

type OllamaConfig struct {
	URL            string   `json:"url"`
	Port           int      `json:"port"`
	RequiredModels []string `json:"required_models"`
	Timeout        Duration `json:"timeout"`
}

type AgentConfig struct {
	Name        string     `json:"name"`
	Model       string     `json:"model"`
	Behavior    string     `json:"behavior"`   // "listen" or "play-tone"
	ListenFor   Duration   `json:"listen_for"` // 0 listens until stopped
	ReportEvery Duration   `json:"report_every"`
	Tone        ToneConfig `json:"tone"`
}

type ToneConfig struct {
	FrequencyHz float64  `json:"frequency_hz"`
	Amplitude   float64  `json:"amplitude"` // 0..1 of full scale
	Duration    Duration `json:"duration"`
}

type AudioConfig struct {
	FrameBufferSize int `json:"frame_buffer_size"`
}

// Duration is a time.Duration written in config files as a string such as
// "90s", "1h30m" or "1d".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(str2duration.String(time.Duration(d)))
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := str2duration.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Hotkey:       "Alt+Space",
		HotkeyDarwin: "Ctrl+Space",
		Mode:         ModeToggle,
		Tray:         false,
		Ollama: OllamaConfig{
			URL:            "http://localhost",
			Port:           11434,
			RequiredModels: []string{"deepseek-r1:14b"},
			Timeout:        Duration(5 * time.Second),
		},
		Agent: AgentConfig{
			Name:        "Quinn",
			Model:       "deepseek-r1:14b",
			Behavior:    BehaviorListen,
			ReportEvery: Duration(2 * time.Second),
			Tone: ToneConfig{
				FrequencyHz: 440,
				Amplitude:   0.25,
				Duration:    Duration(2 * time.Second),
			},
		},
		Audio: AudioConfig{
			FrameBufferSize: 1024,
		},
	}
}

// Load reads the config from disk or returns defaults
func Load() (*Config, error) {
	return LoadFile(configPath())
}

// LoadFile reads the config at path over the defaults. A missing file is
// not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = configPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Validate checks values that would otherwise fail deep inside the audio
// or agent code.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModePushToTalk, ModeToggle:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	switch c.Agent.Behavior {
	case BehaviorListen, BehaviorPlayTone:
	default:
		return fmt.Errorf("unknown agent behavior %q", c.Agent.Behavior)
	}
	if c.Audio.FrameBufferSize <= 0 {
		return fmt.Errorf("frame_buffer_size must be positive, got %d", c.Audio.FrameBufferSize)
	}
	if c.Ollama.Port <= 0 || c.Ollama.Port > 65535 {
		return fmt.Errorf("ollama port %d out of range", c.Ollama.Port)
	}
	if c.Agent.ListenFor < 0 || c.Agent.ReportEvery < 0 {
		return fmt.Errorf("agent durations must not be negative")
	}
	t := c.Agent.Tone
	if t.FrequencyHz <= 0 {
		return fmt.Errorf("tone frequency must be positive, got %v", t.FrequencyHz)
	}
	if t.Amplitude <= 0 || t.Amplitude > 1 {
		return fmt.Errorf("tone amplitude must be in (0, 1], got %v", t.Amplitude)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("tone duration must be positive")
	}
	return nil
}

// OllamaURL returns the base URL of the model server, url and port joined.
func (c *Config) OllamaURL() string {
	return fmt.Sprintf("%s:%d", strings.TrimRight(c.Ollama.URL, "/"), c.Ollama.Port)
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// configPath returns the platform-specific config file path
func configPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "secretary", "config.json")
}
