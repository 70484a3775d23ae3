package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Audio.FrameBufferSize)
	assert.Equal(t, BehaviorListen, cfg.Agent.Behavior)
	assert.Equal(t, "http://localhost:11434", cfg.OllamaURL())
	assert.Equal(t, 5*time.Second, cfg.Ollama.Timeout.Std())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"mode": "PushToTalk",
		"ollama": {"url": "http://10.0.0.2/", "port": 8080, "timeout": "1m30s"},
		"agent": {"behavior": "play-tone", "listen_for": "1d", "tone": {"frequency_hz": 880, "amplitude": 0.5, "duration": "3s"}},
		"audio": {"frame_buffer_size": 512}
	}`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ModePushToTalk, cfg.Mode)
	assert.Equal(t, "http://10.0.0.2:8080", cfg.OllamaURL())
	assert.Equal(t, 90*time.Second, cfg.Ollama.Timeout.Std())
	assert.Equal(t, BehaviorPlayTone, cfg.Agent.Behavior)
	assert.Equal(t, 24*time.Hour, cfg.Agent.ListenFor.Std())
	assert.Equal(t, 880.0, cfg.Agent.Tone.FrequencyHz)
	assert.Equal(t, 3*time.Second, cfg.Agent.Tone.Duration.Std())
	assert.Equal(t, 512, cfg.Audio.FrameBufferSize)
	// Untouched fields keep their defaults.
	assert.Equal(t, "Quinn", cfg.Agent.Name)
	assert.Equal(t, path, cfg.Path())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"behavior", `{"agent": {"behavior": "dance"}}`},
		{"mode", `{"mode": "Hold"}`},
		{"buffer", `{"audio": {"frame_buffer_size": 0}}`},
		{"port", `{"ollama": {"port": 70000}}`},
		{"amplitude", `{"agent": {"tone": {"amplitude": 1.5}}}`},
		{"duration", `{"agent": {"listen_for": "soon"}}`},
		{"syntax", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSaveWritesLoadedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	cfg.Mode = ModePushToTalk
	cfg.Agent.ListenFor = Duration(90 * time.Minute)
	require.NoError(t, cfg.Save())

	reloaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ModePushToTalk, reloaded.Mode)
	assert.Equal(t, 90*time.Minute, reloaded.Agent.ListenFor.Std())
}
