package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileIsMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, 20, cfg.Server.PageSize)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.True(t, cfg.Stream.AutoReconnect)
	assert.Equal(t, 6, cfg.Stream.MaxReconnectAttempts)
	assert.False(t, cfg.Display.UnreadOnly)
}

func TestSaveConfigThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	want := &AppConfig{
		Server: ServerConfig{
			BaseURL:    "https://perf.corp.example.com",
			PageSize:   50,
			TimeoutSec: 10,
		},
		Stream: StreamConfig{
			AutoReconnect:        false,
			MaxReconnectAttempts: 3,
		},
		Display: DisplayConfig{
			Theme:      "default",
			UnreadOnly: true,
		},
	}

	require.NoError(t, SaveConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigSanitizesOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  base_url: https://perf.corp.example.com
  page_size: -3
  timeout_sec: 0
stream:
  auto_reconnect: false
  max_reconnect_attempts: 0
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://perf.corp.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 20, cfg.Server.PageSize)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.False(t, cfg.Stream.AutoReconnect)
	assert.Equal(t, 6, cfg.Stream.MaxReconnectAttempts)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
