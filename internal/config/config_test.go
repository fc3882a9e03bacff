package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	path := writeTempConfig(t, `
port: 9000
api-keys:
  - sk-test
noupe:
  cookie: "session=abc"
  agent-id: "agent-1"
  chat-id: "chat-1"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"sk-test"}, cfg.APIKeys)
	assert.Equal(t, DefaultBaseURL, cfg.Noupe.BaseURL)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.Noupe.TimeoutSeconds)
	assert.Equal(t, []string{DefaultModel}, cfg.Noupe.Models)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.OpenAccess())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NOUPE_COOKIE", "session=env")
	t.Setenv("AGENT_ID", "agent-env")
	t.Setenv("CHAT_ID", "chat-env")
	t.Setenv("API_MASTER_KEY", "sk-env")
	t.Setenv("SUPPORTED_MODELS", "model-a, model-b")
	t.Setenv("PORT", "7001")

	path := writeTempConfig(t, `
noupe:
  cookie: "session=file"
  agent-id: "agent-file"
  chat-id: "chat-file"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "session=env", cfg.Noupe.Cookie)
	assert.Equal(t, "agent-env", cfg.Noupe.AgentID)
	assert.Equal(t, "chat-env", cfg.Noupe.ChatID)
	assert.Equal(t, []string{"sk-env"}, cfg.APIKeys)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.Noupe.Models)
	assert.Equal(t, 7001, cfg.Port)
	assert.Equal(t, "model-a", cfg.DefaultModelName())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeTempConfig(t, "port: [not a number")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noupe.cookie")
	assert.Contains(t, err.Error(), "noupe.agent-id")
	assert.Contains(t, err.Error(), "noupe.chat-id")
}

func TestCharDelay(t *testing.T) {
	zero := 0
	fifty := 50

	tests := []struct {
		name  string
		delay *int
		want  time.Duration
	}{
		{"default when unset", nil, DefaultCharDelayMS * time.Millisecond},
		{"zero disables pacing", &zero, 0},
		{"explicit value", &fifty, 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Streaming: StreamingConfig{CharDelayMS: tt.delay}}
			assert.Equal(t, tt.want, cfg.CharDelay())
		})
	}
}

func TestUpstreamTimeout(t *testing.T) {
	cfg := &Config{Noupe: NoupeConfig{TimeoutSeconds: 30}}
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout())
}
