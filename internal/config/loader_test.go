package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestHome points HOME at a temp dir with a ready config directory.
func setupTestHome(t *testing.T) string {
	t.Helper()

	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "spr")
	require.NoError(t, os.MkdirAll(configDir, 0700))
	return tmpHome
}

func writeConfig(t *testing.T, home, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(home, ".config", "spr", "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "standard", cfg.Compression.DefaultFormat)
	assert.InDelta(t, 0.1, cfg.Compression.DefaultRatio, 1e-9)
	assert.Equal(t, 50, cfg.Compression.MinWords)
	assert.Equal(t, "local", cfg.Generative.Provider)
	assert.Equal(t, 30*time.Second, cfg.Generative.Timeout.Duration())
	assert.Equal(t, []string{"sqlite"}, cfg.Telemetry.Sinks)
}

func TestLoad_ValidYAML(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, home, `compression:
  default_format: minimal
  default_ratio: 0.2

generative:
  provider: http
  endpoint: https://api.example.com/v1
  timeout: 45s
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "minimal", cfg.Compression.DefaultFormat)
	assert.InDelta(t, 0.2, cfg.Compression.DefaultRatio, 1e-9)
	assert.Equal(t, "http", cfg.Generative.Provider)
	assert.Equal(t, 45*time.Second, cfg.Generative.Timeout.Duration())
	// Untouched sections keep their defaults.
	assert.Equal(t, "detailed", cfg.Decompression.DefaultExpansion)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, home, "compression:\n  default_ratio: 0.2\n", 0600)

	t.Setenv("SPR_COMPRESSION_DEFAULT_RATIO", "0.3")
	t.Setenv("SPR_GENERATIVE_MAX_RETRIES", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 0.3, cfg.Compression.DefaultRatio, 1e-9)
	assert.Equal(t, 7, cfg.Generative.MaxRetries)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	setupTestHome(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "standard", cfg.Compression.DefaultFormat)
}

func TestLoad_PathOutsideAllowedDirs(t *testing.T) {
	setupTestHome(t)

	outside := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("{}"), 0600))

	_, err := Load(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be in")
}

func TestLoad_InsecurePermissions(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, home, "compression:\n  default_ratio: 0.2\n", 0644)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoad_ReadOnlyPermitted(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, home, "compression:\n  default_ratio: 0.2\n", 0400)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, cfg.Compression.DefaultRatio, 1e-9)
}

func TestLoad_FileTooLarge(t *testing.T) {
	home := setupTestHome(t)
	big := "# padding\n" + strings.Repeat("# x\n", maxConfigFileSize/4)
	path := writeConfig(t, home, big, 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoad_ValidationFailure(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, home, "compression:\n  default_ratio: 1.5\n", 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_ratio")
}

func TestLoad_UnknownSinkRejected(t *testing.T) {
	home := setupTestHome(t)
	path := writeConfig(t, home, "telemetry:\n  sinks: [kafka]\n", 0600)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sink")
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "SPR_COMPRESSION_MIN_WORDS", want: "compression.min_words"},
		{in: "SPR_GENERATIVE_API_KEY", want: "generative.api_key"},
		{in: "SPR_TELEMETRY_ENABLED", want: "telemetry.enabled"},
		{in: "SPR_SERVER_PORT", want: "server.port"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransform(tt.in))
		})
	}
}

func TestWriteDefault(t *testing.T) {
	setupTestHome(t)

	path, err := WriteDefault("", false)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// The generated file must load back cleanly.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "standard", cfg.Compression.DefaultFormat)

	// Second write without force is refused.
	_, err = WriteDefault("", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = WriteDefault("", true)
	assert.NoError(t, err)
}

func TestExpandHome(t *testing.T) {
	home := setupTestHome(t)

	got, err := ExpandHome("~/.local/state/spr/telemetry.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/state/spr/telemetry.db"), got)

	got, err = ExpandHome("/absolute/path.db")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path.db", got)
}
