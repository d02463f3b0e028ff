package redact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/config"
)

func writeAllowlist(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "allowlist.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAllowlist_Valid(t *testing.T) {
	path := writeAllowlist(t, `[allowlist]
paths = [
  '''testdata/.*\.env''',
  '''docs/examples/.*'''
]
regexes = [
  '''DEMO_API_KEY''',
  '''EXAMPLE_SECRET_.*'''
]
`)

	allowlist, err := LoadAllowlist(path)
	require.NoError(t, err)
	require.NotNil(t, allowlist)
	assert.Len(t, allowlist.Paths, 2)
	assert.Len(t, allowlist.Regexes, 2)
}

func TestLoadAllowlist_MissingFile(t *testing.T) {
	allowlist, err := LoadAllowlist(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, allowlist)
}

func TestLoadAllowlist_InvalidTOML(t *testing.T) {
	path := writeAllowlist(t, `[allowlist
paths = broken`)

	_, err := LoadAllowlist(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTOML)
}

func TestLoadAllowlist_InvalidPathRegex(t *testing.T) {
	path := writeAllowlist(t, `[allowlist]
paths = ['''[unclosed''']
`)

	_, err := LoadAllowlist(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRegex)
}

func TestLoadAllowlist_InvalidContentRegex(t *testing.T) {
	path := writeAllowlist(t, `[allowlist]
regexes = ['''(?P<broken''']
`)

	_, err := LoadAllowlist(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRegex)
}

func TestNewScrubber_BadAllowlistFailsFast(t *testing.T) {
	path := writeAllowlist(t, `[allowlist
not toml`)

	_, err := NewScrubber(config.ScrubConfig{Enabled: true, AllowlistPath: path}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTOML)
}

func TestScrub_AllowlistSuppressesFinding(t *testing.T) {
	content := `const key = "` + testSecret + `"`

	base, err := NewScrubber(config.ScrubConfig{Enabled: true}, nil)
	require.NoError(t, err)
	_, baseline, err := base.Scrub(context.Background(), content)
	require.NoError(t, err)
	if len(baseline) == 0 {
		t.Skip("default rule set did not flag the test pattern")
	}

	path := writeAllowlist(t, `[allowlist]
regexes = ['''sk-proj-abcdefghijklmnopqrstuvwxyz.*''']
`)
	allowlisted, err := NewScrubber(config.ScrubConfig{Enabled: true, AllowlistPath: path}, nil)
	require.NoError(t, err)

	redacted, findings, err := allowlisted.Scrub(context.Background(), content)
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Equal(t, content, redacted)
}
