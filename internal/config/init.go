package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileHeader = `# spr configuration.
# Precedence: SPR_* environment variables > this file > built-in defaults.
# Example override: SPR_COMPRESSION_DEFAULT_RATIO=0.15
`

// WriteDefault renders the default configuration to path as YAML. The file
// is created 0600 inside the config directory; an existing file is only
// replaced when force is set.
func WriteDefault(path string, force bool) (string, error) {
	if path == "" {
		dir, err := EnsureConfigDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	out, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("failed to render default config: %w", err)
	}

	content := append([]byte(fileHeader), out...)
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
