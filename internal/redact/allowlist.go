package redact

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Allowlist holds path and content regex patterns excluded from detection.
type Allowlist struct {
	Paths   []string
	Regexes []string
}

// LoadAllowlist reads a TOML allowlist file:
//
//	[allowlist]
//	paths = ['testdata/.*']
//	regexes = ['example-key-[0-9]+']
//
// A missing file returns (nil, nil); malformed TOML or patterns that do not
// compile return errors.
func LoadAllowlist(path string) (*Allowlist, error) {
	var parsed struct {
		Allowlist struct {
			Paths   []string
			Regexes []string
		}
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	for _, pattern := range parsed.Allowlist.Paths {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: path pattern %q in %s: %v", ErrInvalidRegex, pattern, path, err)
		}
	}
	for _, pattern := range parsed.Allowlist.Regexes {
		if _, err := regexp.Compile(pattern); err != nil {
			return nil, fmt.Errorf("%w: content pattern %q in %s: %v", ErrInvalidRegex, pattern, path, err)
		}
	}

	return &Allowlist{
		Paths:   parsed.Allowlist.Paths,
		Regexes: parsed.Allowlist.Regexes,
	}, nil
}

// applyAllowlist merges the allowlist into the Gitleaks config. Patterns
// were validated in LoadAllowlist, so compilation cannot fail here.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) {
	global := &gitleaksConfig.Allowlist{
		Description: "spr scrub allowlist",
	}

	for _, pattern := range allowlist.Paths {
		global.Paths = append(global.Paths, (*gitleaksRegexp.Regexp)(regexp.MustCompile(pattern)))
	}
	for _, pattern := range allowlist.Regexes {
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(regexp.MustCompile(pattern)))
	}
	global.StopWords = append(global.StopWords, allowlist.Regexes...)

	cfg.Allowlists = append(cfg.Allowlists, global)
}
