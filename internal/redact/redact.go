// Package redact scrubs secrets from document text before it leaves the
// process toward a generative backend, using the Gitleaks SDK rule set.
package redact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/logging"
)

var (
	// ErrInvalidRegex indicates an allowlist pattern failed to compile.
	ErrInvalidRegex = errors.New("invalid regex pattern")

	// ErrInvalidTOML indicates an allowlist file could not be parsed.
	ErrInvalidTOML = errors.New("invalid TOML format")
)

// Finding is one detected secret.
type Finding struct {
	RuleID   string // Gitleaks rule id (e.g. "openai-api-key")
	RuleDesc string
	Line     int // 1-indexed
	StartCol int
	EndCol   int
	Match    string // the secret value; never logged
}

// Scrubber detects and replaces secrets in text. The detector compiles the
// full Gitleaks rule set once at construction; Scrub itself is safe for
// concurrent use.
type Scrubber struct {
	detector *detect.Detector
	logger   *logging.Logger
}

// NewScrubber builds a scrubber from cfg. When scrubbing is disabled the
// returned scrubber passes text through untouched.
func NewScrubber(cfg config.ScrubConfig, logger *logging.Logger) (*Scrubber, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	if !cfg.Enabled {
		return &Scrubber{logger: logger}, nil
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("build secret detector: %w", err)
	}

	if cfg.AllowlistPath != "" {
		path, err := config.ExpandHome(cfg.AllowlistPath)
		if err != nil {
			return nil, fmt.Errorf("resolve scrub allowlist path: %w", err)
		}
		allowlist, err := LoadAllowlist(path)
		if err != nil {
			return nil, fmt.Errorf("load scrub allowlist: %w", err)
		}
		if allowlist != nil {
			applyAllowlist(&detector.Config, allowlist)
		}
	}

	return &Scrubber{detector: detector, logger: logger}, nil
}

// Enabled reports whether detection is active.
func (s *Scrubber) Enabled() bool {
	return s != nil && s.detector != nil
}

// Scrub replaces detected secrets with [REDACTED:rule-id] markers and logs
// each finding by rule id only. The input is returned unchanged when
// scrubbing is disabled or nothing is found.
func (s *Scrubber) Scrub(ctx context.Context, content string) (string, []Finding, error) {
	if !s.Enabled() || content == "" {
		return content, nil, nil
	}

	raw := s.detector.DetectString(content)
	if len(raw) == 0 {
		return content, nil, nil
	}

	findings := make([]Finding, 0, len(raw))
	for _, f := range raw {
		findings = append(findings, Finding{
			RuleID:   f.RuleID,
			RuleDesc: f.Description,
			Line:     f.StartLine,
			StartCol: f.StartColumn,
			EndCol:   f.EndColumn,
			Match:    f.Secret,
		})
		s.logger.Warn(ctx, "secret scrubbed from document",
			zap.String("rule", f.RuleID),
			zap.Int("line", f.StartLine))
	}

	return replaceFindings(content, findings), findings, nil
}

// replaceFindings swaps secrets for markers, walking findings in reverse
// position order so earlier replacements do not shift later indices.
func replaceFindings(content string, findings []Finding) string {
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line > sorted[j].Line
		}
		return sorted[i].StartCol > sorted[j].StartCol
	})

	lines := strings.Split(content, "\n")
	for _, finding := range sorted {
		if finding.Line < 1 || finding.Line > len(lines) {
			continue
		}

		line := lines[finding.Line-1]
		marker := fmt.Sprintf("[REDACTED:%s]", finding.RuleID)

		if finding.StartCol >= 0 && finding.EndCol <= len(line) && finding.StartCol <= finding.EndCol {
			lines[finding.Line-1] = line[:finding.StartCol] + marker + line[finding.EndCol:]
		}
	}

	return strings.Join(lines, "\n")
}
