// Package config provides configuration loading for spr.
package config

import (
	"fmt"
	"time"
)

// Config is the full configuration tree. Values come from defaults, a YAML
// file, and SPR_* environment variables, in rising precedence.
type Config struct {
	Compression   CompressionConfig   `koanf:"compression" yaml:"compression"`
	Decompression DecompressionConfig `koanf:"decompression" yaml:"decompression"`
	Quality       QualityConfig       `koanf:"quality" yaml:"quality"`
	Generative    GenerativeConfig    `koanf:"generative" yaml:"generative"`
	Batch         BatchConfig         `koanf:"batch" yaml:"batch"`
	Telemetry     TelemetryConfig     `koanf:"telemetry" yaml:"telemetry"`
	Server        ServerConfig        `koanf:"server" yaml:"server"`
	Scrub         ScrubConfig         `koanf:"scrub" yaml:"scrub"`
}

// CompressionConfig tunes the compression pipeline.
type CompressionConfig struct {
	// DefaultFormat is the statement format when none is requested.
	DefaultFormat string `koanf:"default_format" yaml:"default_format"`
	// DefaultRatio is the target compressed/original word ratio.
	DefaultRatio float64 `koanf:"default_ratio" yaml:"default_ratio"`
	// MinWords rejects inputs below this word count.
	MinWords int `koanf:"min_words" yaml:"min_words"`
	// ViolationThreshold is the tolerated fraction of statements outside
	// format bounds after regeneration.
	ViolationThreshold float64 `koanf:"violation_threshold" yaml:"violation_threshold"`
	// GenerationRetries bounds per-concept regeneration attempts.
	GenerationRetries int `koanf:"generation_retries" yaml:"generation_retries"`
	// DedupThreshold is the cosine similarity above which a statement is
	// considered a near-duplicate and dropped.
	DedupThreshold float64 `koanf:"dedup_threshold" yaml:"dedup_threshold"`
}

// DecompressionConfig tunes the decompression pipeline.
type DecompressionConfig struct {
	DefaultExpansion string `koanf:"default_expansion" yaml:"default_expansion"`
	DefaultLength    string `koanf:"default_length" yaml:"default_length"`
}

// QualityConfig holds fidelity thresholds.
type QualityConfig struct {
	// MinSemanticSimilarity is the gate below which compression quality
	// is flagged.
	MinSemanticSimilarity float64 `koanf:"min_semantic_similarity" yaml:"min_semantic_similarity"`
	// RegressionTolerance is the relative slack over the target ratio
	// before a round trip is reported as a quality regression.
	RegressionTolerance float64 `koanf:"regression_tolerance" yaml:"regression_tolerance"`
	// MinStructuralPreservation is the gate on concept ordering survival.
	MinStructuralPreservation float64 `koanf:"min_structural_preservation" yaml:"min_structural_preservation"`
}

// GenerativeConfig selects and tunes the text generation backend.
type GenerativeConfig struct {
	// Provider is "local" (deterministic, offline) or "http".
	Provider string `koanf:"provider" yaml:"provider"`
	// Endpoint is the HTTP backend base URL; required for provider http.
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
	APIKey   Secret `koanf:"api_key" yaml:"api_key"`
	Model    string `koanf:"model" yaml:"model"`
	// Timeout bounds a single generation call.
	Timeout Duration `koanf:"timeout" yaml:"timeout"`
	// MaxRetries bounds transient-failure retries per call.
	MaxRetries int `koanf:"max_retries" yaml:"max_retries"`
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase Duration `koanf:"backoff_base" yaml:"backoff_base"`
	// RateLimit is requests per second; RateBurst the limiter burst.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst"`
	Breaker   BreakerConfig `koanf:"breaker" yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker guarding the HTTP backend.
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int `koanf:"failure_threshold" yaml:"failure_threshold"`
	// SuccessThreshold half-open successes close it again.
	SuccessThreshold int `koanf:"success_threshold" yaml:"success_threshold"`
	// Timeout is how long the circuit stays open before probing.
	Timeout Duration `koanf:"timeout" yaml:"timeout"`
}

// BatchConfig tunes multi-document processing.
type BatchConfig struct {
	// Workers bounds concurrent document pipelines; 0 means NumCPU.
	Workers int `koanf:"workers" yaml:"workers"`
	// WatchDebounce coalesces rapid file events in watch mode.
	WatchDebounce Duration `koanf:"watch_debounce" yaml:"watch_debounce"`
}

// TelemetryConfig controls stage event emission.
type TelemetryConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
	// Sinks lists enabled destinations: sqlite, otlp, nats.
	Sinks  []string         `koanf:"sinks" yaml:"sinks"`
	SQLite SQLiteSinkConfig `koanf:"sqlite" yaml:"sqlite"`
	NATS   NATSSinkConfig   `koanf:"nats" yaml:"nats"`
	OTLP   OTLPConfig       `koanf:"otlp" yaml:"otlp"`
}

// SQLiteSinkConfig locates the local stage event store.
type SQLiteSinkConfig struct {
	// Path of the database file; "~" expands to the home directory.
	Path string `koanf:"path" yaml:"path"`
}

// NATSSinkConfig points stage events at a NATS subject tree.
type NATSSinkConfig struct {
	URL string `koanf:"url" yaml:"url"`
	// SubjectPrefix is prepended to "<pipeline>.<stage>" subjects.
	SubjectPrefix string `koanf:"subject_prefix" yaml:"subject_prefix"`
}

// OTLPConfig configures the OpenTelemetry exporters.
type OTLPConfig struct {
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
	// Protocol is "grpc" or "http/protobuf".
	Protocol string `koanf:"protocol" yaml:"protocol"`
	Insecure bool   `koanf:"insecure" yaml:"insecure"`
	// SampleRate in [0,1]; 1 samples every trace.
	SampleRate  float64 `koanf:"sample_rate" yaml:"sample_rate"`
	ServiceName string  `koanf:"service_name" yaml:"service_name"`
	// ExportInterval is the metric push period.
	ExportInterval Duration `koanf:"export_interval" yaml:"export_interval"`
}

// ServerConfig tunes the HTTP facade.
type ServerConfig struct {
	Host            string   `koanf:"host" yaml:"host"`
	Port            int      `koanf:"port" yaml:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
	// MaxBodyBytes bounds request payloads.
	MaxBodyBytes int64 `koanf:"max_body_bytes" yaml:"max_body_bytes"`
}

// ScrubConfig controls secret scrubbing of text sent to the generative
// backend.
type ScrubConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`
	// AllowlistPath optionally points at a TOML allowlist of rules and
	// paths to skip.
	AllowlistPath string `koanf:"allowlist_path" yaml:"allowlist_path"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Compression: CompressionConfig{
			DefaultFormat:      "standard",
			DefaultRatio:       0.1,
			MinWords:           50,
			ViolationThreshold: 0.2,
			GenerationRetries:  2,
			DedupThreshold:     0.85,
		},
		Decompression: DecompressionConfig{
			DefaultExpansion: "detailed",
			DefaultLength:    "auto",
		},
		Quality: QualityConfig{
			MinSemanticSimilarity:     0.3,
			RegressionTolerance:       0.5,
			MinStructuralPreservation: 0.5,
		},
		Generative: GenerativeConfig{
			Provider:    "local",
			Model:       "spr-synth-1",
			Timeout:     Duration(30 * time.Second),
			MaxRetries:  3,
			BackoffBase: Duration(200 * time.Millisecond),
			RateLimit:   5,
			RateBurst:   10,
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          Duration(30 * time.Second),
			},
		},
		Batch: BatchConfig{
			Workers:       0,
			WatchDebounce: Duration(500 * time.Millisecond),
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
			Sinks:   []string{"sqlite"},
			SQLite: SQLiteSinkConfig{
				Path: "~/.local/state/spr/telemetry.db",
			},
			NATS: NATSSinkConfig{
				URL:           "nats://127.0.0.1:4222",
				SubjectPrefix: "spr.telemetry",
			},
			OTLP: OTLPConfig{
				Endpoint:       "localhost:4317",
				Protocol:       "grpc",
				Insecure:       true,
				SampleRate:     1.0,
				ServiceName:    "spr",
				ExportInterval: Duration(15 * time.Second),
			},
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            9090,
			ShutdownTimeout: Duration(10 * time.Second),
			MaxBodyBytes:    4 << 20,
		},
		Scrub: ScrubConfig{
			Enabled: true,
		},
	}
}

// knownSinks are the accepted telemetry sink names.
var knownSinks = map[string]bool{"sqlite": true, "otlp": true, "nats": true}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	switch c.Compression.DefaultFormat {
	case "minimal", "standard", "extended":
	default:
		return fmt.Errorf("compression.default_format must be minimal, standard or extended, got %q", c.Compression.DefaultFormat)
	}
	if c.Compression.DefaultRatio <= 0 || c.Compression.DefaultRatio > 1 {
		return fmt.Errorf("compression.default_ratio must be in (0, 1], got %v", c.Compression.DefaultRatio)
	}
	if c.Compression.MinWords < 1 {
		return fmt.Errorf("compression.min_words must be >= 1, got %d", c.Compression.MinWords)
	}
	if c.Compression.ViolationThreshold < 0 || c.Compression.ViolationThreshold > 1 {
		return fmt.Errorf("compression.violation_threshold must be in [0, 1], got %v", c.Compression.ViolationThreshold)
	}
	if c.Compression.GenerationRetries < 0 {
		return fmt.Errorf("compression.generation_retries must be >= 0, got %d", c.Compression.GenerationRetries)
	}
	if c.Compression.DedupThreshold <= 0 || c.Compression.DedupThreshold > 1 {
		return fmt.Errorf("compression.dedup_threshold must be in (0, 1], got %v", c.Compression.DedupThreshold)
	}

	switch c.Decompression.DefaultExpansion {
	case "brief", "detailed", "comprehensive":
	default:
		return fmt.Errorf("decompression.default_expansion must be brief, detailed or comprehensive, got %q", c.Decompression.DefaultExpansion)
	}
	switch c.Decompression.DefaultLength {
	case "auto", "short", "medium", "long":
	default:
		return fmt.Errorf("decompression.default_length must be auto, short, medium or long, got %q", c.Decompression.DefaultLength)
	}

	if c.Quality.RegressionTolerance < 0 {
		return fmt.Errorf("quality.regression_tolerance must be >= 0, got %v", c.Quality.RegressionTolerance)
	}

	switch c.Generative.Provider {
	case "local":
	case "http":
		if c.Generative.Endpoint == "" {
			return fmt.Errorf("generative.endpoint is required for provider http")
		}
	default:
		return fmt.Errorf("generative.provider must be local or http, got %q", c.Generative.Provider)
	}
	if c.Generative.Timeout.Duration() <= 0 {
		return fmt.Errorf("generative.timeout must be > 0")
	}
	if c.Generative.MaxRetries < 0 {
		return fmt.Errorf("generative.max_retries must be >= 0, got %d", c.Generative.MaxRetries)
	}
	if c.Generative.RateLimit <= 0 {
		return fmt.Errorf("generative.rate_limit must be > 0, got %v", c.Generative.RateLimit)
	}
	if c.Generative.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("generative.breaker.failure_threshold must be >= 1, got %d", c.Generative.Breaker.FailureThreshold)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must be >= 0, got %d", c.Batch.Workers)
	}

	if c.Telemetry.Enabled {
		for _, s := range c.Telemetry.Sinks {
			if !knownSinks[s] {
				return fmt.Errorf("telemetry.sinks contains unknown sink %q", s)
			}
		}
		if c.Telemetry.OTLP.SampleRate < 0 || c.Telemetry.OTLP.SampleRate > 1 {
			return fmt.Errorf("telemetry.otlp.sample_rate must be in [0, 1], got %v", c.Telemetry.OTLP.SampleRate)
		}
		if c.Telemetry.OTLP.ExportInterval.Duration() <= 0 {
			return fmt.Errorf("telemetry.otlp.export_interval must be positive")
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0, 65535], got %d", c.Server.Port)
	}

	return nil
}
