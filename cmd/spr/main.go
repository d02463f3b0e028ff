// Package main implements the spr CLI: compression of documents into
// sparse priming representations and reconstruction back into prose.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/spr/internal/batch"
	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/quality"
	"github.com/fyrsmithlabs/spr/internal/redact"
	"github.com/fyrsmithlabs/spr/internal/telemetry"
)

// Version information (set via ldflags during build).
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the wiring shared by every command. Fields are populated by
// the root command's PersistentPreRunE, so RunE bodies can rely on them.
type app struct {
	configPath string
	verbose    bool
	offline    bool

	cfg        *config.Config
	log        *logging.Logger
	telemetry  *telemetry.Telemetry
	collector  telemetry.Collector
	scrubber   *redact.Scrubber
	generator  generative.Service
	compress   *compress.Pipeline
	decompress *decompress.Pipeline
	validator  *quality.Validator
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "spr",
		Short: "Compress documents into sparse priming representations",
		Long: `spr distills documents into short standalone statements that prime a
language model with the original's concepts, and reconstructs prose from
them. Compression and expansion run as fixed stage pipelines with
telemetry on every stage.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/spr/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&a.offline, "offline", false, "force the deterministic local generative provider")

	root.AddCommand(
		newCompressCmd(a),
		newDecompressCmd(a),
		newRoundtripCmd(a),
		newValidateCmd(a),
		newMetricsCmd(a),
		newBatchCmd(a),
		newStatsCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads configuration and builds the shared pipeline wiring. The
// config subcommands skip pipeline construction; they only need the
// config layer itself.
func (a *app) init(cmd *cobra.Command) error {
	// A missing .env is fine; it is an optional convenience.
	_ = godotenv.Load()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := logging.NewCLIConfig()
	if cmd.Name() == "serve" {
		logCfg = logging.NewServeConfig()
	}
	if a.verbose {
		logCfg.Level = zapcore.DebugLevel
	}
	a.log, err = logging.NewLogger(logCfg, nil)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	if skipsPipelines(cmd) {
		return nil
	}

	ctx := cmd.Context()
	a.telemetry, err = telemetry.New(ctx, cfg.Telemetry, version)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.collector = telemetry.NewCollector(ctx, cfg.Telemetry, a.telemetry, a.log)

	a.scrubber, err = redact.NewScrubber(cfg.Scrub, a.log)
	if err != nil {
		return err
	}

	genCfg := cfg.Generative
	if a.offline {
		genCfg.Provider = "local"
	}
	a.generator, err = generative.New(genCfg, a.log)
	if err != nil {
		return err
	}

	a.compress, a.decompress = a.pipelines(a.collector)
	a.validator = quality.New(cfg.Quality)
	return nil
}

// pipelines builds a compression and decompression pair around col. The
// roundtrip command passes a fan-out collector to capture stage events for
// its report; everything else uses the configured sinks directly.
func (a *app) pipelines(col telemetry.Collector) (*compress.Pipeline, *decompress.Pipeline) {
	c := compress.New(a.cfg.Compression, compress.Deps{
		Generative: a.generator,
		Scrubber:   a.scrubber,
		Logger:     a.log,
		Collector:  col,
		Telemetry:  a.telemetry,
	})
	d := decompress.New(a.cfg.Decompression, decompress.Deps{
		Generative: a.generator,
		Scrubber:   a.scrubber,
		Logger:     a.log,
		Collector:  col,
		Telemetry:  a.telemetry,
	})
	return c, d
}

func (a *app) coordinatorWith(cfg config.BatchConfig) *batch.Coordinator {
	return batch.New(cfg, batch.Deps{
		Compress:   a.compress,
		Decompress: a.decompress,
		Validator:  a.validator,
		Logger:     a.log,
	})
}

func (a *app) close(ctx context.Context) {
	if a.collector != nil {
		_ = a.collector.Close(ctx)
	}
	if a.telemetry != nil {
		_ = a.telemetry.Shutdown(ctx)
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// skipsPipelines reports whether cmd works on configuration or parsed
// metadata alone and needs no generative backend or telemetry sinks.
func skipsPipelines(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "version", "stats", "validate", "metrics":
		return true
	}
	return false
}

// readInput loads a document from a file, or from stdin when path is "-".
// The returned name labels the document in telemetry and headers.
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "-", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "spr %s (commit %s, built %s)\n", version, gitCommit, buildDate)
		},
	}
}
