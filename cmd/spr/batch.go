package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/spr/internal/batch"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process many documents with a bounded worker pool",
	}
	cmd.AddCommand(newBatchCompressCmd(a), newBatchDecompressCmd(a))
	return cmd
}

// batchFlags are shared by both batch subcommands.
type batchFlags struct {
	workers int
	outDir  string
	asJSON  bool
	watch   bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.workers, "workers", 0, "worker pool size (0 means one per CPU)")
	cmd.Flags().StringVar(&f.outDir, "out", "", "directory for outputs (default next to each input)")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "keep running and process files as they appear")
}

func newBatchCompressCmd(a *app) *cobra.Command {
	var (
		flags  batchFlags
		format string
		ratio  float64
	)

	cmd := &cobra.Command{
		Use:   "compress <dir|glob>",
		Short: "Compress every eligible document in a directory or glob",
		Long: `Compress all .txt and .md files matched by a directory or glob pattern.
Each file is processed independently; one file's failure never aborts the
rest. With --watch the directory is monitored and new files are picked up
until interrupted.

Examples:
  spr batch compress ./docs --workers 4 --out ./compressed
  spr batch compress './notes/*.md' --ratio 0.05 --json
  spr batch compress ./inbox --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f spr.Format
			if format != "" {
				var err error
				if f, err = spr.ParseFormat(format); err != nil {
					return err
				}
			}
			req := batch.Request{
				Op:     batch.OpCompress,
				OutDir: flags.outDir,
				Format: f,
				Ratio:  ratio,
			}
			return runBatch(cmd, a, req, args[0], flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "", "statement format (default from config)")
	cmd.Flags().Float64Var(&ratio, "ratio", 0, "target ratio, also the regression flag threshold")
	return cmd
}

func newBatchDecompressCmd(a *app) *cobra.Command {
	var (
		flags     batchFlags
		expansion string
		length    string
	)

	cmd := &cobra.Command{
		Use:   "decompress <dir|glob>",
		Short: "Expand every SPR document in a directory or glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var exp spr.ExpansionType
			if expansion != "" {
				var err error
				if exp, err = spr.ParseExpansion(expansion); err != nil {
					return err
				}
			}
			var tl spr.TargetLength
			if length != "" {
				var err error
				if tl, err = spr.ParseLength(length); err != nil {
					return err
				}
			}
			req := batch.Request{
				Op:        batch.OpDecompress,
				OutDir:    flags.outDir,
				Expansion: exp,
				Length:    tl,
			}
			return runBatch(cmd, a, req, args[0], flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&expansion, "expansion", "", "expansion type (default from config)")
	cmd.Flags().StringVar(&length, "length", "", "target length (default from config)")
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, req batch.Request, pattern string, flags batchFlags) error {
	paths, err := batch.Discover(pattern, req.Op)
	if err != nil {
		return err
	}
	req.Paths = paths

	cfg := a.cfg.Batch
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	coord := a.coordinatorWith(cfg)

	var summary *batch.Summary
	if flags.watch {
		root := pattern
		if info, serr := os.Stat(root); serr != nil || !info.IsDir() {
			root = filepath.Dir(pattern)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		summary, err = coord.Watch(ctx, req, root)
	} else {
		if len(paths) == 0 {
			return fmt.Errorf("no eligible files match %s", pattern)
		}
		summary, err = coord.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if flags.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(cmd.OutOrStdout(), summary, req.Op)
	}

	// Watch mode ending on a signal is a clean shutdown; a one-shot batch
	// with failures is not.
	if !flags.watch && summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Total)
	}
	return nil
}

func printSummary(w io.Writer, s *batch.Summary, op batch.Op) {
	fmt.Fprintf(w, "processed %d files: %d succeeded, %d failed, %d flagged\n",
		s.Total, s.Succeeded, s.Failed, s.Flagged)
	if s.Succeeded > 0 {
		label := "average compression ratio"
		if op == batch.OpDecompress {
			label = "average expansion ratio"
		}
		fmt.Fprintf(w, "%s %.2f\n", label, s.AvgRatio)
	}
	for _, f := range s.Files {
		if f.OK() {
			flag := ""
			if f.Flagged {
				flag = "  [ratio regression]"
			}
			fmt.Fprintf(w, "  %s -> %s (ratio %.2f)%s\n", f.Path, f.Output, f.Ratio, flag)
		} else {
			fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Error)
		}
	}
}
