package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/spr/internal/roundtrip"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/telemetry"
)

// stageReport collects stage events for the stderr summary while the
// configured sinks keep receiving them through the fan-out.
type stageReport struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (r *stageReport) Emit(_ context.Context, ev telemetry.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *stageReport) Close(context.Context) error { return nil }

func (r *stageReport) print(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		status := ""
		if !ev.Success {
			status = "  FAILED"
		}
		fmt.Fprintf(w, "  %-11s %-20s %5d -> %5d words  %6.1fms%s\n",
			ev.Pipeline, ev.Stage, ev.InputWords, ev.OutputWords,
			float64(ev.Duration.Microseconds())/1000, status)
	}
}

func newRoundtripCmd(a *app) *cobra.Command {
	var (
		format    string
		expansion string
	)

	cmd := &cobra.Command{
		Use:   "roundtrip <file>",
		Short: "Compress a document and expand it back, reporting quality",
		Long: `Run a full compression and reconstruction cycle on one document. The
per-stage word counts, ratios and quality measures go to stderr; stdout
carries only the reconstructed text. Quality warnings do not fail the
command.

Examples:
  spr roundtrip notes.txt
  spr roundtrip notes.txt --expansion comprehensive > notes.rebuilt.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var f spr.Format
			if format != "" {
				if f, err = spr.ParseFormat(format); err != nil {
					return err
				}
			}
			var exp spr.ExpansionType
			if expansion != "" {
				if exp, err = spr.ParseExpansion(expansion); err != nil {
					return err
				}
			}

			report := &stageReport{}
			cp, dp := a.pipelines(telemetry.NewMulti(a.collector, report))
			tester := roundtrip.New(a.cfg.Compression, roundtrip.Deps{
				Compress:   cp,
				Decompress: dp,
				Validator:  a.validator,
				Logger:     a.log,
			})

			res, err := tester.Run(cmd.Context(), roundtrip.Request{
				Source:    spr.SourceDocument{Path: name, Content: string(data)},
				Format:    f,
				Expansion: exp,
			})
			if err != nil {
				return err
			}

			errw := cmd.ErrOrStderr()
			fmt.Fprintf(errw, "round trip for %s\n", name)
			report.print(errw)
			fmt.Fprintf(errw, "words: %d original, %d compressed, %d reconstructed\n",
				res.Doc.Meta.OriginalWords, res.Doc.Meta.CompressedWords, res.Expanded.WordCount())
			fmt.Fprintf(errw, "ratios: compression %.2f (target %.2f), expansion %.2f\n",
				res.Metrics.CompressionRatio, res.TargetRatio, res.Metrics.ExpansionRatio)
			fmt.Fprintf(errw, "quality: similarity %.2f, structural %.2f, loss %.2f\n",
				res.Metrics.SemanticSimilarity, res.Metrics.StructuralPreservation, res.Metrics.InformationLoss)
			if res.Regressed {
				fmt.Fprintf(errw, "warning: quality regression: achieved ratio %.2f exceeds target %.2f\n",
					res.Doc.Meta.Ratio, res.TargetRatio)
			}
			if !res.Verdict.Pass {
				fmt.Fprintf(errw, "warning: quality gate failed: %s\n", res.Verdict.Reason)
			}

			fmt.Fprintln(cmd.OutOrStdout(), res.Expanded.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "statement format for the compression leg")
	cmd.Flags().StringVar(&expansion, "expansion", "", "expansion type for the reconstruction leg")
	return cmd
}
