package main

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/spr/internal/quality"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.spr>",
		Short: "Check the structure of an SPR document",
		Long: `Parse an SPR file and report its structural health: statement count,
word counts recomputed from the statements, and format bound violations.
A file with no statements fails with a non-zero exit code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := spr.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			report := quality.Inspect(doc)
			min, max := report.Format.Bounds()

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d statements, %d words, format %s\n",
				name, report.Statements, report.CompressedWords, report.Format)
			if report.RecomputedRatio > 0 {
				fmt.Fprintf(w, "recomputed ratio %.2f (%d/%d words)\n",
					report.RecomputedRatio, report.CompressedWords, doc.Meta.OriginalWords)
			}
			if report.BoundViolations == 0 {
				fmt.Fprintf(w, "bounds: all statements within %d-%d words\n", min, max)
			} else {
				fmt.Fprintf(w, "bounds: %d statements outside %d-%d words\n", report.BoundViolations, min, max)
			}
			if doc.Meta.CompressedWords > 0 && doc.Meta.CompressedWords != report.CompressedWords {
				fmt.Fprintf(w, "warning: header says %d compressed words, statements hold %d\n",
					doc.Meta.CompressedWords, report.CompressedWords)
			}
			if doc.Meta.Ratio > 0 && report.RecomputedRatio > 0 &&
				math.Abs(doc.Meta.Ratio-report.RecomputedRatio) > 0.005 {
				fmt.Fprintf(w, "warning: header ratio %.2f disagrees with recomputed %.2f\n",
					doc.Meta.Ratio, report.RecomputedRatio)
			}
			fmt.Fprintln(w, "ok")
			return nil
		},
	}
}

// metricsOutput is the spr metrics command's report shape.
type metricsOutput struct {
	Path   string                 `json:"path"`
	Header metricsHeader          `json:"header"`
	Report quality.DocumentReport `json:"report"`
}

type metricsHeader struct {
	OriginalWords   int     `json:"original_words"`
	CompressedWords int     `json:"compressed_words"`
	Ratio           float64 `json:"ratio"`
	Format          string  `json:"format,omitempty"`
	Generated       string  `json:"generated,omitempty"`
	TraceID         string  `json:"trace_id,omitempty"`
}

func newMetricsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "metrics <file.spr>",
		Short: "Show parsed metadata and recomputed metrics for an SPR document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := spr.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			out := metricsOutput{
				Path: name,
				Header: metricsHeader{
					OriginalWords:   doc.Meta.OriginalWords,
					CompressedWords: doc.Meta.CompressedWords,
					Ratio:           doc.Meta.Ratio,
					Format:          string(doc.Meta.Format),
					TraceID:         doc.Meta.TraceID,
				},
				Report: quality.Inspect(doc),
			}
			if !doc.Meta.Generated.IsZero() {
				out.Header.Generated = doc.Meta.Generated.UTC().Format(time.RFC3339)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Fprintf(w, "%s\n", name)
			fmt.Fprintf(w, "header: %d original words, %d compressed words, ratio %.2f, format %s\n",
				out.Header.OriginalWords, out.Header.CompressedWords, out.Header.Ratio, doc.Meta.Format)
			if out.Header.Generated != "" || out.Header.TraceID != "" {
				fmt.Fprintf(w, "generated %s trace %s\n", out.Header.Generated, out.Header.TraceID)
			}
			fmt.Fprintf(w, "recomputed: %d statements, %d words, ratio %.2f, %d bound violations\n",
				out.Report.Statements, out.Report.CompressedWords, out.Report.RecomputedRatio, out.Report.BoundViolations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
