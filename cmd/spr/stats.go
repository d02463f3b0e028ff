package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/telemetry"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		since  time.Duration
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded pipeline activity",
		Long: `Aggregate the local stage event store: totals per pipeline stage,
failure counts and durations for the recent processing window.

Examples:
  spr stats
  spr stats --since 1h --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandHome(a.cfg.Telemetry.SQLite.Path)
			if err != nil {
				return err
			}
			sink, err := telemetry.NewSQLiteSink(path, a.log)
			if err != nil {
				return fmt.Errorf("open stage event store: %w", err)
			}
			defer sink.Close(cmd.Context())

			st, err := sink.Stats(cmd.Context(), time.Now().Add(-since))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			fmt.Fprintf(w, "since %s: %d stage events, %d failures, %d documents\n",
				st.Since.Format(time.RFC3339), st.Events, st.Failures, st.Documents)
			if st.AvgRatio > 0 {
				fmt.Fprintf(w, "average compression ratio %.2f\n", st.AvgRatio)
			}
			if len(st.Stages) == 0 {
				return nil
			}

			tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "pipeline\tstage\tcount\tfailures\tavg ms\tmax ms")
			for _, s := range st.Stages {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%.1f\n",
					s.Pipeline, s.Stage, s.Count, s.Failures, s.AvgMillis, s.MaxMillis)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "aggregation window")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print stats as JSON")
	return cmd
}
