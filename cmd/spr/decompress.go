package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func newDecompressCmd(a *app) *cobra.Command {
	var (
		expansion string
		length    string
		out       string
	)

	cmd := &cobra.Command{
		Use:   "decompress <file.spr>",
		Short: "Reconstruct prose from an SPR document",
		Long: `Expand a sparse priming representation back into prose. Stdout carries a
short header with the word counts, then the reconstructed text; with -o
only the text is written.

Examples:
  # Expand to stdout
  spr decompress notes.spr

  # Brief summary form
  spr decompress notes.spr --expansion brief

  # Expand from stdin into a file
  cat notes.spr | spr decompress - -o notes.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			var exp spr.ExpansionType
			if expansion != "" {
				if exp, err = spr.ParseExpansion(expansion); err != nil {
					return err
				}
			}
			var tl spr.TargetLength
			if length != "" {
				if tl, err = spr.ParseLength(length); err != nil {
					return err
				}
			}

			expanded, err := a.decompress.Decompress(cmd.Context(), decompress.Request{
				Path:      name,
				Data:      data,
				Expansion: exp,
				Length:    tl,
			})
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, []byte(expanded.Content+"\n"), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "reconstructed %d words (expansion %.2f), wrote %s\n",
					expanded.WordCount(), expanded.ExpansionRatio, out)
				return nil
			}

			// The input parses again here only to report its size; the
			// pipeline has already validated it.
			w := cmd.OutOrStdout()
			if doc, perr := spr.Parse(data); perr == nil {
				fmt.Fprintf(w, "# SPR: %d words\n", doc.WordCount())
			}
			fmt.Fprintf(w, "# Reconstructed: %d words\n", expanded.WordCount())
			fmt.Fprintf(w, "# Expansion ratio: %.2f\n\n", expanded.ExpansionRatio)
			fmt.Fprintln(w, expanded.Content)
			return nil
		},
	}

	cmd.Flags().StringVar(&expansion, "expansion", "", fmt.Sprintf("expansion type: %s (default from config)", strings.Join(spr.Expansions(), ", ")))
	cmd.Flags().StringVar(&length, "length", "", fmt.Sprintf("target length: %s (default from config)", strings.Join(spr.Lengths(), ", ")))
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the reconstruction to a file instead of stdout")
	return cmd
}
