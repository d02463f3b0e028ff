package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func newCompressCmd(a *app) *cobra.Command {
	var (
		format string
		ratio  float64
		out    string
	)

	cmd := &cobra.Command{
		Use:   "compress <file>",
		Short: "Compress a document into SPR statements",
		Long: `Compress a text document into a sparse priming representation: metadata
headers followed by one statement per line.

Examples:
  # Compress to stdout
  spr compress notes.txt

  # Tighter target ratio, written to a file
  spr compress notes.txt --ratio 0.05 -o notes.spr

  # Compress from stdin
  cat notes.txt | spr compress -`,
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

			doc, err := a.compress.Compress(cmd.Context(), compress.Request{
				Source: spr.SourceDocument{Path: name, Content: string(data)},
				Format: f,
				Ratio:  ratio,
			})
			if err != nil {
				return err
			}

			encoded := spr.Encode(doc)
			if out != "" {
				if err := os.WriteFile(out, encoded, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "compressed %d words to %d (ratio %.2f), wrote %s\n",
					doc.Meta.OriginalWords, doc.Meta.CompressedWords, doc.Meta.Ratio, out)
				return nil
			}
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "", fmt.Sprintf("statement format: %s (default from config)", strings.Join(spr.Formats(), ", ")))
	cmd.Flags().Float64Var(&ratio, "ratio", 0, "target compressed/original word ratio (default from config)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the SPR document to a file instead of stdout")
	return cmd
}
