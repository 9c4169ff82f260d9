package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/example/go-rsvp/internal/config"
	"github.com/example/go-rsvp/internal/render"
	"github.com/example/go-rsvp/internal/rsvp"
)

func newTokenizeCmd() *cobra.Command {
	var text string
	var file string
	var format string

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Split text into timed words and print them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			selected, err := config.NormalizeFormat(format)
			if err != nil {
				return err
			}

			input, err := readInput(text, cmd.Flags().Changed("text"), file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tokens, err := rsvp.Tokenize(input, cfg.Reader.WPM)
			if err != nil {
				return err
			}

			return writeTokens(cmd.OutOrStdout(), selected, tokens)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to tokenize (reads stdin when empty)")
	cmd.Flags().StringVar(&file, "file", "", "Read text from a file")
	cmd.Flags().StringVar(&format, "format", config.FormatJSON, "Output format (json|table|cbor)")

	return cmd
}

// tableAnchorColumn is the largest anchor index, so no word is padded past it.
const tableAnchorColumn = 4

func writeTokens(w io.Writer, format string, tokens []rsvp.Token) error {
	switch format {
	case config.FormatCBOR:
		data, err := cbor.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("encode cbor: %w", err)
		}
		_, err = w.Write(data)
		return err
	case config.FormatTable:
		return writeTable(w, tokens)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tokens)
	}
}

func writeTable(w io.Writer, tokens []rsvp.Token) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tWORD\tANCHOR\tMS\tMULT\tBREAK")

	for i, tok := range tokens {
		brk := ""
		switch {
		case tok.IsSentenceEnd:
			brk = "sentence"
		case tok.IsClauseBreak:
			brk = "clause"
		}

		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%.2f\t%s\n",
			i+1,
			render.Line(tok, tableAnchorColumn, bracket),
			tok.AnchorIndex,
			tok.DurationMs,
			tok.Multiplier,
			brk,
		)
	}

	return tw.Flush()
}

func bracket(s string) string { return "[" + s + "]" }
