package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/go-rsvp/internal/bench"
)

func newBenchCmd() *cobra.Command {
	var (
		text      string
		file      string
		runs      int
		format    string
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenizer latency against reading time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			input, err := readInput(text, cmd.Flags().Changed("text"), file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			results, err := bench.Run(input, cfg.Reader.WPM, runs)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if err := bench.FormatJSON(results, stats, out); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckThreshold(bench.MeanRatio(results), threshold)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to tokenize for each run (reads stdin when empty)")
	cmd.Flags().StringVar(&file, "file", "", "Read text from a file")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of tokenize runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&threshold, "ratio-threshold", 0, "Exit non-zero if mean tokenize/reading ratio exceeds this value (0 = disabled)")

	return cmd
}
