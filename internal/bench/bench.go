// Package bench provides benchmarking primitives for the rsvp bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/go-rsvp/internal/rsvp"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing of a single tokenize run.
type RunResult struct {
	Index       int
	Cold        bool // true for the first run (cold-start)
	Duration    time.Duration
	Tokens      int
	ReadingTime time.Duration
	Ratio       float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Run tokenizes text at wpm runs times and records each run.
func Run(text string, wpm float64, runs int) ([]RunResult, error) {
	if runs < 1 {
		return nil, fmt.Errorf("runs must be at least 1, got %d", runs)
	}

	results := make([]RunResult, 0, runs)
	for i := range runs {
		start := time.Now()
		tokens, err := rsvp.Tokenize(text, wpm)
		elapsed := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}

		reading := ReadingTime(tokens)
		results = append(results, RunResult{
			Index:       i,
			Cold:        i == 0,
			Duration:    elapsed,
			Tokens:      len(tokens),
			ReadingTime: reading,
			Ratio:       CalcRatio(elapsed, reading),
		})
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Ratio helpers
// ---------------------------------------------------------------------------

// CalcRatio returns tokenize_duration / reading_time.
// Returns 0 if reading is zero to avoid division by zero.
func CalcRatio(tokenizeDur, reading time.Duration) float64 {
	if reading <= 0 {
		return 0
	}
	return float64(tokenizeDur) / float64(reading)
}

// ReadingTime returns how long tokens take to play at the rate they were
// tokenized for.
func ReadingTime(tokens []rsvp.Token) time.Duration {
	var total time.Duration
	for _, tok := range tokens {
		total += tok.Duration()
	}
	return total
}

// CheckThreshold returns an error if meanRatio > threshold.
// A threshold of 0 disables the gate.
func CheckThreshold(meanRatio, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRatio > threshold {
		return fmt.Errorf("mean ratio %.6f exceeds threshold %.6f", meanRatio, threshold)
	}
	return nil
}

// MeanRatio averages the ratio of every run.
func MeanRatio(runs []RunResult) float64 {
	if len(runs) == 0 {
		return 0
	}
	var total float64
	for _, r := range runs {
		total += r.Ratio
	}
	return total / float64(len(runs))
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %12s  %10s\n", "Run", "Cold", "µs", "Tokens", "Reading(s)", "Ratio")
	fmt.Fprintln(sb, strings.Repeat("-", 60))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10d  %8d  %12.1f  %10.2e\n",
			r.Index+1,
			cold,
			r.Duration.Microseconds(),
			r.Tokens,
			r.ReadingTime.Seconds(),
			r.Ratio,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 60))
	fmt.Fprintf(sb, "%-5s  %-5s  %10d  (min)\n", "", "", stats.Min.Microseconds())
	fmt.Fprintf(sb, "%-5s  %-5s  %10d  (mean)\n", "", "", stats.Mean.Microseconds())
	fmt.Fprintf(sb, "%-5s  %-5s  %10d  (max)\n", "", "", stats.Max.Microseconds())

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationUS int64   `json:"duration_us"`
	Tokens     int     `json:"tokens"`
	ReadingMS  int64   `json:"reading_ms"`
	Ratio      float64 `json:"ratio"`
}

type jsonStats struct {
	MinUS  int64 `json:"min_us"`
	MeanUS int64 `json:"mean_us"`
	MaxUS  int64 `json:"max_us"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) error {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinUS:  stats.Min.Microseconds(),
			MeanUS: stats.Mean.Microseconds(),
			MaxUS:  stats.Max.Microseconds(),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationUS: r.Duration.Microseconds(),
			Tokens:     r.Tokens,
			ReadingMS:  r.ReadingTime.Milliseconds(),
			Ratio:      r.Ratio,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jr)
}
