// Package doctor provides preflight checks for an rsvp configuration.
package doctor

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/example/go-rsvp/internal/config"
	"github.com/example/go-rsvp/internal/rsvp"
	"github.com/example/go-rsvp/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// sample is tokenized to prove the pipeline works at the configured rate.
const sample = "The quick brown fox jumps over the lazy dog."

// Config holds the inputs for each doctor check.
type Config struct {
	// Settings is the resolved configuration to check.
	Settings config.Config
	// ConfigFile is the explicit --config path, if any.
	ConfigFile string
	// SkipServer skips the listen address check (reader-only use).
	SkipServer bool
	// TextFiles are input files that must exist and contain words.
	TextFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- config file ------------------------------------------------------
	if cfg.ConfigFile == "" {
		fmt.Fprintf(w, "%s config file: none (defaults and environment)\n", PassMark)
	} else if _, err := os.Stat(cfg.ConfigFile); err != nil {
		res.fail(fmt.Sprintf("config file %q: %v", cfg.ConfigFile, err))
		fmt.Fprintf(w, "%s config file %s: not found\n", FailMark, cfg.ConfigFile)
	} else {
		fmt.Fprintf(w, "%s config file: %s\n", PassMark, cfg.ConfigFile)
	}

	// ---- reader settings --------------------------------------------------
	r := cfg.Settings.Reader
	if err := cfg.Settings.Validate(); err != nil {
		res.fail(fmt.Sprintf("reader settings: %v", err))
		fmt.Fprintf(w, "%s reader settings: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s reader settings: %.0f WPM in [%.0f, %.0f], step %.0f, seek %d\n",
			PassMark, r.WPM, r.MinWPM, r.MaxWPM, r.WPMStep, r.SeekStep)
	}

	// ---- tokenizer --------------------------------------------------------
	if tokens, err := rsvp.Tokenize(sample, r.WPM); err != nil {
		res.fail(fmt.Sprintf("tokenizer: %v", err))
		fmt.Fprintf(w, "%s tokenizer: %v\n", FailMark, err)
	} else {
		var total float64
		for _, tok := range tokens {
			total += tok.DurationMs
		}
		fmt.Fprintf(w, "%s tokenizer: %d tokens in %.0f ms\n", PassMark, len(tokens), total)
	}

	// ---- listen address ---------------------------------------------------
	if cfg.SkipServer {
		fmt.Fprintf(w, "%s listen address: skipped\n", PassMark)
	} else if err := checkListenAddr(cfg.Settings.Server.ListenAddr); err != nil {
		res.fail(fmt.Sprintf("listen address: %v", err))
		fmt.Fprintf(w, "%s listen address %q: %v\n", FailMark, cfg.Settings.Server.ListenAddr, err)
	} else {
		fmt.Fprintf(w, "%s listen address: %s\n", PassMark, cfg.Settings.Server.ListenAddr)
	}

	// ---- text files -------------------------------------------------------
	for _, path := range cfg.TextFiles {
		n, err := countWords(path)
		if err != nil {
			res.fail(fmt.Sprintf("text file %q: %v", path, err))
			fmt.Fprintf(w, "%s text file %s: %v\n", FailMark, path, err)
		} else {
			fmt.Fprintf(w, "%s text file: %s (%d words)\n", PassMark, path, n)
		}
	}

	return res
}

// checkListenAddr returns an error unless addr is host:port with a port in
// [0, 65535]. An empty host means all interfaces.
func checkListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("bad port %q: %w", port, err)
	}
	if n < 0 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	return nil
}

func countWords(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	words := text.Words(string(data))
	if len(words) == 0 {
		return 0, text.ErrEmptyText
	}
	return len(words), nil
}
