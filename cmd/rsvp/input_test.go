package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadInput(t *testing.T) {
	dir := t.TempDir()

	article := filepath.Join(dir, "article.txt")
	if err := os.WriteFile(article, []byte("from a file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("\n \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("uses flag text", func(t *testing.T) {
		got, err := readInput("hello", true, article, strings.NewReader("ignored"))
		if err != nil {
			t.Fatalf("readInput returned error: %v", err)
		}
		if got != "hello" {
			t.Fatalf("expected hello, got %q", got)
		}
	})

	t.Run("reads file before stdin", func(t *testing.T) {
		got, err := readInput("", false, article, strings.NewReader("ignored"))
		if err != nil {
			t.Fatalf("readInput returned error: %v", err)
		}
		if got != "from a file\n" {
			t.Fatalf("expected file contents, got %q", got)
		}
	})

	t.Run("falls back to stdin", func(t *testing.T) {
		got, err := readInput("", false, "", strings.NewReader(" from stdin \n"))
		if err != nil {
			t.Fatalf("readInput returned error: %v", err)
		}
		if got != "from stdin" {
			t.Fatalf("expected trimmed stdin text, got %q", got)
		}
	})

	t.Run("fails when file is blank", func(t *testing.T) {
		if _, err := readInput("", false, blank, strings.NewReader("")); err == nil {
			t.Fatal("expected error for blank file")
		}
	})

	t.Run("fails when file is missing", func(t *testing.T) {
		if _, err := readInput("", false, filepath.Join(dir, "nope.txt"), strings.NewReader("")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("fails on blank flag text without reading stdin", func(t *testing.T) {
		stdin := &countingReader{r: strings.NewReader("from stdin")}
		if _, err := readInput("   ", true, "", stdin); err == nil {
			t.Fatal("expected error for blank --text")
		}
		if stdin.reads != 0 {
			t.Fatalf("stdin was read %d times", stdin.reads)
		}
	})

	t.Run("fails when all empty", func(t *testing.T) {
		if _, err := readInput("", false, "", strings.NewReader("   \n\t")); err == nil {
			t.Fatal("expected error for empty input")
		}
	})
}

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}
