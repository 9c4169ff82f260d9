package doctor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-rsvp/internal/text"
)

func TestCheckListenAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"all interfaces", ":8080", false},
		{"loopback", "127.0.0.1:9000", false},
		{"ipv6", "[::1]:80", false},
		{"ephemeral", "localhost:0", false},
		{"no port", "localhost", true},
		{"empty", "", true},
		{"bad port", "localhost:http2", true},
		{"port too large", ":70000", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkListenAddr(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("checkListenAddr(%q) = %v; wantErr=%v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	dir := t.TempDir()

	full := filepath.Join(dir, "full.txt")
	if err := os.WriteFile(full, []byte("one  two\nthree\tfour"), 0o644); err != nil {
		t.Fatal(err)
	}

	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte(" \n\t "), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := countWords(full)
	if err != nil || n != 4 {
		t.Fatalf("countWords(full) = (%d, %v); want (4, nil)", n, err)
	}

	if _, err := countWords(blank); !errors.Is(err, text.ErrEmptyText) {
		t.Fatalf("countWords(blank) error = %v; want ErrEmptyText", err)
	}

	if _, err := countWords(filepath.Join(dir, "missing.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("countWords(missing) error = %v; want ErrNotExist", err)
	}
}
