package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// readInput returns the text to read: --text wins, then --file, then stdin.
// An explicit --text must contain words.
func readInput(text string, textSet bool, file string, stdin io.Reader) (string, error) {
	if textSet || text != "" {
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("--text contains no text")
		}
		return text, nil
	}

	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		if strings.TrimSpace(string(b)) == "" {
			return "", fmt.Errorf("%s contains no text", file)
		}
		return string(b), nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text, --file or pipe text on stdin")
	}
	return input, nil
}
