package text

import (
	"errors"
	"strings"
	"unicode"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares raw selected text for reading. It trims surrounding
// whitespace, replaces every internal run of whitespace with a single space
// and rejects empty or whitespace-only input.
func Normalize(s string) (string, error) {
	s = strings.Join(Words(s), " ")
	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// Words splits text into non-empty words on whitespace boundaries.
// Punctuation stays attached to the word it touches.
func Words(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}
