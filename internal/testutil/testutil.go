// Package testutil provides shared assertions for tests that handle token
// sequences.
//
// Typical usage:
//
//	tokens := testutil.MustTokenize(t, input, 450)
//	testutil.AssertTokenInvariants(t, tokens, 450)
package testutil

import (
	"testing"
	"unicode/utf8"

	"github.com/example/go-rsvp/internal/rsvp"
)

// AssertTokenInvariants fails the test when any token breaks the contract
// every tokenization must hold: one base duration for the whole call,
// duration = base × multiplier, multiplier ≥ 1, an in-range anchor, and
// mutually exclusive punctuation flags.
func AssertTokenInvariants(tb testing.TB, tokens []rsvp.Token, wpm float64) {
	tb.Helper()

	base := rsvp.BaseDurationMs(wpm)
	for i, tok := range tokens {
		if tok.BaseDurationMs != base {
			tb.Errorf("token[%d] %q: BaseDurationMs = %v, want %v", i, tok.Text, tok.BaseDurationMs, base)
		}

		if tok.DurationMs != tok.BaseDurationMs*tok.Multiplier {
			tb.Errorf("token[%d] %q: DurationMs = %v, want %v × %v",
				i, tok.Text, tok.DurationMs, tok.BaseDurationMs, tok.Multiplier)
		}

		if tok.Multiplier < 1.0 {
			tb.Errorf("token[%d] %q: Multiplier = %v, want ≥ 1", i, tok.Text, tok.Multiplier)
		}

		n := utf8.RuneCountInString(tok.Text)
		if n == 0 {
			tb.Errorf("token[%d]: empty text", i)
			continue
		}

		if tok.AnchorIndex < 0 || tok.AnchorIndex >= n {
			tb.Errorf("token[%d] %q: AnchorIndex = %d, want in [0, %d)", i, tok.Text, tok.AnchorIndex, n)
		}

		if tok.IsSentenceEnd && tok.IsClauseBreak {
			tb.Errorf("token[%d] %q: both sentence end and clause break", i, tok.Text)
		}
	}
}

// MustTokenize tokenizes input at wpm and fails the test on error.
func MustTokenize(tb testing.TB, input string, wpm float64) []rsvp.Token {
	tb.Helper()

	tokens, err := rsvp.Tokenize(input, wpm)
	if err != nil {
		tb.Fatalf("Tokenize(%q, %v): %v", input, wpm, err)
	}

	return tokens
}
